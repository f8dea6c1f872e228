package main

import (
	"context"
	"github.com/Avi18971911/jellylog/internal/config"
	"github.com/Avi18971911/jellylog/internal/db/elasticsearch/bootstrapper"
	"github.com/Avi18971911/jellylog/internal/db/elasticsearch/client"
	"github.com/Avi18971911/jellylog/internal/db/write_buffer"
	exportModel "github.com/Avi18971911/jellylog/internal/export/model"
	exportService "github.com/Avi18971911/jellylog/internal/export/service"
	logSourceService "github.com/Avi18971911/jellylog/internal/log_source/service"
	"github.com/Avi18971911/jellylog/internal/otel_server/log/buffer"
	logsServer "github.com/Avi18971911/jellylog/internal/otel_server/log/server"
	classifierService "github.com/Avi18971911/jellylog/internal/pipeline/classifier/service"
	dataPipelineService "github.com/Avi18971911/jellylog/internal/pipeline/data_pipeline/service"
	dataProcessorService "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/service"
	detailService "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/service"
	lineService "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/service"
	sessionService "github.com/Avi18971911/jellylog/internal/pipeline/session/service"
	"github.com/Avi18971911/jellylog/internal/query_server/handler"
	"github.com/Avi18971911/jellylog/internal/query_server/router"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/viper"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip"
	"net"
	"net/http"
	"os"
)

// @title Jellylog API
// @version 1.0
// @description Analyzes Jellyfin logs posted over HTTP or received over OTLP.

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(viper.New(), os.Getenv("JELLYLOG_CONFIG"))
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	cache, err := detailService.NewExtractionCache()
	if err != nil {
		logger.Fatal("Failed to create extraction cache", zap.Error(err))
	}
	dp := dataProcessorService.NewDataProcessorService(
		logSourceService.NewLogReader(logger),
		lineService.NewLineParser(),
		classifierService.NewEventClassifier(),
		detailService.NewDetailExtractor(cache, logger),
		sessionService.NewSessionCorrelator(logger),
		logger,
	)
	dataPipeline := dataPipelineService.NewDataPipeline(dp, cfg.Workers, logger)

	var recordStore handler.RecordStore
	if cfg.ElasticsearchURL != "" {
		es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.ElasticsearchURL}})
		if err != nil {
			logger.Fatal("Failed to create elasticsearch client", zap.Error(err))
		}
		bs := bootstrapper.NewBootstrapper(es, cfg.ElasticsearchIndex, logger)
		if err := bs.BootstrapElasticsearch(); err != nil {
			logger.Error("Failed to bootstrap elasticsearch", zap.Error(err))
		}
		ac := client.NewJellylogClientImpl(es, client.Wait)
		recordBuffer := write_buffer.NewDatabaseWriteBufferImpl[exportModel.RecordDocument](
			ac,
			cfg.ElasticsearchIndex,
			logger,
		)
		recordStore = exportService.NewExportService(ac, recordBuffer, cfg.ElasticsearchIndex, logger)
	}

	logBuffer := buffer.NewLogBuffer(cfg.BufferSize)

	listener, err := net.Listen("tcp", cfg.GrpcAddress)
	if err != nil {
		logger.Fatal("Failed to listen", zap.String("address", cfg.GrpcAddress), zap.Error(err))
	}
	srv := grpc.NewServer()
	protoLogs.RegisterLogsServiceServer(srv, logsServer.NewLogServiceServerImpl(logger, logBuffer))
	go func() {
		logger.Info("gRPC service started, listening for OpenTelemetry logs...", zap.String("address", cfg.GrpcAddress))
		if err := srv.Serve(listener); err != nil {
			logger.Fatal("Failed to serve gRPC", zap.Error(err))
		}
	}()

	r := router.CreateRouter(context.Background(), dataPipeline, logBuffer, recordStore, logger)
	logger.Info("Starting query server", zap.String("address", cfg.HttpAddress))
	if err := http.ListenAndServe(cfg.HttpAddress, r); err != nil {
		logger.Fatal("Failed to serve HTTP", zap.Error(err))
	}
}
