package router

import (
	"context"
	"github.com/Avi18971911/jellylog/internal/otel_server/log/buffer"
	"github.com/Avi18971911/jellylog/internal/query_server/handler"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"net/http"
)

// CreateRouter wires the analysis endpoints. The records endpoint is only served when a record
// store is configured.
func CreateRouter(
	ctx context.Context,
	analyzer handler.LineAnalyzer,
	logBuffer buffer.LogBuffer,
	recordStore handler.RecordStore,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.Handle(
		"/analyze", handler.AnalyzeHandler(
			ctx,
			analyzer,
			logger,
		),
	).Methods("POST")

	r.Handle(
		"/report", handler.ReceivedLogsHandler(
			ctx,
			analyzer,
			logBuffer,
			logger,
		),
	).Methods("GET")

	if recordStore != nil {
		r.Handle(
			"/runs/{runId}/records", handler.RecordsHandler(
				ctx,
				recordStore,
				logger,
			),
		).Methods("GET")
	}

	return r
}
