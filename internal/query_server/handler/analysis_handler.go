package handler

import (
	"context"
	exportModel "github.com/Avi18971911/jellylog/internal/export/model"
	"github.com/Avi18971911/jellylog/internal/otel_server/log/buffer"
	dataProcessorService "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/service"
	reportModel "github.com/Avi18971911/jellylog/internal/report/model"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"io"
	"net/http"
	"strings"
)

const receivedLogsName = "otlp"

type LineAnalyzer interface {
	AnalyzeLines(name string, lines []string, options dataProcessorService.ProcessOptions) (reportModel.Report, error)
}

type RecordStore interface {
	Records(ctx context.Context, runId string) ([]exportModel.RecordDocument, error)
}

// AnalyzeHandler creates a handler that analyzes posted log lines.
// @Summary Analyze raw log lines.
// @Tags analysis
// @Accept json
// @Produce json
// @Param analysis body AnalyzeRequestDTO true "The lines and the categories to report"
// @Success 200 {object} ReportDTO "The report for the posted lines"
// @Failure 400 {object} ErrorMessage "Invalid request payload"
// @Router /analyze [post]
func AnalyzeHandler(
	ctx context.Context,
	analyzer LineAnalyzer,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequestDTO
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logger.Error("Error encountered when decoding request body", zap.Error(err))
			HttpError(w, "Invalid request payload", http.StatusBadRequest, logger)
			return
		}

		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logger.Error("Error encountered when closing request body", zap.Error(err))
			}
		}(r.Body)

		options, err := toProcessOptions(req.Categories, req.MaxErrors)
		if err != nil {
			logger.Info("Rejected analysis request", zap.Error(err))
			HttpError(w, err.Error(), http.StatusBadRequest, logger)
			return
		}
		name := req.Name
		if name == "" {
			name = "request"
		}

		report, err := analyzer.AnalyzeLines(name, req.Lines, options)
		if err != nil {
			logger.Error("Error encountered when analyzing lines", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
		writeJSON(w, mapReportToDTO(report), logger)
	}
}

// ReceivedLogsHandler creates a handler that analyzes the log records received over OTLP.
// @Summary Analyze the received log records.
// @Tags analysis
// @Produce json
// @Param categories query string true "Comma separated categories, or all"
// @Param max_errors query int false "The maximum number of errors per category"
// @Success 200 {object} ReportDTO "The report for the received records"
// @Failure 400 {object} ErrorMessage "Invalid query parameters"
// @Router /report [get]
func ReceivedLogsHandler(
	ctx context.Context,
	analyzer LineAnalyzer,
	logBuffer buffer.LogBuffer,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		maxErrors, err := parseMaxErrors(query.Get("max_errors"))
		if err != nil {
			HttpError(w, err.Error(), http.StatusBadRequest, logger)
			return
		}
		options, err := toProcessOptions(strings.Split(query.Get("categories"), ","), maxErrors)
		if err != nil {
			HttpError(w, err.Error(), http.StatusBadRequest, logger)
			return
		}

		report, err := analyzer.AnalyzeLines(receivedLogsName, logBuffer.Lines(), options)
		if err != nil {
			logger.Error("Error encountered when analyzing received logs", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
		writeJSON(w, mapReportToDTO(report), logger)
	}
}

// RecordsHandler creates a handler that lists the exported records of a run.
// @Summary Get the exported records of a run.
// @Tags analysis
// @Produce json
// @Param runId path string true "The run id of the report"
// @Success 200 {object} RecordsResponseDTO "The stored records grouped by category"
// @Failure 500 {object} ErrorMessage "Internal server error"
// @Router /runs/{runId}/records [get]
func RecordsHandler(
	ctx context.Context,
	store RecordStore,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runId := mux.Vars(r)["runId"]
		documents, err := store.Records(ctx, runId)
		if err != nil {
			logger.Error("Error encountered when getting records", zap.String("run_id", runId), zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
		writeJSON(w, mapRecordDocumentsToDTO(runId, documents), logger)
	}
}
