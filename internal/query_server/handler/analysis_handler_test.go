package handler

import (
	"bytes"
	"context"
	"errors"
	exportModel "github.com/Avi18971911/jellylog/internal/export/model"
	"github.com/Avi18971911/jellylog/internal/otel_server/log/buffer"
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	dataProcessorService "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/service"
	lineModel "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/model"
	reportModel "github.com/Avi18971911/jellylog/internal/report/model"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeAnalyzer struct {
	name    string
	lines   []string
	options dataProcessorService.ProcessOptions
	err     error
}

func (fa *fakeAnalyzer) AnalyzeLines(
	name string,
	lines []string,
	options dataProcessorService.ProcessOptions,
) (reportModel.Report, error) {
	fa.name = name
	fa.lines = lines
	fa.options = options
	if fa.err != nil {
		return reportModel.Report{}, fa.err
	}
	return reportModel.Report{
		RunId:      "run-1",
		Files:      []string{name},
		Categories: options.Categories,
		Records: map[classifierModel.Category][]dataModel.ClassifiedEvent{
			classifierModel.Database: {
				{
					File:       name,
					LineNumber: 1,
					Kind:       classifierModel.ErrorEvent,
					Entry: lineModel.LogEntry{
						Timestamp: "2024-01-01 10:00:00.000 +00:00",
						Level:     "ERR",
						Message:   "database is locked",
					},
				},
			},
		},
	}, nil
}

type fakeRecordStore struct {
	documents []exportModel.RecordDocument
	err       error
}

func (fs *fakeRecordStore) Records(ctx context.Context, runId string) ([]exportModel.RecordDocument, error) {
	return fs.documents, fs.err
}

func TestAnalyzeHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("should analyze the posted lines", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		body, err := json.Marshal(AnalyzeRequestDTO{
			Name:       "upload.log",
			Lines:      []string{"[ERR] Database: database is locked"},
			Categories: []string{"database", "Networking"},
		})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
		AnalyzeHandler(context.Background(), analyzer, logger)(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "upload.log", analyzer.name)
		assert.Equal(t, 2, analyzer.options.MaxErrors)
		assert.Equal(
			t,
			[]classifierModel.Category{classifierModel.Database, classifierModel.Networking},
			analyzer.options.Categories,
		)

		var response ReportDTO
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, "run-1", response.RunId)
		assert.Equal(t, 1, response.Total)
		require.Len(t, response.Records["database"], 1)
		assert.Equal(t, "database is locked", response.Records["database"][0].Message)
		assert.Equal(t, "error", response.Records["database"][0].Kind)
	})

	t.Run("should select every category with all", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		maxErrors := 5
		body, err := json.Marshal(AnalyzeRequestDTO{Categories: []string{"all"}, MaxErrors: &maxErrors})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
		AnalyzeHandler(context.Background(), analyzer, logger)(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "request", analyzer.name)
		assert.Equal(t, classifierModel.AllCategories, analyzer.options.Categories)
		assert.Equal(t, 5, analyzer.options.MaxErrors)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte("{")))
		AnalyzeHandler(context.Background(), &fakeAnalyzer{}, logger)(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		var response ErrorMessage
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, "Invalid request payload", response.Message)
	})

	t.Run("should reject a request without categories", func(t *testing.T) {
		body, err := json.Marshal(AnalyzeRequestDTO{Lines: []string{"line"}})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
		AnalyzeHandler(context.Background(), &fakeAnalyzer{}, logger)(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("should reject an unknown category", func(t *testing.T) {
		body, err := json.Marshal(AnalyzeRequestDTO{Categories: []string{"metrics"}})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
		AnalyzeHandler(context.Background(), &fakeAnalyzer{}, logger)(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("should report analyzer failures as internal errors", func(t *testing.T) {
		body, err := json.Marshal(AnalyzeRequestDTO{Categories: []string{"all"}})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
		AnalyzeHandler(context.Background(), &fakeAnalyzer{err: errors.New("boom")}, logger)(recorder, req)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestReceivedLogsHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("should analyze the buffered lines", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		logBuffer := buffer.NewLogBuffer(10)
		logBuffer.Append([]string{"first", "second"})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/report?categories=database,plugin&max_errors=3", nil)
		ReceivedLogsHandler(context.Background(), analyzer, logBuffer, logger)(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, receivedLogsName, analyzer.name)
		assert.Equal(t, []string{"first", "second"}, analyzer.lines)
		assert.Equal(t, 3, analyzer.options.MaxErrors)
		assert.Equal(
			t,
			[]classifierModel.Category{classifierModel.Database, classifierModel.Plugin},
			analyzer.options.Categories,
		)
	})

	t.Run("should reject a missing category selection", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/report", nil)
		ReceivedLogsHandler(context.Background(), &fakeAnalyzer{}, buffer.NewLogBuffer(1), logger)(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("should reject a non numeric max errors", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/report?categories=all&max_errors=many", nil)
		ReceivedLogsHandler(context.Background(), &fakeAnalyzer{}, buffer.NewLogBuffer(1), logger)(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestRecordsHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("should group stored records by category", func(t *testing.T) {
		store := &fakeRecordStore{
			documents: []exportModel.RecordDocument{
				{Id: "a", RunId: "run-1", Category: "database", Kind: "error", Message: "locked"},
				{Id: "b", RunId: "run-1", Category: "transcoding", Kind: "transcoding", Message: "ffmpeg"},
			},
		}
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/runs/run-1/records", nil)
		req = mux.SetURLVars(req, map[string]string{"runId": "run-1"})
		RecordsHandler(context.Background(), store, logger)(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		var response RecordsResponseDTO
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, "run-1", response.RunId)
		require.Len(t, response.Records["database"], 1)
		assert.Equal(t, "a", response.Records["database"][0].Id)
		require.Len(t, response.Records["transcoding"], 1)
	})

	t.Run("should report store failures as internal errors", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/runs/run-1/records", nil)
		req = mux.SetURLVars(req, map[string]string{"runId": "run-1"})
		RecordsHandler(context.Background(), &fakeRecordStore{err: errors.New("down")}, logger)(recorder, req)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}
