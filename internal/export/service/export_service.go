package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"github.com/Avi18971911/jellylog/internal/db/elasticsearch/client"
	"github.com/Avi18971911/jellylog/internal/db/write_buffer"
	"github.com/Avi18971911/jellylog/internal/export/model"
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	reportModel "github.com/Avi18971911/jellylog/internal/report/model"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"time"
)

const maxRecordsPerRun = 10000

type ExportService struct {
	ac     client.JellylogClient
	buffer write_buffer.DatabaseWriteBuffer[model.RecordDocument]
	index  string
	logger *zap.Logger
}

func NewExportService(
	ac client.JellylogClient,
	buffer write_buffer.DatabaseWriteBuffer[model.RecordDocument],
	index string,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		ac:     ac,
		buffer: buffer,
		index:  index,
		logger: logger,
	}
}

// Export stores every record of the report and returns how many documents were written.
func (es *ExportService) Export(ctx context.Context, report reportModel.Report) (int, error) {
	documents := ToRecordDocuments(report)
	if err := es.buffer.WriteToBuffer(ctx, documents); err != nil {
		return 0, fmt.Errorf("failed to export records of run %s: %w", report.RunId, err)
	}
	if err := es.buffer.Flush(ctx); err != nil {
		return 0, fmt.Errorf("failed to export records of run %s: %w", report.RunId, err)
	}
	es.logger.Info(
		"Exported report records",
		zap.String("run_id", report.RunId),
		zap.String("index", es.index),
		zap.Int("documents", len(documents)),
	)
	return len(documents), nil
}

// Records returns the stored records of one run.
func (es *ExportService) Records(ctx context.Context, runId string) ([]model.RecordDocument, error) {
	query, err := json.Marshal(runQuery(runId))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal records query: %w", err)
	}
	size := maxRecordsPerRun
	results, err := es.ac.Search(ctx, string(query), []string{es.index}, &size)
	if err != nil {
		return nil, fmt.Errorf("failed to search records of run %s: %w", runId, err)
	}
	documents := make([]model.RecordDocument, 0, len(results))
	for _, result := range results {
		var document model.RecordDocument
		encoded, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stored record: %w", err)
		}
		if err := json.Unmarshal(encoded, &document); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored record: %w", err)
		}
		documents = append(documents, document)
	}
	return documents, nil
}

func (es *ExportService) CountRecords(ctx context.Context, runId string) (int64, error) {
	query, err := json.Marshal(runQuery(runId))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal count query: %w", err)
	}
	count, err := es.ac.Count(ctx, string(query), []string{es.index})
	if err != nil {
		return 0, fmt.Errorf("failed to count records of run %s: %w", runId, err)
	}
	return count, nil
}

func runQuery(runId string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"run_id": runId,
			},
		},
	}
}

func ToRecordDocuments(report reportModel.Report) []model.RecordDocument {
	var documents []model.RecordDocument
	for _, category := range report.Categories {
		for _, record := range report.Records[category] {
			documents = append(documents, toRecordDocument(report.RunId, report.GeneratedAt, category, record))
		}
	}
	return documents
}

func toRecordDocument(
	runId string,
	createdAt time.Time,
	category classifierModel.Category,
	record dataModel.ClassifiedEvent,
) model.RecordDocument {
	return model.RecordDocument{
		Id:             GenerateRecordId(record, category),
		RunId:          runId,
		CreatedAt:      createdAt.UTC(),
		Category:       string(category),
		Kind:           string(record.Kind),
		File:           record.File,
		LineNumber:     record.LineNumber,
		Timestamp:      record.Entry.Timestamp,
		Instant:        record.Instant,
		Level:          record.Entry.Level,
		SourceCategory: record.Entry.Category,
		Message:        record.Entry.Message,
		Exception:      record.Entry.Exception,
		Details:        record.Details,
	}
}

// GenerateRecordId identifies a record by where it was found, so that exporting the same log
// again overwrites the earlier documents.
func GenerateRecordId(record dataModel.ClassifiedEvent, category classifierModel.Category) string {
	data := fmt.Sprintf(
		"%s:%d:%s:%s:%s",
		record.File,
		record.LineNumber,
		record.Kind,
		category,
		record.Entry.Message,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
