package service

import (
	"context"
	"errors"
	"fmt"
	logSourceModel "github.com/Avi18971911/jellylog/internal/log_source/model"
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	"github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	dataProcessorService "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/service"
	"github.com/Avi18971911/jellylog/internal/pipeline/event_bus"
	reportModel "github.com/Avi18971911/jellylog/internal/report/model"
	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"sort"
	"sync"
	"time"
)

const fileAnalysisTopic = "file_analysis"

type DataPipeline struct {
	dataProcessorService *dataProcessorService.DataProcessorService
	workerCount          int
	now                  func() time.Time
	logger               *zap.Logger
}

func NewDataPipeline(
	dataProcessorService *dataProcessorService.DataProcessorService,
	workerCount int,
	logger *zap.Logger,
) *DataPipeline {
	return &DataPipeline{
		dataProcessorService: dataProcessorService,
		workerCount:          workerCount,
		now:                  time.Now,
		logger:               logger,
	}
}

// Analyze processes every source on a worker pool and aggregates the per-file results into one
// report. Sources that cannot be read are listed as warnings; the returned error only reports
// invalid options or a cancelled context.
func (dp *DataPipeline) Analyze(
	ctx context.Context,
	sources []logSourceModel.Source,
	options dataProcessorService.ProcessOptions,
) (reportModel.Report, error) {
	if err := dataProcessorService.ValidateOptions(options); err != nil {
		return reportModel.Report{}, fmt.Errorf("failed to validate analysis options: %w", err)
	}

	bus := event_bus.NewJellylogEventBus[model.FileAnalysis, model.FileAnalysis](EventBus.New(), dp.logger)
	var mu sync.Mutex
	analyses := make([]model.FileAnalysis, 0, len(sources))
	err := bus.Subscribe(
		fileAnalysisTopic,
		func(input model.FileAnalysis) error {
			mu.Lock()
			defer mu.Unlock()
			analyses = append(analyses, input)
			return nil
		},
		true,
	)
	if err != nil {
		return reportModel.Report{}, fmt.Errorf("failed to subscribe to file analyses: %w", err)
	}

	results := dataProcessorService.GetResultsWithWorkers(
		ctx,
		sources,
		func(ctx context.Context, source logSourceModel.Source) (model.FileAnalysis, string, error) {
			analysis, err := dp.dataProcessorService.ProcessSource(ctx, source, options)
			return analysis, "Failed to process log source", err
		},
		dp.workerCount,
		0,
		dp.logger,
	)
	for analysis := range results {
		if err := bus.Publish(fileAnalysisTopic, analysis); err != nil {
			dp.logger.Error("Failed to publish file analysis", zap.String("file", analysis.File), zap.Error(err))
		}
	}
	bus.WaitAsync()

	if err := ctx.Err(); err != nil {
		return reportModel.Report{}, fmt.Errorf("failed to analyze log sources: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].SourceIndex < analyses[j].SourceIndex
	})
	return dp.aggregate(analyses, options), nil
}

// AnalyzeLines builds a report for lines that did not come from a file, such as posted or
// received log records.
func (dp *DataPipeline) AnalyzeLines(
	name string,
	lines []string,
	options dataProcessorService.ProcessOptions,
) (reportModel.Report, error) {
	if err := dataProcessorService.ValidateOptions(options); err != nil {
		return reportModel.Report{}, fmt.Errorf("failed to validate analysis options: %w", err)
	}
	analysis := dp.dataProcessorService.ProcessLines(0, name, lines, options)
	return dp.aggregate([]model.FileAnalysis{analysis}, options), nil
}

func (dp *DataPipeline) aggregate(
	analyses []model.FileAnalysis,
	options dataProcessorService.ProcessOptions,
) reportModel.Report {
	report := reportModel.Report{
		RunId:       uuid.NewString(),
		GeneratedAt: dp.now(),
		Files:       make([]string, 0, len(analyses)),
		Categories:  orderedCategories(options.Categories),
		Records:     make(map[classifierModel.Category][]model.ClassifiedEvent),
	}

	var warnings error
	var sessions, directStreams []model.ClassifiedEvent
	for _, analysis := range analyses {
		report.Files = append(report.Files, analysis.File)
		report.Entries += analysis.EntryCount
		if analysis.Warning != "" {
			warnings = multierr.Append(warnings, errors.New(analysis.Warning))
		}
		sessions = append(sessions, analysis.Sessions...)
		directStreams = append(directStreams, analysis.DirectStreams...)
	}
	for _, warning := range multierr.Errors(warnings) {
		report.Warnings = append(report.Warnings, warning.Error())
	}

	for _, category := range report.Categories {
		switch category {
		case classifierModel.DirectStream:
			model.SortNewestFirst(directStreams)
			report.Records[category] = capEvents(directStreams, reportModel.MaxSessions)
		case classifierModel.Transcoding:
			model.SortNewestFirst(sessions)
			records := capEvents(sessions, reportModel.MaxSessions)
			records = append(records, firstErrors(analyses, category, options.MaxErrors)...)
			report.Records[category] = records
		default:
			report.Records[category] = firstErrors(analyses, category, options.MaxErrors)
		}
	}

	dp.logger.Info(
		"Aggregated analysis",
		zap.String("run_id", report.RunId),
		zap.Int("files", len(report.Files)),
		zap.Int("entries", report.Entries),
		zap.Int("records", report.Total()),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report
}

// firstErrors keeps the first limit errors of a category in source order and then shows them
// newest first.
func firstErrors(analyses []model.FileAnalysis, category classifierModel.Category, limit int) []model.ClassifiedEvent {
	var events []model.ClassifiedEvent
	for _, analysis := range analyses {
		events = append(events, analysis.Errors[category]...)
	}
	events = capEvents(events, limit)
	model.SortNewestFirst(events)
	return events
}

func capEvents(events []model.ClassifiedEvent, limit int) []model.ClassifiedEvent {
	if len(events) > limit {
		events = events[:limit]
	}
	return append([]model.ClassifiedEvent{}, events...)
}

// orderedCategories de-duplicates the selection and puts it in report order.
func orderedCategories(selected []classifierModel.Category) []classifierModel.Category {
	wanted := make(map[classifierModel.Category]bool, len(selected))
	for _, category := range selected {
		wanted[category] = true
	}
	var ordered []classifierModel.Category
	for _, category := range classifierModel.AllCategories {
		if wanted[category] {
			ordered = append(ordered, category)
		}
	}
	return ordered
}
