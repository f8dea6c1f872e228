package service

import (
	"context"
	"fmt"
	logSourceModel "github.com/Avi18971911/jellylog/internal/log_source/model"
	logSourceService "github.com/Avi18971911/jellylog/internal/log_source/service"
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	classifierService "github.com/Avi18971911/jellylog/internal/pipeline/classifier/service"
	contextService "github.com/Avi18971911/jellylog/internal/pipeline/context_correlator/service"
	"github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	detailService "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/service"
	lineService "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/service"
	sessionService "github.com/Avi18971911/jellylog/internal/pipeline/session/service"
	timestampService "github.com/Avi18971911/jellylog/internal/pipeline/timestamp/service"
	"go.uber.org/zap"
	"sync"
	"time"
)

// ProcessOptions selects what a run reports. MaxErrors caps every plain-error category.
type ProcessOptions struct {
	Categories []classifierModel.Category
	MaxErrors  int
}

func (po ProcessOptions) Selected(category classifierModel.Category) bool {
	for _, selected := range po.Categories {
		if selected == category {
			return true
		}
	}
	return false
}

type DataProcessorService struct {
	reader     logSourceService.LogReader
	parser     lineService.LineParser
	classifier classifierService.EventClassifier
	extractor  detailService.DetailExtractor
	sessions   sessionService.SessionCorrelator
	logger     *zap.Logger
}

func NewDataProcessorService(
	reader logSourceService.LogReader,
	parser lineService.LineParser,
	classifier classifierService.EventClassifier,
	extractor detailService.DetailExtractor,
	sessions sessionService.SessionCorrelator,
	logger *zap.Logger,
) *DataProcessorService {
	return &DataProcessorService{
		reader:     reader,
		parser:     parser,
		classifier: classifier,
		extractor:  extractor,
		sessions:   sessions,
		logger:     logger,
	}
}

// ProcessSource reads one log file and analyzes it. A file that cannot be read yields an analysis
// carrying a warning so that the remaining sources are still reported.
func (dps *DataProcessorService) ProcessSource(
	ctx context.Context,
	source logSourceModel.Source,
	options ProcessOptions,
) (model.FileAnalysis, error) {
	lines, err := dps.reader.ReadLines(ctx, source.Path)
	if err != nil {
		if ctx.Err() != nil {
			return model.FileAnalysis{}, fmt.Errorf("failed to process %s: %w", source.Path, err)
		}
		dps.logger.Warn("Could not read log file", zap.String("file", source.Path), zap.Error(err))
		return model.FileAnalysis{
			SourceIndex: source.Index,
			File:        source.Path,
			Errors:      make(map[classifierModel.Category][]model.ClassifiedEvent),
			Warning:     fmt.Sprintf("could not read %s: %v", source.Path, err),
		}, nil
	}
	return dps.ProcessLines(source.Index, source.Path, lines, options), nil
}

// ProcessLines classifies every line of one source. Entries are parsed first so that context
// correlation can look at the whole source, then transcoding events are grouped into sessions.
func (dps *DataProcessorService) ProcessLines(
	sourceIndex int,
	file string,
	lines []string,
	options ProcessOptions,
) model.FileAnalysis {
	entries, lineNumbers := lineService.ParseLines(dps.parser, lines)
	correlator := contextService.NewContextCorrelator(entries, lineNumbers, dps.extractor, dps.logger)

	analysis := model.FileAnalysis{
		SourceIndex: sourceIndex,
		File:        file,
		EntryCount:  len(entries),
		Errors:      make(map[classifierModel.Category][]model.ClassifiedEvent),
	}
	var transcodingEvents []model.ClassifiedEvent
	wantSessions := options.Selected(classifierModel.Transcoding)
	wantDirectStreams := options.Selected(classifierModel.DirectStream)

	for i, entry := range entries {
		event := model.ClassifiedEvent{
			File:       file,
			LineNumber: lineNumbers[i],
			Entry:      entry,
			Instant:    timestampService.InstantOf(entry.Timestamp),
		}
		switch dps.classifier.Classify(entry) {
		case classifierModel.TranscodingEvent:
			if wantSessions {
				streamEvent := event
				streamEvent.Kind = classifierModel.TranscodingEvent
				streamEvent.Details = correlator.Correlate(i)
				transcodingEvents = append(transcodingEvents, streamEvent)
			}
		case classifierModel.DirectStreamEvent:
			if wantDirectStreams {
				streamEvent := event
				streamEvent.Kind = classifierModel.DirectStreamEvent
				streamEvent.Details = correlator.Correlate(i)
				analysis.DirectStreams = append(analysis.DirectStreams, streamEvent)
			}
		}

		// An error line is reported in its categories even when it also carries a stream marker.
		if !dps.classifier.IsError(entry) {
			continue
		}
		event.Kind = classifierModel.ErrorEvent
		for _, category := range dps.classifier.Categorize(entry, options.Categories) {
			if len(analysis.Errors[category]) < options.MaxErrors {
				analysis.Errors[category] = append(analysis.Errors[category], event)
			}
		}
	}

	analysis.Sessions = dps.sessions.Correlate(transcodingEvents)
	dps.logger.Info(
		"Processed log source",
		zap.String("file", file),
		zap.Int("entries", len(entries)),
		zap.Int("transcoding_events", len(transcodingEvents)),
		zap.Int("sessions", len(analysis.Sessions)),
		zap.Int("direct_stream_events", len(analysis.DirectStreams)),
	)
	return analysis
}

func GetResultsWithWorkers[
	inputType any,
	outputType any,
](
	ctx context.Context,
	input []inputType,
	inputFunction func(ctx context.Context, input inputType) (outputType, string, error),
	workerCount int,
	timeout time.Duration,
	logger *zap.Logger,
) chan outputType {
	inputChannel := make(chan inputType, len(input))
	for _, item := range input {
		inputChannel <- item
	}
	close(inputChannel)

	workerCount = max(1, min(workerCount, len(input)))
	var wg sync.WaitGroup
	wg.Add(workerCount)

	resultChannel := make(
		chan outputType,
		len(input),
	)

	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for input := range inputChannel {
				csCtx, csCancel := withOptionalTimeout(ctx, timeout)
				result, errorMsg, err := inputFunction(csCtx, input)
				if err != nil {
					logger.Error(errorMsg, zap.Error(err))
				} else {
					resultChannel <- result
				}
				csCancel()
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChannel)
	}()

	return resultChannel
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func ValidateOptions(options ProcessOptions) error {
	if len(options.Categories) == 0 {
		return ErrNoCategories
	}
	if options.MaxErrors < 0 {
		return fmt.Errorf("max errors must not be negative, got %d", options.MaxErrors)
	}
	return nil
}
