package service

import (
	"fmt"
	detailModel "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	detailService "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/service"
	lineModel "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/model"
	"go.uber.org/zap"
	"strconv"
)

const (
	TimestampWindow = 20
	UsernameWindow  = 1000
)

type ContextCorrelator interface {
	// Correlate returns the details of the entry at index enriched with neighbouring entries that share
	// its exact timestamp and with a username resolved from nearby user data sync lines.
	Correlate(index int) detailModel.EventDetails
}

type ContextCorrelatorImpl struct {
	entries     []lineModel.LogEntry
	lineNumbers []int
	extractor   detailService.DetailExtractor
	usernames   *UsernameIndex
	logger      *zap.Logger
}

func NewContextCorrelator(
	entries []lineModel.LogEntry,
	lineNumbers []int,
	extractor detailService.DetailExtractor,
	logger *zap.Logger,
) ContextCorrelator {
	return &ContextCorrelatorImpl{
		entries:     entries,
		lineNumbers: lineNumbers,
		extractor:   extractor,
		usernames:   NewUsernameIndex(entries),
		logger:      logger,
	}
}

func (cc *ContextCorrelatorImpl) Correlate(index int) detailModel.EventDetails {
	builder := detailModel.NewDetailsBuilder()
	if index < 0 || index >= len(cc.entries) {
		cc.logger.Warn("Entry index out of range", zap.Int("index", index), zap.Int("entries", len(cc.entries)))
		return builder.Build()
	}
	entry := cc.entries[index]
	builder.Merge(cc.extractor.Extract(entry.Message))

	if entry.Timestamp != "" {
		cc.mergeSameTimestamp(index, builder)
	}

	if _, known := builder.Get(detailModel.Username); !known {
		if id := userIdOf(builder); id != "" {
			if name, ok := cc.usernames.Lookup(id, index, UsernameWindow); ok {
				builder.SetIfAbsent(detailModel.Username, name)
			}
		}
	}
	return builder.Build()
}

func (cc *ContextCorrelatorImpl) mergeSameTimestamp(index int, builder *detailModel.DetailsBuilder) {
	timestamp := cc.entries[index].Timestamp
	start := max(0, index-TimestampWindow)
	end := min(len(cc.entries)-1, index+TimestampWindow)

	minLine := cc.lineNumber(index)
	maxLine := minLine
	var timestamps []string
	seen := make(map[string]bool)
	for i := start; i <= end; i++ {
		if cc.entries[i].Timestamp != timestamp {
			continue
		}
		if !seen[cc.entries[i].Timestamp] {
			seen[cc.entries[i].Timestamp] = true
			timestamps = append(timestamps, cc.entries[i].Timestamp)
		}
		if i == index {
			continue
		}
		builder.Merge(cc.extractor.Extract(cc.entries[i].Message))
		line := cc.lineNumber(i)
		minLine = min(minLine, line)
		maxLine = max(maxLine, line)
	}

	builder.SetIfAbsent(detailModel.LineRange, FormatLineRange(minLine, maxLine))
	builder.SetIfAbsent(detailModel.TimeRange, formatTimestamps(timestamps))
}

func (cc *ContextCorrelatorImpl) lineNumber(index int) int {
	if index < len(cc.lineNumbers) {
		return cc.lineNumbers[index]
	}
	return index + 1
}

func userIdOf(builder *detailModel.DetailsBuilder) string {
	if id, ok := builder.Get(detailModel.EventUserId); ok {
		return id
	}
	if id, ok := builder.Get(detailModel.SessionUserId); ok {
		return id
	}
	return ""
}

func FormatLineRange(first int, last int) string {
	if first == last {
		return strconv.Itoa(first)
	}
	return fmt.Sprintf("%d-%d", first, last)
}

func formatTimestamps(timestamps []string) string {
	switch len(timestamps) {
	case 0:
		return ""
	case 1:
		return timestamps[0]
	default:
		return timestamps[0] + " - " + timestamps[len(timestamps)-1]
	}
}
