package service

import (
	"fmt"
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	contextService "github.com/Avi18971911/jellylog/internal/pipeline/context_correlator/service"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	detailModel "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	"github.com/Avi18971911/jellylog/internal/pipeline/session/model"
	timestampService "github.com/Avi18971911/jellylog/internal/pipeline/timestamp/service"
	"go.uber.org/zap"
	"time"
)

const (
	proximityWindow   = 30 * time.Second
	sharedIdWindow    = 5 * time.Minute
	maxDisplaySpan    = 10 * time.Minute
	maxDisplayLines   = 1000
	lineSummaryLength = 10
)

type SessionCorrelator interface {
	// Correlate groups transcoding events into sessions and returns one representative record per
	// session, newest first.
	Correlate(events []dataModel.ClassifiedEvent) []dataModel.ClassifiedEvent
}

type SessionCorrelatorImpl struct {
	logger *zap.Logger
}

func NewSessionCorrelator(logger *zap.Logger) SessionCorrelator {
	return &SessionCorrelatorImpl{logger: logger}
}

func (sc *SessionCorrelatorImpl) Correlate(events []dataModel.ClassifiedEvent) []dataModel.ClassifiedEvent {
	if len(events) == 0 {
		return nil
	}
	arena := model.NewArena()
	provisional := sc.group(arena, events)
	accepted := sc.merge(arena, provisional)

	records := make([]dataModel.ClassifiedEvent, 0, len(accepted))
	for _, handle := range accepted {
		records = append(records, finalize(arena.Get(handle), events))
	}
	dataModel.SortNewestFirst(records)
	sc.logger.Debug(
		"Correlated transcoding sessions",
		zap.Int("events", len(events)),
		zap.Int("provisional_sessions", len(provisional)),
		zap.Int("sessions", len(records)),
	)
	return records
}

func (sc *SessionCorrelatorImpl) group(arena *model.Arena, events []dataModel.ClassifiedEvent) []model.Handle {
	synthetic := 0
	for i, event := range events {
		identity, ok := identityOf(event)
		if !ok {
			synthetic++
			identity = fmt.Sprintf("synthetic:%d", synthetic)
		}
		session := arena.Get(arena.Open(identity))
		session.Events = append(session.Events, i)
		session.Widen(event.Instant)
		if file := MediaFileName(event.Entry.Message); file != "" {
			session.Files[file] = true
		}
		if id := structuredId(event.Details); id != "" {
			session.Ids[id] = true
		}
		if id := rawId(event.Entry.Message); id != "" {
			session.Ids[id] = true
		}
	}
	return arena.Live()
}

func identityOf(event dataModel.ClassifiedEvent) (string, bool) {
	for _, rule := range identityRules {
		if key, ok := rule.key(event); ok {
			return key, true
		}
	}
	return "", false
}

// merge compares each provisional session against the sessions accepted so far and folds it into
// the first one it matches.
func (sc *SessionCorrelatorImpl) merge(arena *model.Arena, provisional []model.Handle) []model.Handle {
	var accepted []model.Handle
	for _, candidate := range provisional {
		merged := false
		for _, target := range accepted {
			if ShouldMerge(arena.Get(target), arena.Get(candidate)) {
				arena.Absorb(target, candidate)
				merged = true
				break
			}
		}
		if !merged {
			accepted = append(accepted, candidate)
		}
	}
	return accepted
}

// ShouldMerge requires both latest instants to be within the proximity window before any
// file or identifier evidence is considered.
func ShouldMerge(a *model.Session, b *model.Session) bool {
	if a.Latest == nil || b.Latest == nil {
		return false
	}
	gap := absDuration(a.Latest.Sub(*b.Latest))
	if gap > proximityWindow {
		return false
	}
	if a.HasFile() && b.HasFile() && a.SharesFileWith(b) {
		return true
	}
	if (a.HasFile() && b.HasId()) || (a.HasId() && b.HasFile()) {
		return true
	}
	return a.HasId() && b.HasId() && a.SharesIdWith(b) && gap <= sharedIdWindow
}

func finalize(session *model.Session, events []dataModel.ClassifiedEvent) dataModel.ClassifiedEvent {
	builder := detailModel.NewDetailsBuilder()
	builder.SetIfAbsent(detailModel.LineRange, sessionLineRange(session, events))
	builder.SetIfAbsent(detailModel.TimeRange, SessionTimeRange(session.Earliest, session.Latest))
	for _, index := range session.Events {
		builder.Merge(events[index].Details)
	}

	representative := events[session.Events[0]]
	representative.Instant = session.Latest
	representative.Kind = classifierModel.TranscodingEvent
	representative.Details = builder.Build()
	return representative
}

func sessionLineRange(session *model.Session, events []dataModel.ClassifiedEvent) string {
	first := events[session.Events[0]].LineNumber
	last := first
	for _, index := range session.Events {
		first = min(first, events[index].LineNumber)
		last = max(last, events[index].LineNumber)
	}
	return SummarizeLineRange(first, last)
}

// SummarizeLineRange shows only the ends of spans wider than maxDisplayLines.
func SummarizeLineRange(first int, last int) string {
	if last-first <= maxDisplayLines {
		return contextService.FormatLineRange(first, last)
	}
	return fmt.Sprintf(
		"%d-%d ... %d-%d",
		first, first+lineSummaryLength-1,
		last-lineSummaryLength+1, last,
	)
}

// SessionTimeRange collapses spans wider than maxDisplaySpan to the latest instant.
func SessionTimeRange(earliest *time.Time, latest *time.Time) string {
	if latest == nil {
		return ""
	}
	if earliest == nil || earliest.Equal(*latest) || latest.Sub(*earliest) > maxDisplaySpan {
		return timestampService.CanonicalString(*latest)
	}
	return timestampService.CanonicalString(*earliest) + " - " + timestampService.CanonicalString(*latest)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
