package model

import (
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	detailModel "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	lineModel "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/model"
	"sort"
	"time"
)

// ClassifiedEvent is a parsed entry that matched a classification, located in its source.
// Details is only populated for transcoding and direct stream events.
type ClassifiedEvent struct {
	File       string                    `json:"file"`
	LineNumber int                       `json:"line_number"`
	Entry      lineModel.LogEntry        `json:"entry"`
	Instant    *time.Time                `json:"instant,omitempty"`
	Kind       classifierModel.EventKind `json:"kind"`
	Details    detailModel.EventDetails  `json:"details,omitempty"`
}

// SortNewestFirst orders events by instant descending, keeping encounter order for ties and
// placing events without an instant last.
func SortNewestFirst(events []ClassifiedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Instant, events[j].Instant
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}
