package model

import (
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	"time"
)

// MaxSessions caps the transcoding sessions and direct stream events of a report.
const MaxSessions = 10

// Report is the outcome of one analysis run. Records holds, per selected category, the
// events to show in display order.
// @swagger:model
type Report struct {
	RunId       string                                                   `json:"run_id"`
	GeneratedAt time.Time                                                `json:"generated_at"`
	Files       []string                                                 `json:"files"`
	Categories  []classifierModel.Category                               `json:"categories"`
	Records     map[classifierModel.Category][]dataModel.ClassifiedEvent `json:"records"`
	Entries     int                                                      `json:"entries"`
	Warnings    []string                                                 `json:"warnings,omitempty"`
}

func (r Report) Total() int {
	total := 0
	for _, records := range r.Records {
		total += len(records)
	}
	return total
}

func (r Report) Count(category classifierModel.Category) int {
	return len(r.Records[category])
}
