package model

import (
	"time"
)

// RecordDocument is one report record as stored in the search index. A record listed under
// several categories is stored once per category.
type RecordDocument struct {
	Id             string            `json:"_id,omitempty"`
	RunId          string            `json:"run_id"`
	CreatedAt      time.Time         `json:"created_at"`
	Category       string            `json:"category"`
	Kind           string            `json:"kind"`
	File           string            `json:"file"`
	LineNumber     int               `json:"line_number"`
	Timestamp      string            `json:"timestamp"`
	Instant        *time.Time        `json:"instant,omitempty"`
	Level          string            `json:"level"`
	SourceCategory string            `json:"source_category"`
	Message        string            `json:"message"`
	Exception      string            `json:"exception,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}
