package handler

import (
	"time"
)

// AnalyzeRequestDTO carries raw log lines to analyze
// @swagger:model AnalyzeRequestDTO
type AnalyzeRequestDTO struct {
	// A name for the lines, shown as the analyzed file
	Name string `json:"name"`
	// The raw log lines in source order
	Lines []string `json:"lines"`
	// The categories to report, "all" selects every category
	Categories []string `json:"categories"`
	// The maximum number of errors per category, 2 when omitted
	MaxErrors *int `json:"max_errors,omitempty"`
}

// ReportDTO is the outcome of one analysis
// @swagger:model ReportDTO
type ReportDTO struct {
	RunId       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Files       []string               `json:"files"`
	Categories  []string               `json:"categories"`
	Records     map[string][]RecordDTO `json:"records"`
	Total       int                    `json:"total"`
	Warnings    []string               `json:"warnings,omitempty"`
}

// RecordDTO is one reported error, transcoding session or direct stream
// @swagger:model RecordDTO
type RecordDTO struct {
	Id         string            `json:"id,omitempty"`
	File       string            `json:"file"`
	LineNumber int               `json:"line_number"`
	Kind       string            `json:"kind"`
	Timestamp  string            `json:"timestamp"`
	Instant    *time.Time        `json:"instant,omitempty"`
	Level      string            `json:"level"`
	Category   string            `json:"category"`
	Message    string            `json:"message"`
	Exception  string            `json:"exception,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// RecordsResponseDTO lists the stored records of one run
// @swagger:model RecordsResponseDTO
type RecordsResponseDTO struct {
	RunId   string                 `json:"run_id"`
	Records map[string][]RecordDTO `json:"records"`
}
