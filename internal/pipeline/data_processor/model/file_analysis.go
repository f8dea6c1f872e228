package model

import (
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
)

// FileAnalysis is the result of processing one log source. Errors are keyed by category in the
// order they were encountered; Sessions are already correlated and sorted newest first.
type FileAnalysis struct {
	SourceIndex   int                                            `json:"source_index"`
	File          string                                         `json:"file"`
	EntryCount    int                                            `json:"entry_count"`
	Errors        map[classifierModel.Category][]ClassifiedEvent `json:"errors"`
	Sessions      []ClassifiedEvent                              `json:"sessions"`
	DirectStreams []ClassifiedEvent                              `json:"direct_streams"`
	Warning       string                                         `json:"warning,omitempty"`
}
