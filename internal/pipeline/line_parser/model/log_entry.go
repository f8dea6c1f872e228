package model

// LogEntry is one parsed line of a log source. Fields that a format does not carry are empty.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Exception string `json:"exception"`
	RawLine   string `json:"raw_line"`
}
