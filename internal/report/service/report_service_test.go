package service

import (
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	detailModel "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	lineModel "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/model"
	"github.com/Avi18971911/jellylog/internal/report/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleReport() model.Report {
	return model.Report{
		RunId:       "run-1",
		GeneratedAt: time.Date(2025, 9, 25, 8, 30, 0, 0, time.UTC),
		Files:       []string{"/var/log/jellyfin/a.log", "/var/log/jellyfin/b.log"},
		Categories:  []classifierModel.Category{classifierModel.Networking, classifierModel.Transcoding},
		Records: map[classifierModel.Category][]dataModel.ClassifiedEvent{
			classifierModel.Networking: nil,
			classifierModel.Transcoding: {
				{
					File:       "/var/log/jellyfin/a.log",
					LineNumber: 10,
					Entry: lineModel.LogEntry{
						Timestamp: "2025-09-25 00:43:10.000 -04:00",
						Level:     "INF",
						Message:   "Transcoding started",
						RawLine:   "[2025-09-25 00:43:10.000 -04:00] [INF] Transcoding started",
					},
					Kind: classifierModel.TranscodingEvent,
					Details: detailModel.EventDetails{
						detailModel.LineRange:        "10-25",
						detailModel.TimeRange:        "2025-09-25T04:43:10Z - 2025-09-25T04:43:20Z",
						detailModel.Client:           "Jellyfin Web",
						detailModel.PrimaryReasons:   "Client requires H.264 video",
						detailModel.TechnicalDetails: "Video encoder: libx264",
					},
				},
				{
					File:       "/var/log/jellyfin/b.log",
					LineNumber: 3,
					Entry: lineModel.LogEntry{
						Level:     "ERR",
						Message:   "Transcode failed",
						Exception: "System.Exception: exit 1",
						RawLine:   "[ERR] Transcode failed",
					},
					Kind: classifierModel.ErrorEvent,
				},
			},
		},
		Warnings: []string{"could not read /var/log/jellyfin/c.log"},
	}
}

func TestRender(t *testing.T) {
	rs := NewReportService(zap.NewNop())

	t.Run("should write the header and every selected category", func(t *testing.T) {
		text := rs.Render(sampleReport())
		assert.True(t, strings.HasPrefix(text, "JELLYFIN LOG ANALYSIS REPORT\n"+strings.Repeat("=", 50)+"\n"))
		assert.Contains(t, text, "Generated: 2025-09-25 08:30:00\n")
		assert.Contains(t, text, "Log files analyzed: /var/log/jellyfin/a.log, /var/log/jellyfin/b.log\n")
		assert.Contains(t, text, "Warning: could not read /var/log/jellyfin/c.log\n")
		assert.Contains(t, text, "\nNETWORKING ERRORS\n"+strings.Repeat("-", 30)+"\nNo errors found in this category.\n")
		assert.Less(t, strings.Index(text, "NETWORKING ERRORS"), strings.Index(text, "TRANSCODING ERRORS"))
	})

	t.Run("should show session details and ranges", func(t *testing.T) {
		text := rs.Render(sampleReport())
		assert.Contains(t, text, "\nTranscoding session #1:\nFile: /var/log/jellyfin/a.log\nLine: 10\nLines: 10-25\n")
		assert.Contains(t, text, "Time range: 2025-09-25T04:43:10Z - 2025-09-25T04:43:20Z\n")
		assert.Contains(t, text, "Details:\n  client: Jellyfin Web\n")
		assert.Contains(t, text, "Transcode reasons: Client requires H.264 video\n")
		assert.Contains(t, text, "Technical details: Video encoder: libx264\n")
	})

	t.Run("should show the exception of an error record", func(t *testing.T) {
		text := rs.Render(sampleReport())
		assert.Contains(t, text, "\nError #2:\n")
		assert.Contains(t, text, "Exception: System.Exception: exit 1\nRaw line: [ERR] Transcode failed\n"+strings.Repeat("-", 50)+"\n")
	})

	t.Run("should say so when no category was selected", func(t *testing.T) {
		text := rs.Render(model.Report{})
		assert.True(t, strings.HasSuffix(text, "No errors found matching the specified criteria.\n"))
	})
}

func TestWriteReport(t *testing.T) {
	rs := NewReportService(zap.NewNop())

	t.Run("should write the rendered report to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "jellyfin_errors.txt")
		require.NoError(t, rs.WriteReport(sampleReport(), path))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, rs.Render(sampleReport()), string(content))
	})

	t.Run("should return an error for an unwritable destination", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "jellyfin_errors.txt")
		err := rs.WriteReport(sampleReport(), path)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestSummary(t *testing.T) {
	rs := NewReportService(zap.NewNop())

	t.Run("should count records per category and point to the report", func(t *testing.T) {
		summary := rs.Summary(sampleReport(), "jellyfin_errors.txt")
		assert.Contains(t, summary, "Total errors found: ")
		assert.Contains(t, summary, "networking: ")
		assert.Contains(t, summary, "transcoding: ")
		assert.Contains(t, summary, "Detailed report saved to: jellyfin_errors.txt")
	})

	t.Run("should tell the user when nothing was found", func(t *testing.T) {
		report := model.Report{Categories: []classifierModel.Category{classifierModel.Database}}
		summary := rs.Summary(report, "jellyfin_errors.txt")
		assert.Contains(t, summary, "No errors found matching the specified criteria.")
		assert.NotContains(t, summary, "Detailed report saved to")
	})
}
