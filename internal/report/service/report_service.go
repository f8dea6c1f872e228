package service

import (
	"fmt"
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	detailModel "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	"github.com/Avi18971911/jellylog/internal/report/model"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"os"
	"strings"
)

const generatedLayout = "2006-01-02 15:04:05"

// detailDisplayOrder lists the extracted fields shown under a record, in display order.
var detailDisplayOrder = []string{
	detailModel.PlayMethod,
	detailModel.User,
	detailModel.Username,
	detailModel.EventUserId,
	detailModel.SessionUserId,
	detailModel.Client,
	detailModel.Device,
	detailModel.Media,
	detailModel.ItemId,
	detailModel.SessionId,
	detailModel.PositionTicks,
}

var (
	styleTitle = lipgloss.NewStyle().Bold(true)
	styleFound = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleClean = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

type ReportService interface {
	// Render formats the report as plain text.
	Render(report model.Report) string
	// WriteReport renders the report into a file, replacing its content.
	WriteReport(report model.Report, path string) error
	// Summary is a short styled overview for the console.
	Summary(report model.Report, path string) string
}

type ReportServiceImpl struct {
	logger *zap.Logger
}

func NewReportService(logger *zap.Logger) ReportService {
	return &ReportServiceImpl{logger: logger}
}

func (rs *ReportServiceImpl) Render(report model.Report) string {
	var sb strings.Builder
	sb.WriteString("JELLYFIN LOG ANALYSIS REPORT\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&sb, "Generated: %s\n", report.GeneratedAt.Format(generatedLayout))
	fmt.Fprintf(&sb, "Log files analyzed: %s\n", strings.Join(report.Files, ", "))
	if report.RunId != "" {
		fmt.Fprintf(&sb, "Run: %s\n", report.RunId)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(&sb, "Warning: %s\n", warning)
	}
	sb.WriteString("\n")

	if len(report.Categories) == 0 {
		sb.WriteString("No errors found matching the specified criteria.\n")
		return sb.String()
	}

	for _, category := range report.Categories {
		fmt.Fprintf(&sb, "\n%s ERRORS\n", strings.ToUpper(string(category)))
		sb.WriteString(strings.Repeat("-", 30) + "\n")

		records := report.Records[category]
		if len(records) == 0 {
			sb.WriteString("No errors found in this category.\n")
			continue
		}
		for i, record := range records {
			writeRecord(&sb, i+1, record)
		}
	}
	return sb.String()
}

func writeRecord(sb *strings.Builder, number int, record dataModel.ClassifiedEvent) {
	entry := record.Entry
	fmt.Fprintf(sb, "\n%s #%d:\n", recordLabel(record.Kind), number)
	fmt.Fprintf(sb, "File: %s\n", record.File)
	fmt.Fprintf(sb, "Line: %d\n", record.LineNumber)
	if lineRange := record.Details[detailModel.LineRange]; lineRange != "" {
		fmt.Fprintf(sb, "Lines: %s\n", lineRange)
	}
	fmt.Fprintf(sb, "Timestamp: %s\n", entry.Timestamp)
	if timeRange := record.Details[detailModel.TimeRange]; timeRange != "" {
		fmt.Fprintf(sb, "Time range: %s\n", timeRange)
	}
	fmt.Fprintf(sb, "Level: %s\n", entry.Level)
	fmt.Fprintf(sb, "Category: %s\n", entry.Category)
	fmt.Fprintf(sb, "Message: %s\n", entry.Message)
	if entry.Exception != "" {
		fmt.Fprintf(sb, "Exception: %s\n", entry.Exception)
	}

	var details []string
	for _, key := range detailDisplayOrder {
		if value := record.Details[key]; value != "" {
			details = append(details, fmt.Sprintf("  %s: %s", key, value))
		}
	}
	if len(details) > 0 {
		sb.WriteString("Details:\n")
		sb.WriteString(strings.Join(details, "\n") + "\n")
	}
	if reasons := record.Details[detailModel.PrimaryReasons]; reasons != "" {
		fmt.Fprintf(sb, "Transcode reasons: %s\n", reasons)
	}
	if technical := record.Details[detailModel.TechnicalDetails]; technical != "" {
		fmt.Fprintf(sb, "Technical details: %s\n", technical)
	}

	fmt.Fprintf(sb, "Raw line: %s\n", entry.RawLine)
	sb.WriteString(strings.Repeat("-", 50) + "\n")
}

func recordLabel(kind classifierModel.EventKind) string {
	switch kind {
	case classifierModel.TranscodingEvent:
		return "Transcoding session"
	case classifierModel.DirectStreamEvent:
		return "Direct stream"
	default:
		return "Error"
	}
}

func (rs *ReportServiceImpl) WriteReport(report model.Report, path string) error {
	err := os.WriteFile(path, []byte(rs.Render(report)), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	rs.logger.Info("Report saved", zap.String("path", path), zap.Int("records", report.Total()))
	return nil
}

func (rs *ReportServiceImpl) Summary(report model.Report, path string) string {
	var sb strings.Builder
	sb.WriteString(styleTitle.Render("Summary:") + "\n")
	total := report.Total()
	fmt.Fprintf(&sb, "Total errors found: %s\n", countStyle(total).Render(fmt.Sprint(total)))
	for _, category := range report.Categories {
		count := report.Count(category)
		fmt.Fprintf(&sb, "  %s: %s errors\n", category, countStyle(count).Render(fmt.Sprint(count)))
	}
	for _, warning := range report.Warnings {
		sb.WriteString(styleWarn.Render("Warning: "+warning) + "\n")
	}
	if total > 0 {
		fmt.Fprintf(&sb, "\nDetailed report saved to: %s\n", path)
	} else {
		sb.WriteString("\nNo errors found matching the specified criteria.\n")
	}
	return sb.String()
}

func countStyle(count int) lipgloss.Style {
	if count > 0 {
		return styleFound
	}
	return styleClean
}
