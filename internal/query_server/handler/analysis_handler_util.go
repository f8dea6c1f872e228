package handler

import (
	"fmt"
	exportModel "github.com/Avi18971911/jellylog/internal/export/model"
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	dataProcessorService "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/service"
	reportModel "github.com/Avi18971911/jellylog/internal/report/model"
	"strconv"
	"strings"
)

const defaultMaxErrors = 2

const allCategories = "all"

func toProcessOptions(categories []string, maxErrors *int) (dataProcessorService.ProcessOptions, error) {
	options := dataProcessorService.ProcessOptions{MaxErrors: defaultMaxErrors}
	if maxErrors != nil {
		options.MaxErrors = *maxErrors
	}
	for _, name := range categories {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == allCategories {
			options.Categories = append([]classifierModel.Category{}, classifierModel.AllCategories...)
			continue
		}
		category, ok := classifierModel.ParseCategory(name)
		if !ok {
			return dataProcessorService.ProcessOptions{}, fmt.Errorf("unknown category %q", name)
		}
		options.Categories = append(options.Categories, category)
	}
	if err := dataProcessorService.ValidateOptions(options); err != nil {
		return dataProcessorService.ProcessOptions{}, err
	}
	return options, nil
}

func parseMaxErrors(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	maxErrors, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("max_errors must be a number: %w", err)
	}
	return &maxErrors, nil
}

func mapReportToDTO(report reportModel.Report) ReportDTO {
	categories := make([]string, len(report.Categories))
	records := make(map[string][]RecordDTO, len(report.Categories))
	for i, category := range report.Categories {
		categories[i] = string(category)
		events := report.Records[category]
		dtos := make([]RecordDTO, len(events))
		for j, event := range events {
			dtos[j] = eventToRecordDTO(event)
		}
		records[string(category)] = dtos
	}
	return ReportDTO{
		RunId:       report.RunId,
		GeneratedAt: report.GeneratedAt,
		Files:       report.Files,
		Categories:  categories,
		Records:     records,
		Total:       report.Total(),
		Warnings:    report.Warnings,
	}
}

func eventToRecordDTO(event dataModel.ClassifiedEvent) RecordDTO {
	return RecordDTO{
		File:       event.File,
		LineNumber: event.LineNumber,
		Kind:       string(event.Kind),
		Timestamp:  event.Entry.Timestamp,
		Instant:    event.Instant,
		Level:      event.Entry.Level,
		Category:   event.Entry.Category,
		Message:    event.Entry.Message,
		Exception:  event.Entry.Exception,
		Details:    event.Details,
	}
}

func mapRecordDocumentsToDTO(runId string, documents []exportModel.RecordDocument) RecordsResponseDTO {
	records := make(map[string][]RecordDTO)
	for _, document := range documents {
		records[document.Category] = append(records[document.Category], RecordDTO{
			Id:         document.Id,
			File:       document.File,
			LineNumber: document.LineNumber,
			Kind:       document.Kind,
			Timestamp:  document.Timestamp,
			Instant:    document.Instant,
			Level:      document.Level,
			Category:   document.SourceCategory,
			Message:    document.Message,
			Exception:  document.Exception,
			Details:    document.Details,
		})
	}
	return RecordsResponseDTO{RunId: runId, Records: records}
}
