package server

import (
	"context"
	"github.com/Avi18971911/jellylog/internal/otel_server/log/buffer"
	lineService "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonV1 "go.opentelemetry.io/proto/otlp/common/v1"
	v1 "go.opentelemetry.io/proto/otlp/logs/v1"
	resourceV1 "go.opentelemetry.io/proto/otlp/resource/v1"
	"go.uber.org/zap/zaptest"
	"testing"
	"time"
)

func stringValue(value string) *commonV1.AnyValue {
	return &commonV1.AnyValue{Value: &commonV1.AnyValue_StringValue{StringValue: value}}
}

func TestExport(t *testing.T) {
	instant := time.Date(2025, 9, 25, 4, 43, 16, 386000000, time.UTC)

	t.Run("should turn log records into lines the line parser understands", func(t *testing.T) {
		lb := buffer.NewLogBuffer(10)
		lss := NewLogServiceServerImpl(zaptest.NewLogger(t), lb)
		req := &protoLogs.ExportLogsServiceRequest{
			ResourceLogs: []*v1.ResourceLogs{{
				ScopeLogs: []*v1.ScopeLogs{{
					Scope: &commonV1.InstrumentationScope{Name: "MediaBrowser.MediaEncoding.Transcoding.TranscodeManager"},
					LogRecords: []*v1.LogRecord{{
						TimeUnixNano:   uint64(instant.UnixNano()),
						SeverityNumber: v1.SeverityNumber_SEVERITY_NUMBER_ERROR,
						Body:           stringValue("FFmpeg exited with code 1"),
						Attributes: []*commonV1.KeyValue{
							{Key: "exception.message", Value: stringValue("System.Exception: transcode failed")},
						},
					}},
				}},
			}},
		}

		_, err := lss.Export(context.Background(), req)
		require.Nil(t, err)
		require.Equal(t, 1, lb.Len())

		entry, ok := lineService.NewLineParser().ParseLine(lb.Lines()[0])
		require.True(t, ok)
		assert.Equal(t, "2025-09-25T04:43:16.386Z", entry.Timestamp)
		assert.Equal(t, "Error", entry.Level)
		assert.Equal(t, "FFmpeg exited with code 1", entry.Message)
		assert.Equal(t, "MediaBrowser.MediaEncoding.Transcoding.TranscodeManager", entry.Category)
		assert.Equal(t, "System.Exception: transcode failed", entry.Exception)
	})

	t.Run("should fall back to the service name and the observed time", func(t *testing.T) {
		lb := buffer.NewLogBuffer(10)
		lss := NewLogServiceServerImpl(zaptest.NewLogger(t), lb)
		req := &protoLogs.ExportLogsServiceRequest{
			ResourceLogs: []*v1.ResourceLogs{{
				Resource: &resourceV1.Resource{Attributes: []*commonV1.KeyValue{
					{Key: "service.name", Value: stringValue("jellyfin")},
				}},
				ScopeLogs: []*v1.ScopeLogs{{
					LogRecords: []*v1.LogRecord{{
						ObservedTimeUnixNano: uint64(instant.UnixNano()),
						SeverityText:         "WRN",
						Body:                 stringValue("Slow response"),
					}},
				}},
			}},
		}

		_, err := lss.Export(context.Background(), req)
		require.Nil(t, err)
		entry, ok := lineService.NewLineParser().ParseLine(lb.Lines()[0])
		require.True(t, ok)
		assert.Equal(t, "jellyfin", entry.Category)
		assert.Equal(t, "WRN", entry.Level)
		assert.Equal(t, "2025-09-25T04:43:16.386Z", entry.Timestamp)
	})
}

func TestGetLevel(t *testing.T) {
	t.Run("should map severity numbers onto level names", func(t *testing.T) {
		assert.Equal(t, "Fatal", getLevel(&v1.LogRecord{SeverityNumber: v1.SeverityNumber_SEVERITY_NUMBER_FATAL2}))
		assert.Equal(t, "Error", getLevel(&v1.LogRecord{SeverityNumber: v1.SeverityNumber_SEVERITY_NUMBER_ERROR}))
		assert.Equal(t, "Warning", getLevel(&v1.LogRecord{SeverityNumber: v1.SeverityNumber_SEVERITY_NUMBER_WARN}))
		assert.Equal(t, "Information", getLevel(&v1.LogRecord{SeverityNumber: v1.SeverityNumber_SEVERITY_NUMBER_INFO}))
		assert.Equal(t, "Debug", getLevel(&v1.LogRecord{SeverityNumber: v1.SeverityNumber_SEVERITY_NUMBER_DEBUG}))
		assert.Equal(t, "", getLevel(&v1.LogRecord{}))
	})
}
