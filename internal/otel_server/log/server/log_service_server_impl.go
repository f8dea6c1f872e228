package server

import (
	"context"
	"github.com/Avi18971911/jellylog/internal/otel_server/log/buffer"
	"github.com/goccy/go-json"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonV1 "go.opentelemetry.io/proto/otlp/common/v1"
	v1 "go.opentelemetry.io/proto/otlp/logs/v1"
	"go.uber.org/zap"
	"time"
)

const serviceNameAttribute = "service.name"

var exceptionAttributes = []string{"exception.stacktrace", "exception.message"}

// jsonLine is the compact JSON layout the media server writes with its JSON formatter, so that
// received records go through the same line parser as log files.
type jsonLine struct {
	Timestamp     string `json:"@t,omitempty"`
	Level         string `json:"@l,omitempty"`
	Message       string `json:"@m"`
	SourceContext string `json:"SourceContext,omitempty"`
	Exception     string `json:"@x,omitempty"`
}

type LogServiceServerImpl struct {
	protoLogs.UnimplementedLogsServiceServer
	logBuffer buffer.LogBuffer
	logger    *zap.Logger
}

func NewLogServiceServerImpl(
	logger *zap.Logger,
	logBuffer buffer.LogBuffer,
) *LogServiceServerImpl {
	logger.Info("Creating new LogServiceServerImpl")
	return &LogServiceServerImpl{
		logger:    logger,
		logBuffer: logBuffer,
	}
}

func (lss *LogServiceServerImpl) Export(
	ctx context.Context,
	req *protoLogs.ExportLogsServiceRequest,
) (*protoLogs.ExportLogsServiceResponse, error) {
	for _, resourceLogs := range req.ResourceLogs {
		resourceName := attributeValue(resourceLogs.GetResource().GetAttributes(), serviceNameAttribute)
		for _, scopeLog := range resourceLogs.ScopeLogs {
			sourceContext := scopeLog.GetScope().GetName()
			if sourceContext == "" {
				sourceContext = resourceName
			}
			lines := make([]string, 0, len(scopeLog.LogRecords))
			for _, log := range scopeLog.LogRecords {
				line, err := typeLog(log, sourceContext)
				if err != nil {
					lss.logger.Error("Failed to convert log record", zap.Error(err))
					continue
				}
				lines = append(lines, line)
			}
			lss.logBuffer.Append(lines)
		}
	}
	return &protoLogs.ExportLogsServiceResponse{}, nil
}

func typeLog(log *v1.LogRecord, sourceContext string) (string, error) {
	line := jsonLine{
		Level:         getLevel(log),
		Message:       log.GetBody().GetStringValue(),
		SourceContext: sourceContext,
	}
	timestamp := log.TimeUnixNano
	if timestamp == 0 {
		timestamp = log.ObservedTimeUnixNano
	}
	if timestamp != 0 {
		line.Timestamp = time.Unix(0, int64(timestamp)).UTC().Format(time.RFC3339Nano)
	}
	for _, key := range exceptionAttributes {
		if value := attributeValue(log.Attributes, key); value != "" {
			line.Exception = value
			break
		}
	}
	encoded, err := json.Marshal(line)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func getLevel(log *v1.LogRecord) string {
	if log.SeverityText != "" {
		return log.SeverityText
	}
	switch {
	case log.SeverityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_FATAL:
		return "Fatal"
	case log.SeverityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_ERROR:
		return "Error"
	case log.SeverityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_WARN:
		return "Warning"
	case log.SeverityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_INFO:
		return "Information"
	case log.SeverityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_TRACE:
		return "Debug"
	default:
		return ""
	}
}

func attributeValue(attributes []*commonV1.KeyValue, key string) string {
	for _, attribute := range attributes {
		if attribute.GetKey() == key {
			return attribute.GetValue().GetStringValue()
		}
	}
	return ""
}
