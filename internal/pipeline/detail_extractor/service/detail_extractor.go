package service

import (
	"fmt"
	"github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
	"regexp"
	"strings"
)

const detailSeparator = "; "

type DetailExtractor interface {
	// Extract returns the named fields of a message and, when it carries an encoder command line,
	// the analysis of why that command was needed.
	Extract(message string) model.EventDetails
}

type fieldSpec struct {
	key     string
	pattern *regexp.Regexp
}

func textField(key string, aliases ...string) fieldSpec {
	return fieldSpec{
		key: key,
		pattern: regexp.MustCompile(
			`(?i)\b(?:` + strings.Join(aliases, "|") + `)\s*[:=]\s*(?:"([^"]*)"|([^\s,;"&]+))`,
		),
	}
}

func numericField(key string, aliases ...string) fieldSpec {
	return fieldSpec{
		key:     key,
		pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(aliases, "|") + `)\s*[:=]\s*"?(\d+)`),
	}
}

var fieldSpecs = []fieldSpec{
	textField(model.PlayMethod, "play_method", "playmethod"),
	textField(model.EventUserId, "event_user_id"),
	textField(model.SessionUserId, "session_user_id"),
	textField(model.Username, "user_name", "username"),
	textField(model.Client, "session_client_name", "client_name", "clientname", "client"),
	textField(model.Device, "session_device_name", "device_name", "devicename", "device"),
	textField(model.Media, "item_name", "itemname", "media_title", "media"),
	textField(model.ItemId, "event_item_id", "playing_item_id", "item_id", "itemid"),
	textField(model.SessionId, "play_session_id", "playsessionid", "session_id", "sessionid"),
	numericField(model.PositionTicks, "position_ticks", "positionticks"),
}

type DetailExtractorImpl struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

func NewDetailExtractor(cache *ristretto.Cache, logger *zap.Logger) DetailExtractor {
	return &DetailExtractorImpl{
		cache:  cache,
		logger: logger,
	}
}

// NewExtractionCache builds the cache that memoises extraction results per message body.
func NewExtractionCache() (*ristretto.Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction cache: %w", err)
	}
	return cache, nil
}

func (de *DetailExtractorImpl) Extract(message string) model.EventDetails {
	if de.cache != nil {
		if cached, found := de.cache.Get(message); found {
			if details, ok := cached.(model.EventDetails); ok {
				return details.Copy()
			}
			de.logger.Warn("Unexpected value type in extraction cache", zap.String("type", fmt.Sprintf("%T", cached)))
		}
	}
	details := ExtractDetails(message)
	if de.cache != nil {
		de.cache.Set(message, details.Copy(), 1)
	}
	return details
}

func ExtractDetails(message string) model.EventDetails {
	builder := model.NewDetailsBuilder()
	for _, spec := range fieldSpecs {
		builder.SetIfAbsent(spec.key, firstFieldValue(spec.pattern, message))
	}
	for _, key := range []string{model.Username, model.EventUserId, model.SessionUserId} {
		if value, ok := builder.Get(key); ok {
			builder.SetIfAbsent(model.User, value)
			break
		}
	}

	if command := FindCommand(message); command != "" {
		analysis := AnalyzeCommand(command)
		builder.SetIfAbsent(model.FfmpegCommand, command)
		builder.SetIfAbsent(model.PrimaryReasons, strings.Join(analysis.PrimaryReasons, detailSeparator))
		builder.SetIfAbsent(model.TechnicalDetails, strings.Join(analysis.TechnicalDetails, detailSeparator))
		combined := append(append([]string{}, analysis.PrimaryReasons...), analysis.TechnicalDetails...)
		builder.SetIfAbsent(model.Combined, strings.Join(combined, detailSeparator))
	}
	return builder.Build()
}

func firstFieldValue(pattern *regexp.Regexp, message string) string {
	matches := pattern.FindStringSubmatch(message)
	if matches == nil {
		return ""
	}
	for _, group := range matches[1:] {
		if group != "" {
			return strings.TrimSpace(group)
		}
	}
	return ""
}
