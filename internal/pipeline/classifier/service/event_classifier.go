package service

import (
	"github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	lineModel "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/model"
	"regexp"
	"strconv"
	"strings"
)

var errorLevels = map[string]bool{
	"ERR":      true,
	"ERROR":    true,
	"FTL":      true,
	"FATAL":    true,
	"CRT":      true,
	"CRIT":     true,
	"CRITICAL": true,
}

var failureVocabulary = []string{"error", "exception", "failed", "failure", "critical", "fatal"}

var (
	exitCodePattern          = regexp.MustCompile(`(?i)\bexit(?:ed)?\s+(?:with\s+)?(?:code|status)\s*[:=]?\s*(-?\d+)`)
	probeToolPattern         = regexp.MustCompile(`(?i)ffprobe`)
	directPlayPattern        = regexp.MustCompile(`(?i)play_?\s*method\s*[:=]?\s*"?direct\s*play|\bdirect\s*play`)
	transcodeMethodPattern   = regexp.MustCompile(`(?i)play_?\s*method\s*[:=]?\s*"?transcode`)
	encoderInvocationPattern = regexp.MustCompile(`(?i)ffmpeg(?:\.exe)?"?(?:\s.*?)?\s-i\s+"?(?:file:)?"?([^\s"]+)`)
	hardwareEncoderPattern   = regexp.MustCompile(`(?i)\b(?:h264|hevc|av1|vp9|mjpeg)_(?:nvenc|qsv|vaapi|videotoolbox|amf|v4l2m2m|rkmpp|mf)\b`)
	transcodeStartedPattern  = regexp.MustCompile(`(?i)transcod(?:e|ing)\s+(?:job\s+|session\s+)?started|start(?:ed|ing)\s+transcod`)
	playbackTimerPattern     = regexp.MustCompile(`(?i)startplaybacktimer`)
	timerIdentifierPattern   = regexp.MustCompile(`(?i)\b(?:event|session|playing)_\w*id\s*[:=]`)
	directStreamPattern      = regexp.MustCompile(`(?i)play_?\s*method\s*[:=]?\s*"?direct\s*stream`)
	remuxStartedPattern      = regexp.MustCompile(`(?i)remux(?:ing)?\s+(?:job\s+)?started|start(?:ed|ing)\s+remux`)
)

type EventClassifier interface {
	IsError(entry lineModel.LogEntry) bool
	IsTranscodingEvent(entry lineModel.LogEntry) bool
	IsDirectStreamEvent(entry lineModel.LogEntry) bool
	// Classify returns at most one kind: transcoding wins over direct stream, which wins over error.
	Classify(entry lineModel.LogEntry) model.EventKind
	// Categorize returns the selected plain-error categories whose patterns match the entry.
	Categorize(entry lineModel.LogEntry, selected []model.Category) []model.Category
	// MatchedRules names the transcoding and direct stream rules an entry satisfies, exclusions included.
	MatchedRules(entry lineModel.LogEntry) []string
}

type textRule struct {
	name    string
	matches func(text string) bool
}

func patternRule(name string, pattern *regexp.Regexp) textRule {
	return textRule{name: name, matches: pattern.MatchString}
}

type EventClassifierImpl struct {
	transcodingRules      []textRule
	directStreamRules     []textRule
	exclusions            []textRule
	directStreamExclusion []textRule
	categoryPatterns      map[model.Category][]*regexp.Regexp
}

func NewEventClassifier() EventClassifier {
	probe := patternRule("probe_tool", probeToolPattern)
	return &EventClassifierImpl{
		transcodingRules: []textRule{
			patternRule("transcode_play_method", transcodeMethodPattern),
			{name: "encoder_invocation", matches: hasRealEncoderInput},
			patternRule("hardware_encoder", hardwareEncoderPattern),
			patternRule("transcode_started", transcodeStartedPattern),
			{name: "playback_timer", matches: isPlaybackTimerWithIdentifiers},
		},
		directStreamRules: []textRule{
			patternRule("direct_stream_play_method", directStreamPattern),
			patternRule("remux_started", remuxStartedPattern),
		},
		exclusions: []textRule{
			probe,
			patternRule("direct_play", directPlayPattern),
		},
		directStreamExclusion: []textRule{probe},
		categoryPatterns:      compileCategoryPatterns(),
	}
}

func (ec *EventClassifierImpl) IsError(entry lineModel.LogEntry) bool {
	if errorLevels[strings.ToUpper(strings.TrimSpace(entry.Level))] {
		return true
	}
	if hasNonZeroExitCode(entry.Message) {
		return true
	}
	lower := strings.ToLower(entry.Message)
	for _, keyword := range failureVocabulary {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func (ec *EventClassifierImpl) IsTranscodingEvent(entry lineModel.LogEntry) bool {
	text := eventText(entry)
	if anyRuleMatches(ec.exclusions, text) {
		return false
	}
	return anyRuleMatches(ec.transcodingRules, text)
}

func (ec *EventClassifierImpl) IsDirectStreamEvent(entry lineModel.LogEntry) bool {
	text := eventText(entry)
	if anyRuleMatches(ec.directStreamExclusion, text) {
		return false
	}
	return anyRuleMatches(ec.directStreamRules, text)
}

func (ec *EventClassifierImpl) Classify(entry lineModel.LogEntry) model.EventKind {
	switch {
	case ec.IsTranscodingEvent(entry):
		return model.TranscodingEvent
	case ec.IsDirectStreamEvent(entry):
		return model.DirectStreamEvent
	case ec.IsError(entry):
		return model.ErrorEvent
	default:
		return model.NoEvent
	}
}

func (ec *EventClassifierImpl) Categorize(
	entry lineModel.LogEntry,
	selected []model.Category,
) []model.Category {
	text := strings.ToLower(entry.Message + " " + entry.Exception)
	var categories []model.Category
	for _, category := range selected {
		for _, pattern := range ec.categoryPatterns[category] {
			if pattern.MatchString(text) {
				categories = append(categories, category)
				break
			}
		}
	}
	return categories
}

func (ec *EventClassifierImpl) MatchedRules(entry lineModel.LogEntry) []string {
	text := eventText(entry)
	var names []string
	for _, group := range [][]textRule{ec.exclusions, ec.transcodingRules, ec.directStreamRules} {
		for _, rule := range group {
			if rule.matches(text) {
				names = append(names, rule.name)
			}
		}
	}
	return names
}

func eventText(entry lineModel.LogEntry) string {
	return entry.Message + " " + entry.Category
}

func anyRuleMatches(rules []textRule, text string) bool {
	for _, rule := range rules {
		if rule.matches(text) {
			return true
		}
	}
	return false
}

func hasNonZeroExitCode(message string) bool {
	for _, matches := range exitCodePattern.FindAllStringSubmatch(message, -1) {
		code, err := strconv.Atoi(matches[1])
		if err == nil && code != 0 {
			return true
		}
	}
	return false
}

// hasRealEncoderInput ignores encoder invocations that read from a pipe or stdin.
func hasRealEncoderInput(text string) bool {
	matches := encoderInvocationPattern.FindStringSubmatch(text)
	if matches == nil {
		return false
	}
	input := strings.ToLower(matches[1])
	return input != "-" && !strings.HasPrefix(input, "pipe:")
}

func isPlaybackTimerWithIdentifiers(text string) bool {
	return playbackTimerPattern.MatchString(text) && timerIdentifierPattern.MatchString(text)
}
