package service

import (
	"fmt"
	"github.com/Avi18971911/jellylog/internal/pipeline/line_parser/model"
	"github.com/goccy/go-json"
	"regexp"
	"strings"
)

// EncoderTools are the external media tools recognised on raw command lines. The probe tool is
// listed first because its install path usually contains the encoder's name as well.
var EncoderTools = []string{"ffprobe", "ffmpeg"}

var (
	bracketedTriplePattern = regexp.MustCompile(`^\[([^\]]+)\]\s*\[([^\]]+)\]\s*\[([^\]]+)\]\s*(.*)$`)
	bracketedColonPattern  = regexp.MustCompile(`^\[([^\]]+)\]\s*\[([^\]]+)\]\s*([^:]*?):\s*(.*)$`)
	bracketedPairPattern   = regexp.MustCompile(`^\[([^\]]+)\]\s*\[([^\]]+)\]\s*(.*)$`)
)

type LineParser interface {
	// ParseLine returns the entry for a line and false for blank lines.
	ParseLine(line string) (model.LogEntry, bool)
}

type lineFormat struct {
	name  string
	parse func(line string) (model.LogEntry, bool)
}

type LineParserImpl struct {
	formats []lineFormat
}

func NewLineParser() LineParser {
	return &LineParserImpl{
		formats: []lineFormat{
			{name: "json", parse: parseJSONLine},
			{name: "bracketed_triple", parse: parseBracketedTriple},
			{name: "bracketed_colon", parse: parseBracketedColon},
			{name: "bracketed_pair", parse: parseBracketedPair},
			{name: "fallback", parse: parseFallback},
		},
	}
}

func (lp *LineParserImpl) ParseLine(line string) (model.LogEntry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return model.LogEntry{}, false
	}
	for _, format := range lp.formats {
		if entry, ok := format.parse(trimmed); ok {
			return entry, true
		}
	}
	return parseFallbackEntry(trimmed), true
}

// ParseLines parses every line in order and drops blank ones. lineNumbers[i] is the 1-based
// line number of entries[i] in the source.
func ParseLines(lp LineParser, lines []string) (entries []model.LogEntry, lineNumbers []int) {
	entries = make([]model.LogEntry, 0, len(lines))
	lineNumbers = make([]int, 0, len(lines))
	for i, line := range lines {
		entry, ok := lp.ParseLine(line)
		if !ok {
			continue
		}
		entries = append(entries, entry)
		lineNumbers = append(lineNumbers, i+1)
	}
	return entries, lineNumbers
}

func parseJSONLine(line string) (model.LogEntry, bool) {
	if !strings.HasPrefix(line, "{") {
		return model.LogEntry{}, false
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return model.LogEntry{}, false
	}
	message := stringField(data, "@m")
	if message == "" {
		message = stringField(data, "@mt")
	}
	return model.LogEntry{
		Timestamp: stringField(data, "@t"),
		Level:     stringField(data, "@l"),
		Message:   message,
		Category:  stringField(data, "SourceContext"),
		Exception: stringField(data, "@x"),
		RawLine:   line,
	}, true
}

func parseBracketedTriple(line string) (model.LogEntry, bool) {
	matches := bracketedTriplePattern.FindStringSubmatch(line)
	if matches == nil {
		return model.LogEntry{}, false
	}
	return model.LogEntry{
		Timestamp: strings.TrimSpace(matches[1]),
		Level:     strings.TrimSpace(matches[2]),
		Category:  strings.TrimSpace(matches[3]),
		Message:   strings.TrimSpace(matches[4]),
		RawLine:   line,
	}, true
}

func parseBracketedColon(line string) (model.LogEntry, bool) {
	matches := bracketedColonPattern.FindStringSubmatch(line)
	if matches == nil {
		return model.LogEntry{}, false
	}
	category := strings.TrimSpace(matches[3])
	if looksLikeCommandLine(category) {
		return model.LogEntry{}, false
	}
	return model.LogEntry{
		Timestamp: strings.TrimSpace(matches[1]),
		Level:     strings.TrimSpace(matches[2]),
		Category:  category,
		Message:   strings.TrimSpace(matches[4]),
		RawLine:   line,
	}, true
}

func parseBracketedPair(line string) (model.LogEntry, bool) {
	matches := bracketedPairPattern.FindStringSubmatch(line)
	if matches == nil {
		return model.LogEntry{}, false
	}
	message := strings.TrimSpace(matches[3])
	return model.LogEntry{
		Timestamp: strings.TrimSpace(matches[1]),
		Level:     strings.TrimSpace(matches[2]),
		Category:  encoderToolIn(message),
		Message:   message,
		RawLine:   line,
	}, true
}

func parseFallback(line string) (model.LogEntry, bool) {
	return parseFallbackEntry(line), true
}

func parseFallbackEntry(line string) model.LogEntry {
	return model.LogEntry{
		Message: line,
		RawLine: line,
	}
}

// looksLikeCommandLine rejects colon-delimited "categories" that are really the head of a
// command line, such as `/usr/lib/jellyfin-ffmpeg/ffmpeg -i file` before `:"/media/...`.
func looksLikeCommandLine(category string) bool {
	if strings.ContainsAny(category, `"/\=`) {
		return true
	}
	return encoderToolIn(category) != ""
}

func encoderToolIn(text string) string {
	lower := strings.ToLower(text)
	for _, tool := range EncoderTools {
		if strings.Contains(lower, tool) {
			return tool
		}
	}
	return ""
}

func stringField(data map[string]interface{}, key string) string {
	value, ok := data[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
