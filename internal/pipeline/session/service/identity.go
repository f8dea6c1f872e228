package service

import (
	"fmt"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	detailModel "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	"regexp"
	"strings"
)

const (
	idBucketSeconds   = 300
	timeBucketSeconds = 30
)

const mediaExtensions = `mkv|mp4|m4v|avi|mov|wmv|flv|webm|mpg|mpeg|m2ts|ts|iso|vob|mp3|flac|m4a|ogg|opus|wav`

var (
	rawIdPattern = regexp.MustCompile(
		`(?i)\b(?:play_?session_?id|session_?id|item_?id|media_?source_?id)["']?\s*[:=]\s*["']?([0-9a-z][0-9a-z-]{5,})`,
	)
	inputFilePattern    = regexp.MustCompile(`(?i)\s-i\s+(?:file:)?"([^"]+\.(?:` + mediaExtensions + `))"`)
	quotedFilePattern   = regexp.MustCompile(`(?i)"(?:file:)?([^"]+\.(?:` + mediaExtensions + `))"`)
	unquotedFilePattern = regexp.MustCompile(`(?i)(?:file:)?((?:[a-z]:)?[\\/][^\s"]+\.(?:` + mediaExtensions + `))\b`)
)

type identityRule struct {
	name string
	key  func(event dataModel.ClassifiedEvent) (string, bool)
}

// identityRules are tried in order and the first rule producing a key wins. The time bucket rule
// always produces a key once an instant exists; events without one get a synthetic key.
var identityRules = []identityRule{
	{name: "structured_id", key: structuredIdKey},
	{name: "raw_id", key: rawIdKey},
	{name: "media_file", key: mediaFileKey},
	{name: "time_bucket", key: timeBucketKey},
}

func structuredIdKey(event dataModel.ClassifiedEvent) (string, bool) {
	id := structuredId(event.Details)
	if id == "" {
		return "", false
	}
	if event.Instant == nil {
		return "id:" + id, true
	}
	return fmt.Sprintf("id:%s:%d", id, floorDiv(event.Instant.Unix(), idBucketSeconds)), true
}

func rawIdKey(event dataModel.ClassifiedEvent) (string, bool) {
	id := rawId(event.Entry.Message)
	if id == "" {
		return "", false
	}
	return "raw:" + id, true
}

func mediaFileKey(event dataModel.ClassifiedEvent) (string, bool) {
	file := MediaFileName(event.Entry.Message)
	if file == "" {
		return "", false
	}
	return "file:" + file, true
}

func timeBucketKey(event dataModel.ClassifiedEvent) (string, bool) {
	if event.Instant == nil {
		return "", false
	}
	return fmt.Sprintf("time:%d", floorDiv(event.Instant.Unix()+timeBucketSeconds/2, timeBucketSeconds)), true
}

func structuredId(details detailModel.EventDetails) string {
	if id := details[detailModel.SessionId]; id != "" {
		return id
	}
	return details[detailModel.ItemId]
}

func rawId(message string) string {
	matches := rawIdPattern.FindStringSubmatch(message)
	if matches == nil {
		return ""
	}
	return strings.ToLower(matches[1])
}

// MediaFileName returns the base name of the media file a message refers to, preferring an
// encoder input over any other path.
func MediaFileName(message string) string {
	for _, pattern := range []*regexp.Regexp{inputFilePattern, quotedFilePattern, unquotedFilePattern} {
		if matches := pattern.FindStringSubmatch(message); matches != nil {
			return baseName(matches[1])
		}
	}
	return ""
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func floorDiv(value int64, divisor int64) int64 {
	quotient := value / divisor
	if value%divisor != 0 && (value < 0) != (divisor < 0) {
		quotient--
	}
	return quotient
}
