package service

import (
	"github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	"regexp"
)

var categoryPatternSources = map[model.Category][]string{
	model.Networking: {
		`connection.*(?:timeout|refused|reset|failed)`,
		`dns.*(?:resolution|lookup).*failed`,
		`network.*(?:unreachable|error|failure)`,
		`socket.*(?:error|exception|closed)`,
		`http.*(?:request|response).*(?:failed|error|timeout)`,
		`ssl.*(?:handshake|certificate).*(?:failed|error)`,
	},
	model.Transcoding: {
		`transcode.*(?:failed|error|exception)`,
		`ffmpeg.*(?:error|failed|exception)`,
		`ffmpeg.*exit(?:ed)?\s+with\s+code\s+-?[1-9]`,
		`hardware.*acceleration.*(?:failed|unavailable|error)`,
		`codec.*(?:not.*supported|failed|error)`,
		`video.*(?:encoding|decoding).*(?:failed|error)`,
		`audio.*(?:encoding|decoding).*(?:failed|error)`,
		`subtitle.*(?:encoding|extraction).*(?:failed|error)`,
	},
	model.Playback: {
		`playback.*(?:failed|error|stopped)`,
		`stream.*(?:failed|error|unavailable|corrupted)`,
		`seeking.*(?:failed|error)`,
		`media.*(?:format|container).*(?:unsupported|error)`,
		`buffer.*(?:underrun|overflow|error)`,
		`session.*(?:failed|terminated|error)`,
	},
	model.Authentication: {
		`authentication.*(?:failed|error|invalid)`,
		`login.*(?:failed|invalid|error)`,
		`token.*(?:invalid|expired|error)`,
		`authorization.*(?:failed|denied|error)`,
		`user.*(?:not.*found|invalid|locked)`,
		`password.*(?:incorrect|invalid|failed)`,
	},
	model.Database: {
		`database.*(?:error|exception|corruption|locked)`,
		`sqlite.*(?:error|exception|busy|locked)`,
		`sql.*(?:syntax|error|exception)`,
		`migration.*(?:failed|error)`,
		`schema.*(?:error|invalid|corruption)`,
	},
	model.Plugin: {
		`plugin.*(?:failed|error|exception|load)`,
		`assembly.*(?:load|loading).*(?:failed|error)`,
		`dependency.*(?:missing|failed|error)`,
		`configuration.*(?:invalid|error|missing)`,
	},
	model.General: {
		`unhandled.*exception`,
		`critical.*error`,
		`fatal.*error`,
		`system.*error`,
		`out.*of.*memory`,
		`disk.*(?:full|space|error)`,
	},
}

func compileCategoryPatterns() map[model.Category][]*regexp.Regexp {
	compiled := make(map[model.Category][]*regexp.Regexp, len(categoryPatternSources))
	for category, sources := range categoryPatternSources {
		patterns := make([]*regexp.Regexp, len(sources))
		for i, source := range sources {
			patterns[i] = regexp.MustCompile(`(?i)` + source)
		}
		compiled[category] = patterns
	}
	return compiled
}
