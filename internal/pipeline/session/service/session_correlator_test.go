package service

import (
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	dataModel "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/model"
	detailModel "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	lineModel "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/model"
	"github.com/Avi18971911/jellylog/internal/pipeline/session/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	"testing"
	"time"
)

var base = time.Date(2025, 9, 25, 4, 43, 10, 0, time.UTC)

func at(offset time.Duration) *time.Time {
	t := base.Add(offset)
	return &t
}

func transcodingEvent(line int, instant *time.Time, message string, details detailModel.EventDetails) dataModel.ClassifiedEvent {
	if details == nil {
		details = detailModel.EventDetails{}
	}
	return dataModel.ClassifiedEvent{
		File:       "jellyfin.log",
		LineNumber: line,
		Entry:      lineModel.LogEntry{Message: message},
		Instant:    instant,
		Kind:       classifierModel.TranscodingEvent,
		Details:    details,
	}
}

const commandMessage = `/usr/lib/jellyfin-ffmpeg/ffmpeg -i file:"/media/movies/movie.mkv" -c:v libx264 -c:a aac out.m3u8`

func TestCorrelate(t *testing.T) {
	sc := NewSessionCorrelator(zaptest.NewLogger(t))

	t.Run("should return nothing for no events", func(t *testing.T) {
		assert.Nil(t, sc.Correlate(nil))
	})

	t.Run("should merge a file path event and a session id event ten seconds apart", func(t *testing.T) {
		events := []dataModel.ClassifiedEvent{
			transcodingEvent(10, at(0), commandMessage, detailModel.EventDetails{detailModel.PrimaryReasons: "Client requires H.264 video"}),
			transcodingEvent(
				25,
				at(10*time.Second),
				`StartPlaybackTimer : event_user_id = "u1"`,
				detailModel.EventDetails{detailModel.SessionId: "abc123", detailModel.Client: "Jellyfin Web"},
			),
		}
		sessions := sc.Correlate(events)
		assert.Equal(t, 1, len(sessions))
		session := sessions[0]
		assert.Equal(t, 10, session.LineNumber)
		assert.Equal(t, commandMessage, session.Entry.Message)
		assert.True(t, at(10*time.Second).Equal(*session.Instant))
		assert.Equal(t, classifierModel.TranscodingEvent, session.Kind)
		assert.Equal(t, "Client requires H.264 video", session.Details[detailModel.PrimaryReasons])
		assert.Equal(t, "Jellyfin Web", session.Details[detailModel.Client])
		assert.Equal(t, "10-25", session.Details[detailModel.LineRange])
		assert.Equal(t, "2025-09-25T04:43:10Z - 2025-09-25T04:43:20Z", session.Details[detailModel.TimeRange])
	})

	t.Run("should not merge the same session id twenty minutes apart", func(t *testing.T) {
		details := detailModel.EventDetails{detailModel.SessionId: "abc123"}
		events := []dataModel.ClassifiedEvent{
			transcodingEvent(1, at(0), "Transcoding started", details),
			transcodingEvent(900, at(20*time.Minute), "Transcoding started", details),
		}
		sessions := sc.Correlate(events)
		assert.Equal(t, 2, len(sessions))
		assert.Equal(t, 900, sessions[0].LineNumber)
		assert.Equal(t, 1, sessions[1].LineNumber)
	})

	t.Run("should not merge on file evidence when the sessions are far apart", func(t *testing.T) {
		events := []dataModel.ClassifiedEvent{
			transcodingEvent(1, at(0), commandMessage, nil),
			transcodingEvent(2, at(time.Minute), `PlaySessionId=feed1234 streaming`, nil),
		}
		assert.Equal(t, 2, len(sc.Correlate(events)))
	})

	t.Run("should group events sharing a structured id within the same bucket", func(t *testing.T) {
		details := detailModel.EventDetails{detailModel.SessionId: "abc123"}
		events := []dataModel.ClassifiedEvent{
			transcodingEvent(1, at(0), "Transcoding started", details),
			transcodingEvent(2, at(90*time.Second), "Transcoding progress", details),
		}
		sessions := sc.Correlate(events)
		assert.Equal(t, 1, len(sessions))
		assert.True(t, at(90*time.Second).Equal(*sessions[0].Instant))
	})

	t.Run("should group near simultaneous events without other evidence by time bucket", func(t *testing.T) {
		events := []dataModel.ClassifiedEvent{
			transcodingEvent(1, at(0), "Transcoding started", nil),
			transcodingEvent(2, at(4*time.Second), "Transcoding started", nil),
		}
		assert.Equal(t, 1, len(sc.Correlate(events)))
	})

	t.Run("should keep events without an instant apart and sort them last", func(t *testing.T) {
		events := []dataModel.ClassifiedEvent{
			transcodingEvent(1, nil, "Transcoding started", nil),
			transcodingEvent(2, nil, "Transcoding started", nil),
			transcodingEvent(3, at(0), "Transcoding started", nil),
		}
		sessions := sc.Correlate(events)
		assert.Equal(t, 3, len(sessions))
		assert.Equal(t, 3, sessions[0].LineNumber)
		assert.Equal(t, 1, sessions[1].LineNumber)
		assert.Equal(t, 2, sessions[2].LineNumber)
		assert.Nil(t, sessions[1].Instant)
	})

	t.Run("should summarize line spans wider than a thousand lines", func(t *testing.T) {
		details := detailModel.EventDetails{detailModel.SessionId: "abc123"}
		events := []dataModel.ClassifiedEvent{
			transcodingEvent(100, at(0), "Transcoding started", details),
			transcodingEvent(5000, at(time.Second), "Transcoding progress", details),
		}
		sessions := sc.Correlate(events)
		assert.Equal(t, 1, len(sessions))
		assert.Equal(t, "100-109 ... 4991-5000", sessions[0].Details[detailModel.LineRange])
	})

	t.Run("should let session ranges win over ranges carried by member details", func(t *testing.T) {
		events := []dataModel.ClassifiedEvent{
			transcodingEvent(7, at(0), "Transcoding started", detailModel.EventDetails{detailModel.LineRange: "1-20"}),
		}
		sessions := sc.Correlate(events)
		assert.Equal(t, "7", sessions[0].Details[detailModel.LineRange])
		assert.Equal(t, "2025-09-25T04:43:10Z", sessions[0].Details[detailModel.TimeRange])
	})
}

func TestShouldMerge(t *testing.T) {
	newSession := func(identity string, latest *time.Time, files []string, ids []string) *model.Session {
		arena := model.NewArena()
		session := arena.Get(arena.Open(identity))
		session.Widen(latest)
		for _, file := range files {
			session.Files[file] = true
		}
		for _, id := range ids {
			session.Ids[id] = true
		}
		return session
	}

	t.Run("should require both latest instants", func(t *testing.T) {
		a := newSession("a", nil, []string{"movie.mkv"}, nil)
		b := newSession("b", at(0), []string{"movie.mkv"}, nil)
		assert.False(t, ShouldMerge(a, b))
	})

	t.Run("should merge on a shared file name within thirty seconds", func(t *testing.T) {
		a := newSession("a", at(0), []string{"movie.mkv"}, nil)
		b := newSession("b", at(30*time.Second), []string{"movie.mkv"}, nil)
		assert.True(t, ShouldMerge(a, b))
	})

	t.Run("should not merge different files without identifiers", func(t *testing.T) {
		a := newSession("a", at(0), []string{"movie.mkv"}, nil)
		b := newSession("b", at(5*time.Second), []string{"other.mkv"}, nil)
		assert.False(t, ShouldMerge(a, b))
	})

	t.Run("should merge on shared identifiers", func(t *testing.T) {
		a := newSession("a", at(0), nil, []string{"abc"})
		b := newSession("b", at(20*time.Second), nil, []string{"abc"})
		c := newSession("c", at(20*time.Second), nil, []string{"xyz"})
		assert.True(t, ShouldMerge(a, b))
		assert.False(t, ShouldMerge(a, c))
	})

	t.Run("should never merge beyond thirty seconds", func(t *testing.T) {
		a := newSession("a", at(0), []string{"movie.mkv"}, []string{"abc"})
		b := newSession("b", at(31*time.Second), []string{"movie.mkv"}, []string{"abc"})
		assert.False(t, ShouldMerge(a, b))
	})
}

func TestSessionTimeRange(t *testing.T) {
	t.Run("should collapse spans longer than ten minutes to the latest instant", func(t *testing.T) {
		assert.Equal(t, "2025-09-25T04:54:10Z", SessionTimeRange(at(0), at(11*time.Minute)))
	})

	t.Run("should show a single instant when the span is empty", func(t *testing.T) {
		assert.Equal(t, "2025-09-25T04:43:10Z", SessionTimeRange(at(0), at(0)))
		assert.Equal(t, "", SessionTimeRange(nil, nil))
	})
}

func TestMediaFileName(t *testing.T) {
	t.Run("should find quoted, unquoted and windows style paths", func(t *testing.T) {
		assert.Equal(t, "movie.mkv", MediaFileName(commandMessage))
		assert.Equal(t, "Show S01E01.mp4", MediaFileName(`Opening "D:\Media\Shows\Show S01E01.mp4" for playback`))
		assert.Equal(t, "clip.avi", MediaFileName(`Probing /data/media/clip.avi now`))
		assert.Equal(t, "", MediaFileName("Transcoding started"))
	})
}
