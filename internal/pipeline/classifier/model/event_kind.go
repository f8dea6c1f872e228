package model

type EventKind string

const (
	ErrorEvent        EventKind = "error"
	TranscodingEvent  EventKind = "transcoding_event"
	DirectStreamEvent EventKind = "direct_stream_event"
	NoEvent           EventKind = ""
)

type Category string

const (
	Networking     Category = "networking"
	Transcoding    Category = "transcoding"
	DirectStream   Category = "directstream"
	Playback       Category = "playback"
	Authentication Category = "authentication"
	Database       Category = "database"
	Plugin         Category = "plugin"
	General        Category = "general"
)

// AllCategories is the report order of every category.
var AllCategories = []Category{
	Networking,
	Transcoding,
	DirectStream,
	Playback,
	Authentication,
	Database,
	Plugin,
	General,
}

func ParseCategory(name string) (Category, bool) {
	for _, category := range AllCategories {
		if string(category) == name {
			return category, true
		}
	}
	return "", false
}
