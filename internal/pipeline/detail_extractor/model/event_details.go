package model

// EventDetails is the sparse set of fields recovered from a transcoding or direct stream event.
type EventDetails map[string]string

const (
	PlayMethod       = "playMethod"
	EventUserId      = "eventUserId"
	SessionUserId    = "sessionUserId"
	User             = "user"
	Username         = "username"
	Client           = "client"
	Device           = "device"
	Media            = "media"
	ItemId           = "itemId"
	SessionId        = "sessionId"
	PositionTicks    = "positionTicks"
	PrimaryReasons   = "primaryReasons"
	TechnicalDetails = "technicalDetails"
	Combined         = "combined"
	FfmpegCommand    = "ffmpegCommand"
	LineRange        = "lineRange"
	TimeRange        = "timeRange"
)

// DetailsBuilder accumulates fields where the first non-empty value written for a key wins.
type DetailsBuilder struct {
	details EventDetails
}

func NewDetailsBuilder() *DetailsBuilder {
	return &DetailsBuilder{details: make(EventDetails)}
}

// SetIfAbsent stores value under key unless the key is already set or the value is empty.
// It reports whether the value was stored.
func (db *DetailsBuilder) SetIfAbsent(key string, value string) bool {
	if value == "" {
		return false
	}
	if _, ok := db.details[key]; ok {
		return false
	}
	db.details[key] = value
	return true
}

func (db *DetailsBuilder) Merge(other EventDetails) {
	for key, value := range other {
		db.SetIfAbsent(key, value)
	}
}

func (db *DetailsBuilder) Get(key string) (string, bool) {
	value, ok := db.details[key]
	return value, ok
}

func (db *DetailsBuilder) Build() EventDetails {
	return db.details.Copy()
}

func (ed EventDetails) Copy() EventDetails {
	cp := make(EventDetails, len(ed))
	for key, value := range ed {
		cp[key] = value
	}
	return cp
}
