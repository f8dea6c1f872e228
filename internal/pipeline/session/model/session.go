package model

import (
	"time"
)

// Handle addresses a session in an Arena. Handles stay valid after merges; an absorbed handle is
// retired rather than reused.
type Handle int

type Session struct {
	Identity string
	// Events are indices into the event slice being correlated, in membership order.
	Events   []int
	Earliest *time.Time
	Latest   *time.Time
	Files    map[string]bool
	Ids      map[string]bool
}

func newSession(identity string) *Session {
	return &Session{
		Identity: identity,
		Files:    make(map[string]bool),
		Ids:      make(map[string]bool),
	}
}

func (s *Session) HasFile() bool {
	return len(s.Files) > 0
}

func (s *Session) HasId() bool {
	return len(s.Ids) > 0
}

// Widen extends the session's time span to include instant.
func (s *Session) Widen(instant *time.Time) {
	if instant == nil {
		return
	}
	if s.Earliest == nil || instant.Before(*s.Earliest) {
		t := *instant
		s.Earliest = &t
	}
	if s.Latest == nil || instant.After(*s.Latest) {
		t := *instant
		s.Latest = &t
	}
}

func (s *Session) SharesFileWith(other *Session) bool {
	for file := range s.Files {
		if other.Files[file] {
			return true
		}
	}
	return false
}

func (s *Session) SharesIdWith(other *Session) bool {
	for id := range s.Ids {
		if other.Ids[id] {
			return true
		}
	}
	return false
}

type Arena struct {
	sessions   []*Session
	retired    []bool
	byIdentity map[string]Handle
}

func NewArena() *Arena {
	return &Arena{byIdentity: make(map[string]Handle)}
}

// Open returns the live session for identity, creating it when absent.
func (a *Arena) Open(identity string) Handle {
	if handle, ok := a.byIdentity[identity]; ok {
		return handle
	}
	handle := Handle(len(a.sessions))
	a.sessions = append(a.sessions, newSession(identity))
	a.retired = append(a.retired, false)
	a.byIdentity[identity] = handle
	return handle
}

func (a *Arena) Get(handle Handle) *Session {
	return a.sessions[handle]
}

// Absorb moves every event of absorbed into target, widens target's span and retires absorbed.
func (a *Arena) Absorb(target Handle, absorbed Handle) {
	if target == absorbed || a.retired[absorbed] {
		return
	}
	into := a.sessions[target]
	from := a.sessions[absorbed]
	into.Events = append(into.Events, from.Events...)
	into.Widen(from.Earliest)
	into.Widen(from.Latest)
	for file := range from.Files {
		into.Files[file] = true
	}
	for id := range from.Ids {
		into.Ids[id] = true
	}
	from.Events = nil
	a.retired[absorbed] = true
	a.byIdentity[from.Identity] = target
}

// Live returns the handles that have not been absorbed, in creation order.
func (a *Arena) Live() []Handle {
	handles := make([]Handle, 0, len(a.sessions))
	for i, retired := range a.retired {
		if !retired {
			handles = append(handles, Handle(i))
		}
	}
	return handles
}
