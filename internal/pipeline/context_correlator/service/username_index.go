package service

import (
	lineModel "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/model"
	"regexp"
	"sort"
)

var userDataSyncPattern = regexp.MustCompile(`User "([^"]+)" \("([^"]+)"\)`)

type usernameSighting struct {
	position int
	name     string
}

// UsernameIndex maps a user id to every entry position that resolves it to a name, in entry order.
type UsernameIndex struct {
	sightings map[string][]usernameSighting
}

func NewUsernameIndex(entries []lineModel.LogEntry) *UsernameIndex {
	sightings := make(map[string][]usernameSighting)
	for i, entry := range entries {
		matches := userDataSyncPattern.FindStringSubmatch(entry.Message)
		if matches == nil {
			continue
		}
		id := matches[2]
		sightings[id] = append(sightings[id], usernameSighting{position: i, name: matches[1]})
	}
	return &UsernameIndex{sightings: sightings}
}

// Lookup returns the name from the first sighting of id within radius entries of position.
func (ui *UsernameIndex) Lookup(id string, position int, radius int) (string, bool) {
	positions := ui.sightings[id]
	low := position - radius
	i := sort.Search(len(positions), func(i int) bool {
		return positions[i].position >= low
	})
	if i == len(positions) || positions[i].position > position+radius {
		return "", false
	}
	return positions[i].name, true
}
