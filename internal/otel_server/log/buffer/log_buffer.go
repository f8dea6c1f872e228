package buffer

import (
	"sync"
)

type LogBuffer interface {
	// Append adds lines in order, dropping the oldest lines once the buffer is full.
	Append(lines []string)
	// Lines returns a copy of the buffered lines, oldest first.
	Lines() []string
	Len() int
}

type LogBufferImpl struct {
	lines    []string
	start    int
	capacity int
	mu       sync.Mutex
}

func NewLogBuffer(capacity int) *LogBufferImpl {
	return &LogBufferImpl{
		lines:    make([]string, 0, min(capacity, 1024)),
		capacity: max(capacity, 1),
	}
}

func (lb *LogBufferImpl) Append(lines []string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	for _, line := range lines {
		if len(lb.lines) < lb.capacity {
			lb.lines = append(lb.lines, line)
			continue
		}
		lb.lines[lb.start] = line
		lb.start = (lb.start + 1) % lb.capacity
	}
}

func (lb *LogBufferImpl) Lines() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	ordered := make([]string, 0, len(lb.lines))
	ordered = append(ordered, lb.lines[lb.start:]...)
	ordered = append(ordered, lb.lines[:lb.start]...)
	return ordered
}

func (lb *LogBufferImpl) Len() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.lines)
}
