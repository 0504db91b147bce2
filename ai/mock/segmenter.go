package mock

import (
	"context"
	"strings"
	"sync"
)

// MockSegmenter is a test double for ai.Segmenter.
// By default it returns scripted units for known sentences and splits
// anything else on whitespace.
type MockSegmenter struct {
	// SegmentFunc is called by Segment if set.
	SegmentFunc func(ctx context.Context, sentence string) ([]string, error)

	mu        sync.Mutex
	scripted  map[string][]string
	callCount int
}

// NewMockSegmenter creates a mock segmenter with default behavior.
func NewMockSegmenter() *MockSegmenter {
	return &MockSegmenter{scripted: make(map[string][]string)}
}

// WithUnits scripts the units returned for sentence.
func (m *MockSegmenter) WithUnits(sentence string, units ...string) *MockSegmenter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted[sentence] = units
	return m
}

// Segment returns the scripted units for sentence, or its whitespace fields.
func (m *MockSegmenter) Segment(ctx context.Context, sentence string) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.SegmentFunc
	units, ok := m.scripted[sentence]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, sentence)
	}
	if ok {
		return append([]string(nil), units...), nil
	}
	fields := strings.Fields(sentence)
	if fields == nil {
		return []string{}, nil
	}
	return fields, nil
}

// CallCount returns the number of times Segment was called.
func (m *MockSegmenter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockSegmenter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.SegmentFunc = nil
}
