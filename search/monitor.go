package search

import (
	"time"

	"github.com/poiesic/signlex/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(model string, vector []float32)
	Finish(results []*core.WordMatch, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterEmbedding(_ string, _ []float32)        {}
func (n *noopMonitor) Finish(_ []*core.WordMatch, _ time.Duration) {}
