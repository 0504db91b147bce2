package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/retry"
	"github.com/poiesic/signlex/storage"
)

const (
	// DefaultLimit is the number of results returned when no limit is given.
	DefaultLimit = 5
	// MaxLimit is the largest accepted limit.
	MaxLimit = 100
	// DefaultMinSimilarity is the exclusive similarity floor.
	DefaultMinSimilarity float32 = 0.5
)

// Searcher ranks dictionary words by semantic similarity to free text.
// Search and translation both go through it, so there is one ranking.
type Searcher struct {
	words         storage.WordRepository
	embedder      ai.Embedder
	minSimilarity float32
	policy        retry.Policy
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the exclusive similarity floor.
// Default is 0.5.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		if min < -1 || min >= 1 {
			return fmt.Errorf("%w: %v", ErrInvalidThreshold, min)
		}
		s.minSimilarity = min
		return nil
	}
}

// WithRetryPolicy sets the retry policy for embedder and store calls.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(s *Searcher) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		s.policy = policy
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(words storage.WordRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if words == nil {
		return nil, ErrWordRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		words:         words,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		policy:        retry.DefaultPolicy(),
		logger:        slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// MinSimilarity returns the exclusive similarity floor.
func (s *Searcher) MinSimilarity() float32 {
	return s.minSimilarity
}

// FindSimilar returns up to limit words similar to query, best first.
// A limit of 0 means DefaultLimit.
func (s *Searcher) FindSimilar(ctx context.Context, query string, limit int) ([]*core.WordMatch, error) {
	return s.FindSimilarWithMonitor(ctx, query, limit, nil)
}

// BestMatch returns the single best word for query, or nil when nothing
// clears the similarity floor.
func (s *Searcher) BestMatch(ctx context.Context, query string) (*core.WordMatch, error) {
	matches, err := s.FindSimilar(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// FindSimilarWithMonitor is FindSimilar with callbacks at each stage.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, limit int, monitor SearchMonitor) ([]*core.WordMatch, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query = normalizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", core.ErrInvalidQuery)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", core.ErrInvalidQuery, MaxLimit)
	}

	start := time.Now()
	monitor.Start(query)

	// 1. Embed the query
	var vector []float32
	err := retry.Do(ctx, s.policy, func() error {
		var err error
		vector, err = s.embedder.EmbedText(ctx, query)
		return err
	})
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, upstream("embedding query", err)
	}
	if err := core.ValidateVector(vector); err != nil {
		return nil, upstream("embedding query", err)
	}
	model := s.embedder.Model()
	monitor.AfterEmbedding(model, vector)

	// 2. Rank stored words
	var matches []*core.WordMatch
	err = retry.Do(ctx, s.policy, func() error {
		var err error
		matches, err = s.words.FindSimilarWords(ctx, vector, model, s.minSimilarity, limit)
		if errors.Is(err, storage.ErrInvalidQuery) || errors.Is(err, storage.ErrStorageClosed) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		s.logger.Error("error querying for similar words", "err", err)
		return nil, upstream("similarity search", err)
	}
	if matches == nil {
		matches = []*core.WordMatch{}
	}

	monitor.Finish(matches, time.Since(start))
	s.logger.Debug("search complete", "query", query, "results", len(matches))
	return matches, nil
}

// upstream wraps a failed dependency call. Cancellation by the caller is
// passed through unchanged.
func upstream(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", core.ErrUpstream, op, err)
}
