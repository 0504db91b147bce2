// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package translate renders natural-language sentences as sign sequences.
//
// A sentence is segmented into units in sign order, every unit is matched
// against the dictionary independently, and the result lists every unit in
// segmentation order with its match status. Units without a match are kept
// with status no-match rather than dropped.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/retry"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many units are matched at once.
const DefaultConcurrency = 4

var (
	// ErrSegmenterRequired is returned when a segmenter is not provided.
	ErrSegmenterRequired = errors.New("segmenter required")

	// ErrMatcherRequired is returned when a matcher is not provided.
	ErrMatcherRequired = errors.New("matcher required")
)

// Matcher finds the best dictionary word for a unit. search.Searcher
// implements it.
type Matcher interface {
	BestMatch(ctx context.Context, query string) (*core.WordMatch, error)
}

// Translator segments sentences and matches their units.
type Translator struct {
	segmenter   ai.Segmenter
	matcher     Matcher
	concurrency int
	policy      retry.Policy
	logger      *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) error {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
		return nil
	}
}

// WithConcurrency sets how many units are matched in parallel.
// Default is 4.
func WithConcurrency(n int) Option {
	return func(t *Translator) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be positive, got %d", n)
		}
		t.concurrency = n
		return nil
	}
}

// WithRetryPolicy sets the retry policy for segmenter calls.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(t *Translator) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		t.policy = policy
		return nil
	}
}

// NewTranslator creates a new translator.
func NewTranslator(segmenter ai.Segmenter, matcher Matcher, opts ...Option) (*Translator, error) {
	if segmenter == nil {
		return nil, ErrSegmenterRequired
	}
	if matcher == nil {
		return nil, ErrMatcherRequired
	}

	t := &Translator{
		segmenter:   segmenter,
		matcher:     matcher,
		concurrency: DefaultConcurrency,
		policy:      retry.DefaultPolicy(),
		logger:      slog.Default().With("component", "translator"),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Translate segments sentence and matches every unit.
// The units of the result are exactly the segmented units, in order.
func (t *Translator) Translate(ctx context.Context, sentence string) (*core.Translation, error) {
	query := ai.CleanSentence(sentence)
	if query == "" {
		return nil, fmt.Errorf("%w: empty sentence", core.ErrInvalidQuery)
	}

	units, err := t.segment(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &core.Translation{
		Query: query,
		Units: make([]core.TranslationUnit, len(units)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, unit := range units {
		g.Go(func() error {
			match, err := t.matcher.BestMatch(gctx, unit)
			switch {
			case errors.Is(err, core.ErrInvalidQuery):
				// Units with nothing to search for, such as bare punctuation
				match = nil
			case err != nil:
				return fmt.Errorf("matching %q: %w", unit, err)
			}
			slot := core.TranslationUnit{Source: unit, Status: core.UnitNoMatch}
			if match != nil {
				slot.Status = core.UnitMatched
				slot.Match = match
			}
			result.Units[i] = slot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.logger.Error("translation failed", "query", query, "err", err)
		return nil, err
	}

	t.logger.Debug("translated sentence",
		"query", query,
		"units", len(units),
		"matched", result.Matched())
	return result, nil
}

// segment runs the segmenter under the retry policy. Malformed model output
// has already been retried by the segmenter and is not retried again. A timed
// out call is not retried either, so the caller sees the timeout within one
// segmenter timeout.
func (t *Translator) segment(ctx context.Context, sentence string) ([]string, error) {
	var units []string
	err := retry.Do(ctx, t.policy, func() error {
		var err error
		units, err = t.segmenter.Segment(ctx, sentence)
		if errors.Is(err, ai.ErrMalformedSequence) || errors.Is(err, context.DeadlineExceeded) {
			return retry.Permanent(err)
		}
		return err
	})
	switch {
	case err == nil:
		return units, nil
	case errors.Is(err, ai.ErrMalformedSequence), errors.Is(err, context.Canceled):
		return nil, err
	default:
		t.logger.Error("segmentation failed", "sentence", sentence, "err", err)
		return nil, fmt.Errorf("%w: segmentation: %w", core.ErrUpstream, err)
	}
}
