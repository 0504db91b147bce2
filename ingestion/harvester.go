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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/dictapi"
	"github.com/poiesic/signlex/retry"
	"github.com/poiesic/signlex/storage"
)

const (
	// CheckpointName identifies the harvester's checkpoint.
	CheckpointName = "ingestion"

	// FirstStroke and LastStroke bound the dictionary's stroke buckets.
	FirstStroke = 1
	LastStroke  = 20

	// DefaultPacing is the pause between two dictionary items.
	DefaultPacing = 100 * time.Millisecond
)

// Source is the remote dictionary. *dictapi.Client implements it.
type Source interface {
	ListByStroke(ctx context.Context, stroke int) ([]dictapi.Summary, error)
	Record(ctx context.Context, id core.ID) (*dictapi.Entry, error)
	Sentences(ctx context.Context, id core.ID) ([]dictapi.Example, error)
	Group(ctx context.Context, id core.ID) ([]dictapi.Sense, error)
}

var _ Source = (*dictapi.Client)(nil)

// Harvester copies the remote dictionary into the lexicon store.
type Harvester struct {
	source        Source
	store         storage.Store
	firstStroke   int
	lastStroke    int
	pacing        time.Duration
	policy        retry.Policy
	resume        bool
	embeddingPool *ants.Pool
	embeddingProc processor
	pending       sync.WaitGroup
	logger        *slog.Logger
}

// Option configures a Harvester.
type Option func(*Harvester) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harvester) error {
		if logger == nil {
			logger = slog.Default()
		}
		h.logger = logger
		return nil
	}
}

// WithPacing sets the pause between dictionary items.
// Zero disables pacing.
func WithPacing(pacing time.Duration) Option {
	return func(h *Harvester) error {
		if pacing < 0 {
			return fmt.Errorf("pacing must not be negative, got %v", pacing)
		}
		h.pacing = pacing
		return nil
	}
}

// WithRetryPolicy sets the retry policy of every remote request.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(h *Harvester) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		h.policy = policy
		return nil
	}
}

// WithStrokes restricts the run to the buckets first..last.
func WithStrokes(first, last int) Option {
	return func(h *Harvester) error {
		if first < FirstStroke || last > LastStroke || first > last {
			return fmt.Errorf("%w: %d..%d", ErrInvalidStrokeRange, first, last)
		}
		h.firstStroke = first
		h.lastStroke = last
		return nil
	}
}

// WithResume starts the run after the last checkpointed bucket.
func WithResume(resume bool) Option {
	return func(h *Harvester) error {
		h.resume = resume
		return nil
	}
}

// WithEmbedder embeds newly inserted words in the background on a pool of
// the given size. Without it words stay unembedded until the backfill job runs.
func WithEmbedder(embedder ai.Embedder, poolSize int) Option {
	return func(h *Harvester) error {
		if embedder == nil {
			return ErrEmbedderRequired
		}
		if poolSize < 1 {
			poolSize = 1
		}
		if h.embeddingPool != nil {
			h.embeddingPool.Release()
		}
		pool, err := ants.NewPool(poolSize)
		if err != nil {
			return err
		}
		h.embeddingPool = pool
		h.embeddingProc = newEmbeddingProcessor(h.store, embedder, h.logger)
		return nil
	}
}

// NewHarvester creates a harvester reading source and writing store.
func NewHarvester(source Source, store storage.Store, opts ...Option) (*Harvester, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	h := &Harvester{
		source:      source,
		store:       store,
		firstStroke: FirstStroke,
		lastStroke:  LastStroke,
		pacing:      DefaultPacing,
		policy:      retry.DefaultPolicy(),
		logger:      slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			h.Release()
			return nil, err
		}
	}
	return h, nil
}

// Failure is an item or bucket the run gave up on.
// RecordID is zero when the bucket listing itself failed.
type Failure struct {
	Stroke   int
	RecordID core.ID
	Err      error
}

// Report summarizes a run. Counts are of rows actually inserted.
type Report struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Elapsed   time.Duration
	Buckets   int
	Items     int
	Records   int
	Words     int
	Sentences int
	Failures  []Failure
}

// Run harvests the configured stroke buckets in order. Items that keep failing
// are logged, listed in the report and skipped. The checkpoint only advances
// over buckets that were listed, so a bucket whose listing failed is listed
// again by the next resumed run along with every bucket after it. The
// returned error is non-nil
// only when the context ends the run or the checkpoint cannot be read or
// written; the report is valid either way.
func (h *Harvester) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.New(), StartedAt: time.Now()}
	logger := h.logger.With("run", report.RunID)
	defer func() {
		h.pending.Wait()
		report.Elapsed = time.Since(report.StartedAt)
	}()

	first := h.firstStroke
	if h.resume {
		cp, err := h.store.LoadCheckpoint(ctx, CheckpointName)
		if err != nil {
			return report, fmt.Errorf("loading checkpoint: %w", err)
		}
		if cp != nil && int(cp.Position) >= first {
			first = int(cp.Position) + 1
			logger.Info("resuming after checkpoint", "stroke", cp.Position)
		}
	}

	paced := false
	gap := false
	for stroke := first; stroke <= h.lastStroke; stroke++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var items []dictapi.Summary
		err := h.fetch(ctx, func() error {
			var err error
			items, err = h.source.ListByStroke(ctx, stroke)
			return err
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			logger.Error("skipping stroke bucket", "stroke", stroke, "err", err)
			report.Failures = append(report.Failures, Failure{Stroke: stroke, Err: err})
			gap = true
			continue
		}
		logger.Info("harvesting stroke bucket", "stroke", stroke, "items", len(items))

		for _, item := range items {
			if paced {
				if err := h.pause(ctx); err != nil {
					return report, err
				}
			}
			paced = h.pacing > 0

			report.Items++
			if err := h.harvest(ctx, stroke, item, report); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return report, ctxErr
				}
				logger.Warn("skipping record", "stroke", stroke, "id", item.ID, "err", err)
				report.Failures = append(report.Failures, Failure{Stroke: stroke, RecordID: item.ID, Err: err})
			}
		}

		report.Buckets++
		if gap {
			continue
		}
		err = h.store.SaveCheckpoint(ctx, &core.Checkpoint{
			ProcessorType: CheckpointName,
			Position:      int64(stroke),
		})
		if err != nil {
			return report, fmt.Errorf("saving checkpoint: %w", err)
		}
	}

	logger.Info("harvest complete",
		"buckets", report.Buckets,
		"records", report.Records,
		"words", report.Words,
		"sentences", report.Sentences,
		"failures", len(report.Failures))
	return report, nil
}

// harvest fetches one dictionary item completely, then writes it.
func (h *Harvester) harvest(ctx context.Context, stroke int, item dictapi.Summary, report *Report) error {
	var entry *dictapi.Entry
	err := h.fetch(ctx, func() error {
		var err error
		entry, err = h.source.Record(ctx, item.ID)
		return err
	})
	if err != nil {
		return err
	}

	var examples []dictapi.Example
	err = h.fetch(ctx, func() error {
		var err error
		examples, err = h.source.Sentences(ctx, item.ID)
		return err
	})
	if err != nil {
		return err
	}

	var senses []dictapi.Sense
	if entry.Polysemy > 0 {
		err = h.fetch(ctx, func() error {
			var err error
			senses, err = h.source.Group(ctx, item.ID)
			return err
		})
		if err != nil {
			return err
		}
	}

	record := newRecord(stroke, item, entry)
	inserted, err := h.store.AddRecord(ctx, record)
	if err != nil {
		return err
	}
	if inserted {
		report.Records++
	}

	var fresh []*core.Word
	for _, text := range wordTexts(record.Name, senses) {
		word := &core.Word{RecordId: record.Id, Text: text}
		inserted, err := h.store.AddWord(ctx, word)
		if err != nil {
			return err
		}
		if inserted {
			report.Words++
			fresh = append(fresh, word)
		}
	}

	var errs []error
	for _, example := range examples {
		sentence := &core.Sentence{
			RecordId:    record.Id,
			Gloss:       example.Gloss,
			Translation: example.Translation,
			Clip:        example.Clip,
		}
		inserted, err := h.store.AddSentence(ctx, sentence)
		if err != nil {
			if errors.Is(err, core.ErrInvalidSentence) {
				h.logger.Debug("ignoring empty sentence", "id", record.Id)
				continue
			}
			errs = append(errs, err)
			continue
		}
		if inserted {
			report.Sentences++
		}
	}

	h.embed(fresh)
	return errors.Join(errs...)
}

// embed hands freshly inserted words to the embedding pool, if any.
func (h *Harvester) embed(words []*core.Word) {
	if h.embeddingPool == nil || len(words) == 0 {
		return
	}
	h.pending.Add(1)
	err := h.embeddingPool.Submit(func() {
		defer h.pending.Done()
		if err := h.embeddingProc.process(context.Background(), words...); err != nil {
			h.logger.Error("error processing embeddings", "err", err)
		}
	})
	if err != nil {
		h.pending.Done()
		h.logger.Error("error submitting embeddings", "err", err)
	}
}

// fetch runs a remote request under the retry policy. Failures the dictionary
// will not recover from are not retried.
func (h *Harvester) fetch(ctx context.Context, request func() error) error {
	return retry.Do(ctx, h.policy, func() error {
		err := request()
		if err != nil && !dictapi.Retriable(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

func (h *Harvester) pause(ctx context.Context) error {
	timer := time.NewTimer(h.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Release waits for background embeddings and frees the pool.
func (h *Harvester) Release() {
	h.pending.Wait()
	if h.embeddingPool != nil {
		h.embeddingPool.Release()
	}
}

func newRecord(stroke int, item dictapi.Summary, entry *dictapi.Entry) *core.Record {
	record := &core.Record{
		Id:          entry.ID,
		Name:        entry.Name,
		Description: entry.Description,
		Clip:        entry.Clip,
		Stroke:      int(entry.Stroke),
		Polysemy:    int(entry.Polysemy),
	}
	if record.Id == 0 {
		record.Id = item.ID
	}
	if record.Name == "" {
		record.Name = item.Name
	}
	if record.Stroke == 0 {
		record.Stroke = stroke
	}
	return record
}

// wordTexts lists the record name followed by each distinct sense.
func wordTexts(name string, senses []dictapi.Sense) []string {
	seen := make(map[string]bool, len(senses)+1)
	var texts []string
	add := func(text string) {
		text = ai.CleanSentence(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		texts = append(texts, text)
	}
	add(name)
	for _, sense := range senses {
		add(sense.Word)
	}
	return texts
}
