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


package signlex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/backfill"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/ingestion"
	"github.com/poiesic/signlex/retry"
	"github.com/poiesic/signlex/search"
	"github.com/poiesic/signlex/storage"
	"github.com/poiesic/signlex/storage/badger"
	"github.com/poiesic/signlex/storage/sqlite"
	"github.com/poiesic/signlex/translate"
)

// Storage backends accepted by WithBackend.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// ServiceName is the title the service reports about itself.
const ServiceName = "台灣手語辭典"

// Lexicon wires the store, the AI provider and the services built on them.
// It is safe for concurrent use; construct it once and share it.
type Lexicon struct {
	store      storage.Store
	provider   ai.AIProvider
	searcher   *search.Searcher
	translator *translate.Translator
	policy     retry.Policy
	logger     *slog.Logger
}

// Option configures Open.
type Option func(*options) error

type options struct {
	store         storage.Store
	backend       string
	path          string
	provider      ai.AIProvider
	aiConfig      *ai.Config
	searchOpts    []search.Option
	translateOpts []translate.Option
	policy        retry.Policy
	logger        *slog.Logger
}

// WithStore uses an already opened store. The Lexicon takes ownership and
// closes it.
func WithStore(store storage.Store) Option {
	return func(o *options) error {
		if store == nil {
			return ErrStoreRequired
		}
		o.store = store
		return nil
	}
}

// WithBackend opens a store of the given kind at path.
func WithBackend(kind, path string) Option {
	return func(o *options) error {
		switch kind {
		case BackendBadger, BackendSQLite:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
		}
		if path == "" {
			return fmt.Errorf("%w: empty path", ErrStoreRequired)
		}
		o.backend = kind
		o.path = path
		return nil
	}
}

// WithProvider uses an already constructed AI provider. The Lexicon takes
// ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) error {
		if provider == nil {
			return ErrProviderRequired
		}
		o.provider = provider
		return nil
	}
}

// WithAIConfig builds the AI provider from config. Ignored when
// WithProvider is given.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) error {
		o.aiConfig = config
		return nil
	}
}

// WithSearchOptions passes options to the searcher.
func WithSearchOptions(opts ...search.Option) Option {
	return func(o *options) error {
		o.searchOpts = append(o.searchOpts, opts...)
		return nil
	}
}

// WithTranslateOptions passes options to the translator.
func WithTranslateOptions(opts ...translate.Option) Option {
	return func(o *options) error {
		o.translateOpts = append(o.translateOpts, opts...)
		return nil
	}
}

// WithRetryPolicy sets the retry policy for store reads made by Details.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(o *options) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		o.policy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// Open builds a Lexicon. Without WithStore or WithBackend it opens nothing and
// fails; without WithProvider the provider is built from the AI config, which
// defaults to ai.DefaultConfig(). Failing to load a model is fatal.
func Open(ctx context.Context, opts ...Option) (*Lexicon, error) {
	o := &options{
		policy: retry.DefaultPolicy(),
		logger: slog.Default().With("component", "lexicon"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	store, err := openStore(o)
	if err != nil {
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		config := ai.DefaultConfig()
		if o.aiConfig != nil {
			copied := *o.aiConfig
			config = &copied
		}
		if err := withStoredVocabulary(ctx, store, config); err != nil {
			store.Close()
			return nil, err
		}
		provider, err = NewProvider(ctx, config)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	lex, err := newLexicon(store, provider, o)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}
	return lex, nil
}

// vocabularyPageSize is how many words are read per page when loading the
// tokenizer vocabulary.
const vocabularyPageSize = 1000

// withStoredVocabulary fills an empty tokenizer vocabulary with the words
// already in store.
func withStoredVocabulary(ctx context.Context, store storage.Store, config *ai.Config) error {
	if len(config.Vocabulary) > 0 ||
		!strings.EqualFold(strings.TrimSpace(config.SegmenterProvider), ai.SegmenterTokenizer) {
		return nil
	}
	var words []string
	var after core.ID
	for {
		page, err := store.ListWords(ctx, after, vocabularyPageSize)
		if err != nil {
			return fmt.Errorf("loading vocabulary: %w", err)
		}
		for _, word := range page {
			words = append(words, word.Text)
		}
		if len(page) < vocabularyPageSize {
			break
		}
		after = page[len(page)-1].Id
	}
	config.Vocabulary = words
	return nil
}

func openStore(o *options) (storage.Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	switch o.backend {
	case BackendBadger:
		return badger.NewStore(o.path)
	case BackendSQLite:
		return sqlite.NewStore(o.path)
	}
	return nil, ErrStoreRequired
}

func newLexicon(store storage.Store, provider ai.AIProvider, o *options) (*Lexicon, error) {
	searchOpts := append([]search.Option{search.WithLogger(o.logger.With("service", "search"))}, o.searchOpts...)
	searcher, err := search.NewSearcher(store, provider.Embedder(), searchOpts...)
	if err != nil {
		return nil, err
	}

	translateOpts := append([]translate.Option{translate.WithLogger(o.logger.With("service", "translate"))}, o.translateOpts...)
	translator, err := translate.NewTranslator(provider.Segmenter(), searcher, translateOpts...)
	if err != nil {
		return nil, err
	}

	return &Lexicon{
		store:      store,
		provider:   provider,
		searcher:   searcher,
		translator: translator,
		policy:     o.policy,
		logger:     o.logger,
	}, nil
}

// Close releases the provider and the store.
func (l *Lexicon) Close() error {
	var errs []error
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := l.store.Close(); err != nil {
		l.logger.Error("error closing store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Store returns the underlying store.
func (l *Lexicon) Store() storage.Store {
	return l.store
}

// Provider returns the AI provider.
func (l *Lexicon) Provider() ai.AIProvider {
	return l.provider
}

// Searcher returns the shared searcher.
func (l *Lexicon) Searcher() *search.Searcher {
	return l.searcher
}

// Details returns a record with its words and sentences.
// Returns storage.ErrNotFound when the record doesn't exist, including for
// ids that no record can carry. Other store failures are retried and then
// reported as core.ErrUpstream.
func (l *Lexicon) Details(ctx context.Context, id core.ID) (*core.RecordDetails, error) {
	var details *core.RecordDetails
	err := retry.Do(ctx, l.policy, func() error {
		var err error
		details, err = l.loadDetails(ctx, id)
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrStorageClosed) {
			return retry.Permanent(err)
		}
		return err
	})
	switch {
	case err == nil:
		return details, nil
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, context.Canceled):
		return nil, err
	}
	l.logger.Error("error loading record details", "id", id, "err", err)
	return nil, fmt.Errorf("%w: record details: %w", core.ErrUpstream, err)
}

func (l *Lexicon) loadDetails(ctx context.Context, id core.ID) (*core.RecordDetails, error) {
	record, err := l.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	words, err := l.store.GetWordsByRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	sentences, err := l.store.GetSentencesByRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if words == nil {
		words = []*core.Word{}
	}
	if sentences == nil {
		sentences = []*core.Sentence{}
	}
	return &core.RecordDetails{
		Record:    record,
		Words:     words,
		Sentences: sentences,
	}, nil
}

// Search ranks words by similarity to query. A limit of 0 means
// search.DefaultLimit.
func (l *Lexicon) Search(ctx context.Context, query string, limit int) ([]*core.WordMatch, error) {
	return l.searcher.FindSimilar(ctx, query, limit)
}

// SearchWithMonitor is Search with stage callbacks.
func (l *Lexicon) SearchWithMonitor(ctx context.Context, query string, limit int, monitor search.SearchMonitor) ([]*core.WordMatch, error) {
	return l.searcher.FindSimilarWithMonitor(ctx, query, limit, monitor)
}

// Translate renders a Chinese sentence as an ordered sign sequence.
func (l *Lexicon) Translate(ctx context.Context, sentence string) (*core.Translation, error) {
	return l.translator.Translate(ctx, sentence)
}

// Stats returns row counts of the store.
func (l *Lexicon) Stats(ctx context.Context) (*core.Stats, error) {
	return l.store.Stats(ctx)
}

// NewHarvester creates an ingestion job writing into this lexicon.
func (l *Lexicon) NewHarvester(source ingestion.Source, opts ...ingestion.Option) (*ingestion.Harvester, error) {
	return ingestion.NewHarvester(source, l.store, opts...)
}

// NewBackfiller creates an embedding backfill job using this lexicon's embedder.
func (l *Lexicon) NewBackfiller(config *backfill.Config, progress io.Writer) (*backfill.Backfiller, error) {
	return backfill.NewBackfiller(l.store, l.provider.Embedder(), config, progress)
}
