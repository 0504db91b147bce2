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


package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/signlex"
	"github.com/poiesic/signlex/backfill"
	"github.com/poiesic/signlex/config"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/dictapi"
	"github.com/poiesic/signlex/ingestion"
	"github.com/poiesic/signlex/mcp"
	"github.com/poiesic/signlex/retry"
	"github.com/poiesic/signlex/search"
	"github.com/poiesic/signlex/server"
	"github.com/poiesic/signlex/storage"
	"github.com/poiesic/signlex/storage/badger"
	"github.com/poiesic/signlex/storage/sqlite"
)

const configKey = "config"

// loadConfig reads the config file and applies the global overrides.
func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if backend := c.String("backend"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if path := c.String("db"); path != "" {
		if cfg.Storage.Path, err = config.ExpandPath(path); err != nil {
			return err
		}
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.File {
	if cfg, ok := c.App.Metadata[configKey].(*config.File); ok {
		return cfg
	}
	return config.Default()
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

// openStore opens only the store, for commands that need no models.
func openStore(cfg *config.File) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case signlex.BackendBadger:
		return badger.NewStore(cfg.Storage.Path)
	case signlex.BackendSQLite:
		return sqlite.NewStore(cfg.Storage.Path)
	}
	return nil, fmt.Errorf("%w: %q", signlex.ErrUnknownBackend, cfg.Storage.Backend)
}

func openLexicon(ctx context.Context, cfg *config.File) (*signlex.Lexicon, error) {
	lex, err := signlex.Open(ctx,
		signlex.WithBackend(cfg.Storage.Backend, cfg.Storage.Path),
		signlex.WithAIConfig(cfg.AIConfig()),
		signlex.WithSearchOptions(search.WithMinSimilarity(cfg.Search.MinSimilarity)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	return lex, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := commandContext(c)
	defer stop()

	cfg := configFrom(c)
	lex, err := openLexicon(ctx, cfg)
	if err != nil {
		return err
	}
	defer lex.Close()

	addr := cfg.Server.Addr
	if override := c.String("addr"); override != "" {
		addr = override
	}
	srv, err := server.New(lex,
		server.WithAddr(addr),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		server.WithServiceName(signlex.ServiceName),
	)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

func mcpCommand(c *cli.Context) error {
	ctx, stop := commandContext(c)
	defer stop()

	lex, err := openLexicon(ctx, configFrom(c))
	if err != nil {
		return err
	}
	defer lex.Close()

	srv, err := mcp.NewServer(lex, mcp.WithImplementation(signlex.ServiceName, version))
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := commandContext(c)
	defer stop()

	cfg := configFrom(c)
	client, err := dictapi.NewClient(
		dictapi.WithBaseURL(cfg.Dictionary.BaseURL),
		dictapi.WithTimeout(cfg.Dictionary.Timeout),
	)
	if err != nil {
		return err
	}

	opts := []ingestion.Option{
		ingestion.WithStrokes(c.Int("first-stroke"), c.Int("last-stroke")),
		ingestion.WithResume(c.Bool("resume")),
		ingestion.WithPacing(cfg.Dictionary.Pacing),
		ingestion.WithRetryPolicy(retry.Policy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
		}),
	}

	var store storage.Store
	if c.Bool("embed") {
		lex, err := openLexicon(ctx, cfg)
		if err != nil {
			return err
		}
		defer lex.Close()
		store = lex.Store()
		opts = append(opts, ingestion.WithEmbedder(lex.Provider().Embedder(), c.Int("workers")))
	} else {
		if store, err = openStore(cfg); err != nil {
			return err
		}
		defer store.Close()
	}

	harvester, err := ingestion.NewHarvester(client, store, opts...)
	if err != nil {
		return err
	}
	defer harvester.Release()

	fmt.Fprintf(c.App.ErrWriter, "Dictionary: %s\n", client.BaseURL())
	fmt.Fprintf(c.App.ErrWriter, "Strokes: %d-%d\n\n", c.Int("first-stroke"), c.Int("last-stroke"))

	report, err := harvester.Run(ctx)
	if report != nil {
		printReport(c.App.Writer, report)
	}
	return err
}

func printReport(w io.Writer, report *ingestion.Report) {
	fmt.Fprintf(w, "Run %s finished in %v\n", report.RunID, report.Elapsed)
	fmt.Fprintf(w, "Buckets: %d, items: %d\n", report.Buckets, report.Items)
	fmt.Fprintf(w, "New records: %d, words: %d, sentences: %d\n", report.Records, report.Words, report.Sentences)
	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "Failures: %d\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  stroke %d record %d: %v\n", f.Stroke, f.RecordID, f.Err)
		}
	}
}

func backfillCommand(c *cli.Context) error {
	ctx, stop := commandContext(c)
	defer stop()

	bfConfig := &backfill.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		Workers:        c.Int("workers"),
		Force:          c.Bool("force"),
		Retry: retry.Policy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
		},
	}
	if bfConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if bfConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	lex, err := openLexicon(ctx, configFrom(c))
	if err != nil {
		return err
	}
	defer lex.Close()

	return runBackfill(ctx, c, lex, bfConfig)
}

func runBackfill(ctx context.Context, c *cli.Context, lex *signlex.Lexicon, bfConfig *backfill.Config) error {
	backfiller, err := lex.NewBackfiller(bfConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n\n", lex.Provider().Embedder().Model())
	result, err := backfiller.Run(ctx)
	if result != nil {
		fmt.Fprintf(c.App.Writer, "Embedded %d of %d words in %v", result.Embedded, result.Candidates, result.Elapsed)
		if result.FailedBatches > 0 {
			fmt.Fprintf(c.App.Writer, " (%d failed batches)", result.FailedBatches)
		}
		fmt.Fprintln(c.App.Writer)
	}
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	ctx, stop := commandContext(c)
	defer stop()

	lex, err := openLexicon(ctx, configFrom(c))
	if err != nil {
		return err
	}
	defer lex.Close()

	var results []*core.WordMatch
	if c.Bool("trace") {
		results, err = lex.SearchWithMonitor(ctx, query, c.Int("limit"), &traceMonitor{w: c.App.ErrWriter})
	} else {
		results, err = lex.Search(ctx, query, c.Int("limit"))
	}
	if err != nil {
		return err
	}

	printMatches(c.App.Writer, results)
	return nil
}

func printMatches(w io.Writer, results []*core.WordMatch) {
	fmt.Fprintf(w, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(w, "%d: '%s' (record %d)[%0.3f]\n", i, hit.Word.Text, hit.Word.RecordId, hit.Similarity)
	}
}

func translateCommand(c *cli.Context) error {
	sentence := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if sentence == "" {
		return fmt.Errorf("sentence is required")
	}

	ctx, stop := commandContext(c)
	defer stop()

	lex, err := openLexicon(ctx, configFrom(c))
	if err != nil {
		return err
	}
	defer lex.Close()

	translation, err := lex.Translate(ctx, sentence)
	if err != nil {
		return err
	}

	printTranslation(c.App.Writer, translation)
	return nil
}

func printTranslation(w io.Writer, t *core.Translation) {
	for i, unit := range t.Units {
		if unit.Status != core.UnitMatched || unit.Match == nil {
			fmt.Fprintf(w, "%d: %s -> (no match)\n", i, unit.Source)
			continue
		}
		fmt.Fprintf(w, "%d: %s -> '%s' (record %d)[%0.3f]\n",
			i, unit.Source, unit.Match.Word.Text, unit.Match.Word.RecordId, unit.Match.Similarity)
	}
	fmt.Fprintf(w, "Matched %d of %d units\n", t.Matched(), len(t.Units))
}

func statsCommand(c *cli.Context) error {
	store, err := openStore(configFrom(c))
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Records:   %d\n", stats.Records)
	fmt.Fprintf(w, "Words:     %d\n", stats.Words)
	fmt.Fprintf(w, "Embedded:  %d\n", stats.EmbeddedWords)
	fmt.Fprintf(w, "Pending:   %d\n", stats.Words-stats.EmbeddedWords)
	fmt.Fprintf(w, "Sentences: %d\n", stats.Sentences)
	return nil
}
