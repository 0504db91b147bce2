package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/signlex"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage/badger"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"signlex"}, args...))
	return out.String(), err
}

func findFlag[T cli.Flag](flags []cli.Flag, name string) T {
	var zero T
	for _, flag := range flags {
		if f, ok := flag.(T); ok && slices.Contains(f.Names(), name) {
			return f
		}
	}
	return zero
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %s not found", name)
	return nil
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"serve", "mcp", "ingest", "seed", "backfill", "search", "translate", "stats"}, names)
}

func TestIngestCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "ingest")

	first := findFlag[*cli.IntFlag](cmd.Flags, "first-stroke")
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Value)

	last := findFlag[*cli.IntFlag](cmd.Flags, "last-stroke")
	require.NotNil(t, last)
	assert.Equal(t, 20, last.Value)

	embed := findFlag[*cli.BoolFlag](cmd.Flags, "embed")
	require.NotNil(t, embed)
	assert.True(t, embed.Value)

	resume := findFlag[*cli.BoolFlag](cmd.Flags, "resume")
	require.NotNil(t, resume)
	assert.False(t, resume.Value)
}

func TestBackfillCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "backfill")

	batch := findFlag[*cli.IntFlag](cmd.Flags, "batch-size")
	require.NotNil(t, batch)
	assert.Equal(t, 64, batch.Value)

	t.Run("batch-size must be positive", func(t *testing.T) {
		_, err := runApp(t, "--db", t.TempDir(), "backfill", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("report-interval must be positive", func(t *testing.T) {
		_, err := runApp(t, "--db", t.TempDir(), "backfill", "--report-interval", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report-interval")
	})
}

func TestSeedAndStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	out, err := runApp(t, "--db", dir, "seed")
	require.NoError(t, err)
	assert.Equal(t, "Seeded 7 records, 13 words, 3 sentences\n", out)

	out, err = runApp(t, "--db", dir, "seed")
	require.NoError(t, err)
	assert.Equal(t, "Seeded 0 records, 0 words, 0 sentences\n", out)

	out, err = runApp(t, "--db", dir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Records:   7\n")
	assert.Contains(t, out, "Words:     13\n")
	assert.Contains(t, out, "Embedded:  0\n")
	assert.Contains(t, out, "Pending:   13\n")
	assert.Contains(t, out, "Sentences: 3\n")
}

func TestSeedFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
records:
  - id: 42
    name: 山
    stroke: 3
    words: [山, " 山 ", 高山]
`), 0600))

	out, err := runApp(t, "--db", filepath.Join(dir, "db"), "seed", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "Seeded 1 records, 2 words, 0 sentences\n", out)
}

func TestGlobalFlagErrors(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		_, err := runApp(t, "--backend", "nope", "stats")
		assert.ErrorIs(t, err, signlex.ErrUnknownBackend)
	})

	t.Run("missing explicit config", func(t *testing.T) {
		_, err := runApp(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "stats")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("search needs a query", func(t *testing.T) {
		_, err := runApp(t, "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("translate needs a sentence", func(t *testing.T) {
		_, err := runApp(t, "translate", "  ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sentence is required")
	})
}

func TestParseFixture(t *testing.T) {
	f, err := parseFixture(demoFixture)
	require.NoError(t, err)
	assert.Len(t, f.Records, 7)
	assert.Equal(t, []string{"銀行", "錢莊"}, f.Records[4].wordTexts())

	_, err = parseFixture([]byte("records: []"))
	assert.ErrorIs(t, err, errEmptyFixture)

	_, err = parseFixture([]byte("records: ["))
	assert.Error(t, err)
}

func TestSeedRecords_InvalidRecord(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	records := []fixtureRecord{
		{ID: 1, Name: "山", Stroke: 3},
		{ID: 0, Name: "水"},
	}
	result, err := seedRecords(context.Background(), store, slices.Values(records))
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
	assert.Equal(t, 1, result.Records)
	assert.Equal(t, 1, result.Words)
}

func TestPrintTranslation(t *testing.T) {
	var out bytes.Buffer
	printTranslation(&out, &core.Translation{
		Query: "我去",
		Units: []core.TranslationUnit{
			{Source: "我", Status: core.UnitMatched, Match: &core.WordMatch{Word: &core.Word{RecordId: 1, Text: "我"}, Similarity: 1}},
			{Source: "去", Status: core.UnitNoMatch},
		},
	})
	assert.Equal(t, "0: 我 -> '我' (record 1)[1.000]\n1: 去 -> (no match)\nMatched 1 of 2 units\n", out.String())
}

func TestPrintMatches(t *testing.T) {
	var out bytes.Buffer
	printMatches(&out, []*core.WordMatch{{Word: &core.Word{RecordId: 5, Text: "銀行"}, Similarity: 0.875}})
	assert.Equal(t, "Found 1 hits\n0: '銀行' (record 5)[0.875]\n", out.String())
}

func TestSetupLogger(t *testing.T) {
	newTestApp := func(action cli.ActionFunc) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: action,
		}
	}
	noop := func(c *cli.Context) error { return nil }

	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Warn"} {
		t.Run("accepts "+level, func(t *testing.T) {
			require.NoError(t, newTestApp(noop).Run([]string{"test", "--log-level", level}))
		})
	}

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newTestApp(noop).Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newTestApp(func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		})
		require.NoError(t, app.Run([]string{"test", "-l", "debug"}))
	})
}
