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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/signlex"
	"github.com/poiesic/signlex/backfill"
	"github.com/poiesic/signlex/ingestion"
	"github.com/poiesic/signlex/search"
	"github.com/poiesic/signlex/server"
)

const version = "1.0.0"

var _ server.Service = (*signlex.Lexicon)(nil)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := backfill.DefaultConfig()
	return &cli.App{
		Name:    "signlex",
		Usage:   "Taiwanese Sign Language dictionary service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default $XDG_CONFIG_HOME/signlex/config.yaml)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Storage backend (badger, sqlite), overrides the config file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Database path, overrides the config file",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return loadConfig(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address, overrides the config file",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: mcpCommand,
			},
			{
				Name:   "ingest",
				Usage:  "Copy the remote dictionary into the local store",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Continue after the last completed stroke bucket",
					},
					&cli.IntFlag{
						Name:  "first-stroke",
						Usage: "First stroke bucket to fetch",
						Value: ingestion.FirstStroke,
					},
					&cli.IntFlag{
						Name:  "last-stroke",
						Usage: "Last stroke bucket to fetch",
						Value: ingestion.LastStroke,
					},
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Embed new words in the background while harvesting",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of background embedding workers",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per remote request",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load records from a YAML fixture",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Fixture file (default: built-in demo records)",
					},
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Embed the seeded words afterwards",
					},
				},
			},
			{
				Name:   "backfill",
				Usage:  "Embed words that have no embedding for the configured model",
				Action: backfillCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-embed every word",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of words to embed per request",
						Value: defaults.BatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent batches",
						Value: defaults.Workers,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N words",
						Value: defaults.ReportInterval,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per batch",
						Value: defaults.Retry.MaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: defaults.Retry.BaseDelay,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find the words closest to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultLimit,
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print each search stage",
					},
				},
			},
			{
				Name:      "translate",
				Usage:     "Translate a Chinese sentence into a sign sequence",
				ArgsUsage: "<sentence>",
				Action:    translateCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show store row counts",
				Action: statsCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// stdout belongs to command output and the MCP transport
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
