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
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/signlex/backfill"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

//go:embed demo.yaml
var demoFixture []byte

var errEmptyFixture = errors.New("fixture has no records")

type fixtureSentence struct {
	Gloss       string `yaml:"gloss"`
	Translation string `yaml:"translation"`
	Clip        string `yaml:"clip"`
}

type fixtureRecord struct {
	ID          core.ID           `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Stroke      int               `yaml:"stroke"`
	Polysemy    int               `yaml:"polysemy"`
	Clip        string            `yaml:"clip"`
	Words       []string          `yaml:"words"`
	Sentences   []fixtureSentence `yaml:"sentences"`
}

type fixture struct {
	Records []fixtureRecord `yaml:"records"`
}

type seedResult struct {
	Records   int
	Words     int
	Sentences int
}

// loadFixture reads a fixture file, or the built-in demo records when path is
// empty.
func loadFixture(path string) (*fixture, error) {
	data := demoFixture
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	if len(f.Records) == 0 {
		return nil, errEmptyFixture
	}
	return &f, nil
}

// wordTexts returns the record's name followed by its extra words, trimmed and
// without duplicates.
func (r *fixtureRecord) wordTexts() []string {
	var texts []string
	for _, text := range append([]string{r.Name}, r.Words...) {
		text = strings.TrimSpace(text)
		if text == "" || slices.Contains(texts, text) {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}

// seedRecords writes fixture records into store. Rows that already exist are
// left alone, so seeding twice is harmless.
func seedRecords(ctx context.Context, store storage.Store, records iter.Seq[fixtureRecord]) (*seedResult, error) {
	result := &seedResult{}
	for rec := range records {
		inserted, err := store.AddRecord(ctx, &core.Record{
			Id:          rec.ID,
			Name:        strings.TrimSpace(rec.Name),
			Description: rec.Description,
			Clip:        rec.Clip,
			Stroke:      rec.Stroke,
			Polysemy:    rec.Polysemy,
		})
		if err != nil {
			return result, fmt.Errorf("record %d: %w", rec.ID, err)
		}
		if inserted {
			result.Records++
		}

		for _, text := range rec.wordTexts() {
			inserted, err := store.AddWord(ctx, &core.Word{RecordId: rec.ID, Text: text})
			if err != nil {
				return result, fmt.Errorf("record %d word %q: %w", rec.ID, text, err)
			}
			if inserted {
				result.Words++
			}
		}

		for _, s := range rec.Sentences {
			inserted, err := store.AddSentence(ctx, &core.Sentence{
				RecordId:    rec.ID,
				Gloss:       s.Gloss,
				Translation: s.Translation,
				Clip:        s.Clip,
			})
			if err != nil {
				return result, fmt.Errorf("record %d sentence: %w", rec.ID, err)
			}
			if inserted {
				result.Sentences++
			}
		}
	}
	return result, nil
}

func seedCommand(c *cli.Context) error {
	f, err := loadFixture(c.String("file"))
	if err != nil {
		return err
	}

	ctx, stop := commandContext(c)
	defer stop()

	cfg := configFrom(c)
	if !c.Bool("embed") {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		return seedInto(ctx, c, store, f)
	}

	lex, err := openLexicon(ctx, cfg)
	if err != nil {
		return err
	}
	defer lex.Close()
	if err := seedInto(ctx, c, lex.Store(), f); err != nil {
		return err
	}
	return runBackfill(ctx, c, lex, backfill.DefaultConfig())
}

func seedInto(ctx context.Context, c *cli.Context, store storage.Store, f *fixture) error {
	result, err := seedRecords(ctx, store, slices.Values(f.Records))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Seeded %d records, %d words, %d sentences\n", result.Records, result.Words, result.Sentences)
	return nil
}
