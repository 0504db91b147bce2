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
	"fmt"
	"log/slog"

	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

// embeddingProcessor generates embeddings for new words.
type embeddingProcessor struct {
	words    storage.WordRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

func newEmbeddingProcessor(words storage.WordRepository, embedder ai.Embedder, logger *slog.Logger) processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		words:    words,
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}
}

func (ep *embeddingProcessor) process(ctx context.Context, words ...*core.Word) error {
	if len(words) == 0 {
		return nil
	}
	ep.logger.Debug("generating embeddings for words", "words", len(words))

	texts := make([]string, len(words))
	for i, word := range words {
		texts[i] = word.Text
	}

	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(words) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(words), len(embeddings))
	}

	model := ep.embedder.Model()
	for i, word := range words {
		if err := ep.words.UpdateWordEmbedding(ctx, word.Id, embeddings[i], model); err != nil {
			return fmt.Errorf("word %d: %w", word.Id, err)
		}
	}
	return nil
}
