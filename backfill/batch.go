package backfill

import (
	"context"
	"fmt"

	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/retry"
	"github.com/poiesic/signlex/storage"
)

// BatchProcessor embeds batches of words and stores the vectors.
type BatchProcessor struct {
	words    storage.WordRepository
	embedder ai.Embedder
	policy   retry.Policy
}

// NewBatchProcessor creates a new batch processor. Embedding calls are retried
// according to policy.
func NewBatchProcessor(words storage.WordRepository, embedder ai.Embedder, policy retry.Policy) *BatchProcessor {
	return &BatchProcessor{
		words:    words,
		embedder: embedder,
		policy:   policy,
	}
}

// Process generates embeddings for a batch of words and updates them in the
// store, tagged with the embedder's model.
// Vectors are normalized before they are written.
func (bp *BatchProcessor) Process(ctx context.Context, words []*core.Word) error {
	if len(words) == 0 {
		return nil
	}

	texts := make([]string, len(words))
	for i, word := range words {
		texts[i] = word.Text
	}

	var embeddings [][]float32
	err := retry.Do(ctx, bp.policy, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.policy.MaxAttempts, err)
	}

	if len(embeddings) != len(words) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(words), len(embeddings))
	}

	embeddings = ai.NormalizeVectors(embeddings)
	model := bp.embedder.Model()
	for i, word := range words {
		if err := bp.words.UpdateWordEmbedding(ctx, word.Id, embeddings[i], model); err != nil {
			return fmt.Errorf("failed to update word %d: %w", word.Id, err)
		}
		word.Vector = embeddings[i]
		word.EmbeddingModel = model
	}
	return nil
}
