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


package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use and must return
// L2-normalized vectors.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The text may be any Unicode, CJK included, without pre-segmentation.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the model that produces the vectors. Vectors from
	// different models are not comparable.
	Model() string
}

// Segmenter splits a sentence into the ordered lexical units of its sign
// rendering.
// Implementations must be thread-safe for concurrent use.
type Segmenter interface {
	// Segment returns the units in sign order. An empty slice means the
	// sentence carries nothing to sign.
	Segment(ctx context.Context, sentence string) ([]string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Segmenter returns the sentence segmentation service.
	Segmenter() Segmenter

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
