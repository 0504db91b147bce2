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


package onnx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/signlex/ai"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// DefaultMaxTokens bounds the sequence length fed to the model.
const DefaultMaxTokens = 512

var (
	envMu   sync.Mutex
	envRefs int
)

// acquireEnvironment initializes the process-wide onnxruntime environment on
// first use.
func acquireEnvironment(library string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()
	envRefs--
	if envRefs == 0 {
		return ort.DestroyEnvironment()
	}
	return nil
}

// Embedder implements ai.Embedder with a local ONNX export of a
// sentence-embedding model. Inference is serialized because the session is
// shared.
type Embedder struct {
	mu        sync.Mutex
	tokenizer *tokenizer.Tokenizer
	session   *ort.DynamicAdvancedSession
	model     string
	maxTokens int
	closed    bool
	logger    *slog.Logger
}

// NewEmbedder loads the tokenizer and model named by config. Missing assets
// are fatal; there is no fallback.
//
// Returns ai.Embedder interface to enforce abstraction. The value also
// implements io.Closer.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tok, err := pretrained.FromFile(config.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	if err := acquireEnvironment(config.RuntimeLibrary); err != nil {
		return nil, err
	}

	session, err := newSession(config.ModelPath)
	if err != nil {
		return nil, errors.Join(err, releaseEnvironment())
	}

	logger := slog.Default().With("component", "onnx-embedder")
	logger.Info("loaded embedding model", "model", config.EmbeddingModel, "path", config.ModelPath)

	return &Embedder{
		tokenizer: tok,
		session:   session,
		model:     config.EmbeddingModel,
		maxTokens: DefaultMaxTokens,
		logger:    logger,
	}, nil
}

func newSession(modelPath string) (*ort.DynamicAdvancedSession, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization: %w", err)
	}
	// 0 = use all available
	if err := opts.SetIntraOpNumThreads(0); err != nil {
		return nil, fmt.Errorf("failed to set thread count: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

// EmbedText generates a normalized vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates normalized vector embeddings for a batch of texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputs := make([]tokenizer.EncodeInput, len(texts))
	for i, t := range texts {
		inputs[i] = tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(t))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("onnx embedder is closed")
	}

	encodings, err := e.tokenizer.EncodeBatch(inputs, true)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}

	ids := make([][]int, len(encodings))
	masks := make([][]int, len(encodings))
	for i, enc := range encodings {
		ids[i] = enc.GetIds()
		masks[i] = enc.GetAttentionMask()
	}
	batch := padBatch(ids, masks, e.maxTokens)

	vectors, err := e.run(batch)
	if err != nil {
		e.logger.Error("inference failed", "count", len(texts), "err", err)
		return nil, err
	}
	return ai.NormalizeVectors(vectors), nil
}

func (e *Embedder) run(batch paddedBatch) ([][]float32, error) {
	shape := ort.NewShape(int64(batch.size), int64(batch.seqLen))

	inputIDs, err := ort.NewTensor(shape, batch.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer inputIDs.Destroy()

	attentionMask, err := ort.NewTensor(shape, batch.attentionMask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer attentionMask.Destroy()

	outputs := make([]ort.Value, 1)
	if err := e.session.Run([]ort.Value{inputIDs, attentionMask}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	output, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output tensor is not float32 type")
	}
	outShape := output.GetShape()
	if len(outShape) != 3 {
		return nil, fmt.Errorf("%w: unexpected output shape %v", ai.ErrEmbeddingMismatch, outShape)
	}
	if int(outShape[0]) != batch.size || int(outShape[1]) != batch.seqLen {
		return nil, fmt.Errorf("%w: output shape %v does not match input [%d %d]",
			ai.ErrEmbeddingMismatch, outShape, batch.size, batch.seqLen)
	}
	return meanPool(output.GetData(), batch.attentionMask, batch.size, batch.seqLen, int(outShape[2])), nil
}

// Close releases the session and, for the last embedder, the runtime.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	var errs []error
	if e.session != nil {
		errs = append(errs, e.session.Destroy())
	}
	errs = append(errs, releaseEnvironment())
	return errors.Join(errs...)
}
