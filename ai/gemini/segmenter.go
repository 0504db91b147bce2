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


// Package gemini implements ai.Segmenter on the Gemini API.
//
// Unlike OpenAI-compatible servers, Gemini enforces a response schema, so the
// model is constrained to a JSON array of strings. The answer is still parsed
// with ai.ParseSignSequence.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/signlex/ai"
	"google.golang.org/genai"
)

// generateFunc sends one sentence to the model and returns its raw text answer.
type generateFunc func(ctx context.Context, sentence string) (string, error)

// Segmenter implements ai.Segmenter using Gemini structured output.
type Segmenter struct {
	generate    generateFunc
	maxAttempts int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewSegmenter creates a Gemini segmenter from config.SegmenterModel and
// config.APIKey.
//
// Returns ai.Segmenter interface to enforce abstraction.
func NewSegmenter(ctx context.Context, config *ai.Config) (ai.Segmenter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		Temperature: genai.Ptr[float32](0),
	}
	model := config.SegmenterModel

	generate := func(ctx context.Context, sentence string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(sentence), genConfig)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}

	return newSegmenter(generate, config), nil
}

func newSegmenter(generate generateFunc, config *ai.Config) *Segmenter {
	return &Segmenter{
		generate:    generate,
		maxAttempts: max(config.MaxAttempts, 1),
		timeout:     config.Timeout,
		logger:      slog.Default().With("component", "gemini-segmenter"),
	}
}

// Segment returns the sentence's units in sign order. Schema violations are
// re-requested up to maxAttempts times; transport errors are returned at once.
func (s *Segmenter) Segment(ctx context.Context, sentence string) ([]string, error) {
	sentence = ai.CleanSentence(sentence)
	if sentence == "" {
		return []string{}, nil
	}

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		text, err := s.call(ctx, sentence)
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		units, err := ai.ParseSignSequence(text)
		if err != nil {
			lastErr = err
			s.logger.Warn("error parsing segmenter response",
				"attempt", attempt+1,
				"response", text,
				"err", err)
			continue
		}
		return units, nil
	}
	return nil, lastErr
}

func (s *Segmenter) call(ctx context.Context, sentence string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.generate(ctx, sentence)
}
