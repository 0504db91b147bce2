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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/signlex/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Segmenter implements ai.Segmenter using OpenAI-compatible chat APIs.
// The model is asked to reorder the sentence into sign order and to answer
// with a bare JSON array of strings.
type Segmenter struct {
	client      llms.Model
	maxAttempts int
	timeout     time.Duration
	logger      *slog.Logger
}

// newSegmenter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSegmenter(config *ai.Config) (*Segmenter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// JSON mode is not requested: it forces an object and the answer is an array
	client, err := openai.New(
		openai.WithBaseURL(config.SegmenterHost),
		openai.WithToken(token(config)),
		openai.WithModel(config.SegmenterModel),
	)
	if err != nil {
		return nil, err
	}

	return &Segmenter{
		client:      client,
		maxAttempts: config.MaxAttempts,
		timeout:     config.Timeout,
		logger:      slog.Default().With("component", "openai-segmenter"),
	}, nil
}

// NewSegmenter creates a new LLM segmenter using the provided configuration.
//
// Returns ai.Segmenter interface to enforce abstraction.
func NewSegmenter(config *ai.Config) (ai.Segmenter, error) {
	return newSegmenter(config)
}

// Segment returns the sentence's units in sign order.
// Malformed answers are re-requested up to maxAttempts times and then
// reported as ai.ErrMalformedSequence. Transport errors are returned at once.
func (s *Segmenter) Segment(ctx context.Context, sentence string) ([]string, error) {
	sentence = ai.CleanSentence(sentence)
	if sentence == "" {
		return []string{}, nil
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, segmentationPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, sentence),
	}

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		text, err := s.generate(ctx, content)
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

		s.logger.Debug("segmented sentence", "sentence", sentence, "units", len(units))
		return units, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no attempts made", ai.ErrMalformedSequence)
	}
	s.logger.Error("failed to parse segmenter response after retries", "err", lastErr)
	return nil, lastErr
}

func (s *Segmenter) generate(ctx context.Context, content []llms.MessageContent) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", nil
	}
	return response.Choices[0].Content, nil
}
