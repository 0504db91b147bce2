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


package core

import (
	"fmt"
	"math"
	"strings"
)

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - ID must be positive (it is assigned upstream)
//   - Stroke and Polysemy must not be negative
//
// Name may be empty; details fall back to the first word.
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if record.Id <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidRecord, record.Id)
	}
	if record.Stroke < 0 {
		return fmt.Errorf("%w: negative stroke count %d", ErrInvalidRecord, record.Stroke)
	}
	if record.Polysemy < 0 {
		return fmt.Errorf("%w: negative polysemy %d", ErrInvalidRecord, record.Polysemy)
	}
	return nil
}

// ValidateWord validates a Word according to domain rules.
//
// Validation rules:
//   - RecordId must be set
//   - Text must not be blank
//   - a Vector, when present, must be valid and tagged with a model
func ValidateWord(word *Word) error {
	if word == nil {
		return fmt.Errorf("%w: word is nil", ErrInvalidWord)
	}
	if word.RecordId <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidWord, ErrMissingRecordID)
	}
	if strings.TrimSpace(word.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidWord, ErrEmptyContent)
	}
	if word.Vector != nil {
		if err := ValidateVector(word.Vector); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidWord, err)
		}
		if word.EmbeddingModel == "" {
			return fmt.Errorf("%w: vector without embedding model", ErrInvalidWord)
		}
	}
	return nil
}

// ValidateSentence validates a Sentence according to domain rules.
// Either Gloss or Translation must carry text.
func ValidateSentence(sentence *Sentence) error {
	if sentence == nil {
		return fmt.Errorf("%w: sentence is nil", ErrInvalidSentence)
	}
	if sentence.RecordId <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSentence, ErrMissingRecordID)
	}
	if strings.TrimSpace(sentence.Gloss) == "" && strings.TrimSpace(sentence.Translation) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSentence, ErrEmptyContent)
	}
	return nil
}

// ValidateVector checks that a vector is non-empty and finite.
func ValidateVector(vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidVector)
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at %d", ErrInvalidVector, i)
		}
	}
	return nil
}
