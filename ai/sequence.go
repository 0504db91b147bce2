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

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseSignSequence parses a model response that must be a JSON array of
// strings. Markdown code fences are tolerated; anything else (prose around
// the array, objects, nested arrays, numbers) is rejected with
// ErrMalformedSequence. Blank entries are dropped.
func ParseSignSequence(response string) ([]string, error) {
	cleaned := stripCodeFence(strings.TrimSpace(response))
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedSequence)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSequence, err)
	}

	units := make([]string, 0, len(raw))
	for i, item := range raw {
		var unit string
		// null decodes into a string without error
		if len(item) == 0 || item[0] != '"' {
			return nil, fmt.Errorf("%w: element %d is not a string", ErrMalformedSequence, i)
		}
		if err := json.Unmarshal(item, &unit); err != nil {
			return nil, fmt.Errorf("%w: element %d is not a string", ErrMalformedSequence, i)
		}
		if unit = strings.TrimSpace(unit); unit != "" {
			units = append(units, unit)
		}
	}
	return units, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// CleanSentence collapses whitespace runs and trims the input sentence.
func CleanSentence(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
