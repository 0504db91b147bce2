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

import "errors"

var (
	// ErrMalformedSequence indicates a model answered with something other
	// than a flat JSON array of strings.
	ErrMalformedSequence = errors.New("malformed sign sequence")

	// ErrEmbeddingMismatch indicates an embedder returned a different number
	// of vectors than texts.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")

	// ErrInvalidConfig indicates an unusable AI configuration.
	ErrInvalidConfig = errors.New("invalid ai config")
)
