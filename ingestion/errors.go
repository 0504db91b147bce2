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

import "errors"

var (
	// ErrSourceRequired is returned when no dictionary source is provided.
	ErrSourceRequired = errors.New("dictionary source required")

	// ErrStoreRequired is returned when no store is provided.
	ErrStoreRequired = errors.New("store required")

	// ErrEmbedderRequired is returned when WithEmbedder is given a nil embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidStrokeRange is returned for buckets outside 1..20.
	ErrInvalidStrokeRange = errors.New("invalid stroke range")
)
