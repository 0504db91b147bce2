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


// Package storage defines the lexicon store used by signlex.
//
// The store persists three entities (records, words and sentences) plus job
// checkpoints, and answers one specialized query: ranking words by cosine
// similarity to a query vector. Two backends implement it:
//
//	store, err := badger.NewStore("/path/to/db")   // embedded key-value store
//	store, err := sqlite.NewStore("/path/to.db")   // sqlite with sqlite-vec
//
// Both constructors return the storage.Store interface. Tests use
// badger.NewMemoryStore().
//
// # Insert semantics
//
// Every Add method is insert-or-ignore keyed on the entity's uniqueness
// constraint: records by ID, words by (record, text), sentences by
// (record, gloss, translation). A duplicate insert returns (false, nil), which
// keeps ingestion runs idempotent.
//
// # Embeddings
//
// A word's vector is stored together with the identifier of the model that
// produced it. FindSimilarWords only compares vectors of the requested model,
// so vectors of an older model never leak into rankings.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use. All methods accept a
// context.Context for cancellation.
package storage
