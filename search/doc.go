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


// Package search provides semantic similarity search over dictionary words.
//
// The Searcher embeds a free-text query and asks the store for the words
// whose vectors are closest by cosine similarity. Only words embedded by the
// same model as the query are compared. Results are ordered by similarity
// descending with ties in insertion order, exclude anything at or below the
// similarity floor, and hold at most the requested number of entries.
//
// Embedder and store calls run under a bounded retry policy. When retries are
// exhausted the error wraps core.ErrUpstream.
package search
