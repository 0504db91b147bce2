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


// Package backfill embeds the words of a lexicon store.
//
// Ingestion stores words without vectors. The Backfiller pages over all words,
// selects those with no vector or with a vector of another model, and embeds
// them in batches on an ants pool. Vectors are normalized and stored together
// with the embedder's model tag, which is what lets similarity search skip
// stale vectors after a model change. Progress is reported with rate and ETA.
package backfill
