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


// Package ingestion copies the online Taiwan Sign Language dictionary into
// the lexicon store.
//
// The Harvester walks the stroke-count buckets 1..20. For every item of a
// bucket it fetches the entry, its example sentences and, for polysemous
// signs, the alternate senses, then writes:
//   - the record
//   - the record's name as a word
//   - each example sentence
//   - each alternate sense as a word of the same record
//
// All writes are insert-or-ignore, so a run can be repeated safely. Requests
// are paced and retried with backoff; items that keep failing are skipped and
// listed in the run report. A checkpoint after each bucket lets a later run
// resume where the previous one stopped.
//
// With WithEmbedder, new words are embedded in the background on an ants pool.
// Otherwise the backfill job embeds them later.
package ingestion
