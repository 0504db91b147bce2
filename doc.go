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


// Package signlex is the backend of a Taiwanese Sign Language dictionary.
//
// A Lexicon answers three questions over a store of dictionary records:
//
//   - Details: a record with its words and example sentences
//   - Search: the words semantically closest to a query
//   - Translate: a Chinese sentence as an ordered sequence of signs
//
// Open wires everything once:
//
//	lex, err := signlex.Open(ctx,
//		signlex.WithBackend(signlex.BackendBadger, "/var/lib/signlex"),
//		signlex.WithAIConfig(ai.NewConfig(ai.WithONNXModel(model, tokenizer))),
//	)
//	defer lex.Close()
//
//	matches, err := lex.Search(ctx, "蘋果", 5)
//
// The dictionary is filled by the ingestion job (NewHarvester) and its words
// are embedded by the backfill job (NewBackfiller). Transports live in the
// server and mcp packages.
package signlex
