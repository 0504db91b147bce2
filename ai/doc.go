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


// Package ai provides abstractions for the AI services used by signlex.
//
// Two interfaces carry all model access:
//
//   - Embedder: turns text into an L2-normalized vector tagged with a model name
//   - Segmenter: splits a sentence into the units of its sign rendering
//
// AIProvider bundles both with a shared lifecycle.
//
// # Implementation Packages
//
//   - ai/onnx: local bge-m3 inference through onnxruntime
//   - ai/openai: OpenAI-compatible embeddings and an LLM segmenter
//   - ai/gemini: a Gemini segmenter with schema-enforced output
//   - ai/kagome: a tokenizer segmenter that keeps surface order
//   - ai/cache: a Redis read-through cache for any Embedder
//   - ai/mock: test doubles
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types (ai.Embedder, ai.Segmenter,
// ai.AIProvider). Mock constructors return concrete types so tests can
// inject behavior and assert on call counts.
//
// # Untrusted Model Output
//
// LLM answers are parsed with ParseSignSequence, which accepts only a flat
// JSON array of strings. Anything else fails with ErrMalformedSequence and is
// never repaired or guessed at.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingProvider(ai.ProviderOpenAI))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "蘋果")
//	units, err := provider.Segmenter().Segment(ctx, "我喜歡蘋果")
package ai
