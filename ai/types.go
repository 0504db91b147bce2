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

// Embedding providers.
const (
	// ProviderONNX runs a local ONNX export of the embedding model.
	ProviderONNX = "onnx"
	// ProviderOpenAI talks to an OpenAI-compatible HTTP API.
	ProviderOpenAI = "openai"
)

// Segmentation strategies.
const (
	// SegmenterLLM asks an OpenAI-compatible chat model for the sign order.
	SegmenterLLM = "openai"
	// SegmenterGemini asks Gemini for the sign order with a response schema.
	SegmenterGemini = "gemini"
	// SegmenterTokenizer splits with a word segmenter and keeps surface order.
	SegmenterTokenizer = "tokenizer"
)
