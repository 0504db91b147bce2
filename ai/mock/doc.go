// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Segmenter,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// model files or network services and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Pin vectors so similarity is predictable
//	embedder := mock.NewMockEmbedder().
//	    WithVector("蘋果", []float32{1, 0, 0}).
//	    WithVector("香蕉", []float32{0, 1, 0})
//
//	// Script segmentations
//	segmenter := mock.NewMockSegmenter().
//	    WithUnits("我喜歡蘋果", "蘋果", "我", "喜歡")
//
//	provider := mock.NewMockProviderWithServices(embedder, segmenter)
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: deterministic unit vectors seeded by an FNV hash of the text
//   - MockSegmenter: splits unscripted sentences on whitespace
//   - MockProvider: aggregates mock embedder and segmenter
package mock
