// Package onnx runs a sentence-embedding model locally through onnxruntime.
//
// The default model is the ONNX export of BAAI bge-m3 (Xenova/bge-m3). Text is
// tokenized with its HuggingFace tokenizer.json, the hidden states of the
// unpadded tokens are averaged into the sentence vector, and the result is
// L2-normalized. bge-m3 is
// multilingual, so Chinese words embed without pre-segmentation.
//
// Loading is heavyweight and happens once; callers share one Embedder.
package onnx
