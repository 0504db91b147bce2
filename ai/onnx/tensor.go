package onnx

// paddedBatch is a right-padded, row-major batch of token ids.
type paddedBatch struct {
	size          int
	seqLen        int
	inputIDs      []int64
	attentionMask []int64
}

// padBatch truncates every sequence to maxTokens and right-pads the batch to
// its longest sequence.
func padBatch(ids, masks [][]int, maxTokens int) paddedBatch {
	seqLen := 0
	for _, seq := range ids {
		seqLen = max(seqLen, min(len(seq), maxTokens))
	}

	b := paddedBatch{
		size:          len(ids),
		seqLen:        seqLen,
		inputIDs:      make([]int64, len(ids)*seqLen),
		attentionMask: make([]int64, len(ids)*seqLen),
	}
	for i, seq := range ids {
		offset := i * seqLen
		for j := 0; j < len(seq) && j < seqLen; j++ {
			b.inputIDs[offset+j] = int64(seq[j])
			if j < len(masks[i]) {
				b.attentionMask[offset+j] = int64(masks[i][j])
			}
		}
	}
	return b
}

// meanPool averages the hidden states of every sequence in a
// [batch, seqLen, hidden] tensor over the positions its attention mask marks.
// Padding never contributes. A sequence with an empty mask pools to zeros.
func meanPool(data []float32, mask []int64, batch, seqLen, hidden int) [][]float32 {
	out := make([][]float32, batch)
	for i := 0; i < batch; i++ {
		sum := make([]float32, hidden)
		var count float32
		for j := 0; j < seqLen; j++ {
			if mask[i*seqLen+j] == 0 {
				continue
			}
			count++
			start := (i*seqLen + j) * hidden
			for k, v := range data[start : start+hidden] {
				sum[k] += v
			}
		}
		if count > 0 {
			for k := range sum {
				sum[k] /= count
			}
		}
		out[i] = sum
	}
	return out
}
