package badger

import (
	"encoding/binary"

	"github.com/poiesic/signlex/core"
)

// Key prefixes. IDs are written big endian so iteration follows insertion order.
const (
	recordPrefix         = "rec:"
	wordPrefix           = "wrd:"
	wordRecordPrefix     = "wrx:"
	wordUniquePrefix     = "wru:"
	sentencePrefix       = "snt:"
	sentenceRecordPrefix = "snx:"
	sentenceUniquePrefix = "snu:"
	checkpointPrefix     = "chk:"
	wordIDSeq            = "seq:wrd"
	sentenceIDSeq        = "seq:snt"
)

// appendID appends the big endian encoding of id.
func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makeKey generates prefix followed by the given IDs.
func makeKey(prefix string, ids ...core.ID) []byte {
	buf := make([]byte, 0, len(prefix)+8*len(ids))
	buf = append(buf, prefix...)
	for _, id := range ids {
		buf = appendID(buf, id)
	}
	return buf
}

// makeRecordKey generates a key for a record by ID.
func makeRecordKey(id core.ID) []byte {
	return makeKey(recordPrefix, id)
}

// makeWordKey generates a key for a word by ID.
func makeWordKey(id core.ID) []byte {
	return makeKey(wordPrefix, id)
}

// makeWordRecordKey generates a key for the record index of words.
// Format: prefix:recordID:wordID
func makeWordRecordKey(recordID, wordID core.ID) []byte {
	return makeKey(wordRecordPrefix, recordID, wordID)
}

// makeWordUniqueKey generates the uniqueness key of (record, text).
// Format: prefix:recordID:text
func makeWordUniqueKey(recordID core.ID, text string) []byte {
	return append(makeKey(wordUniquePrefix, recordID), text...)
}

// makeSentenceKey generates a key for a sentence by ID.
func makeSentenceKey(id core.ID) []byte {
	return makeKey(sentencePrefix, id)
}

// makeSentenceRecordKey generates a key for the record index of sentences.
func makeSentenceRecordKey(recordID, sentenceID core.ID) []byte {
	return makeKey(sentenceRecordPrefix, recordID, sentenceID)
}

// makeSentenceUniqueKey generates the uniqueness key of (record, gloss, translation).
func makeSentenceUniqueKey(sentence *core.Sentence) []byte {
	return append(makeKey(sentenceUniquePrefix, sentence.RecordId), sentence.Key()...)
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return append([]byte(checkpointPrefix), processorType...)
}

// idFromKeySuffix decodes the trailing 8 bytes of an index key.
func idFromKeySuffix(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}
