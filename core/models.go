package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Record IDs are assigned by the upstream dictionary; Word and Sentence IDs
// come from database sequences.
type ID int64

// ContentKey derives a stable 16-byte key from the given parts using BLAKE2b.
// Parts are separated by a NUL byte so ("ab", "c") and ("a", "bc") differ.
func ContentKey(parts ...string) []byte {
	h, _ := blake2b.New(16, nil)
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return h.Sum(nil)
}

// ContentKeyString is the hex encoding of ContentKey.
func ContentKeyString(parts ...string) string {
	return hex.EncodeToString(ContentKey(parts...))
}

// Record is a dictionary entry grouping Words and example Sentences.
type Record struct {
	Id          ID
	Name        string
	Description string
	Clip        string // Absolute URL of the sign video
	Stroke      int    // Stroke count, only used to page through the upstream dictionary
	Polysemy    int    // Number of alternate senses; zero when the sign has only one
	InsertedAt  time.Time
}

// Word is a surface form ("sign") belonging to a Record.
type Word struct {
	Id             ID
	RecordId       ID
	Text           string
	Vector         []float32 // nil until the backfill job embeds it
	EmbeddingModel string    // Model that produced Vector
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// HasEmbedding reports whether the word carries a vector produced by model.
func (w *Word) HasEmbedding(model string) bool {
	return len(w.Vector) > 0 && w.EmbeddingModel == model
}

// Sentence is an example usage of a Record.
type Sentence struct {
	Id          ID
	RecordId    ID
	Gloss       string // Transcription in sign order
	Translation string
	Clip        string
	InsertedAt  time.Time
}

// Key returns the uniqueness key of the sentence within its record.
func (s *Sentence) Key() []byte {
	return ContentKey(s.Gloss, s.Translation)
}

// Checkpoint stores the progress of a long running job.
type Checkpoint struct {
	ProcessorType string
	Position      int64
	UpdatedAt     time.Time
}

// WordMatch is a word ranked by similarity to a query vector.
type WordMatch struct {
	Word       *Word
	Similarity float32
}

// RecordDetails is a record with everything attached to it.
type RecordDetails struct {
	Record    *Record
	Words     []*Word
	Sentences []*Sentence
}

// DisplayName returns the record's name, falling back to its first word.
func (d *RecordDetails) DisplayName() string {
	if d.Record != nil && d.Record.Name != "" {
		return d.Record.Name
	}
	if len(d.Words) > 0 {
		return d.Words[0].Text
	}
	return ""
}

// UnitStatus tells whether a translation unit found a sign.
type UnitStatus string

const (
	UnitMatched UnitStatus = "matched"
	UnitNoMatch UnitStatus = "no-match"
)

// TranslationUnit is one segmented unit of a sentence and its best sign.
type TranslationUnit struct {
	Source string
	Status UnitStatus
	Match  *WordMatch // nil when Status is UnitNoMatch
}

// Translation is a sentence rendered as an ordered sign sequence.
type Translation struct {
	Query string
	Units []TranslationUnit
}

// Matched returns the number of units that found a sign.
func (t *Translation) Matched() int {
	n := 0
	for _, u := range t.Units {
		if u.Status == UnitMatched {
			n++
		}
	}
	return n
}

// Stats summarizes the contents of a store.
type Stats struct {
	Records       int
	Words         int
	EmbeddedWords int
	Sentences     int
}
