package dictapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/poiesic/signlex/core"
)

// envelope is the wrapper every endpoint answers with.
type envelope[T any] struct {
	Record []T `json:"Record"`
}

// Summary is a listing entry from a stroke bucket.
type Summary struct {
	ID   core.ID `json:"id"`
	Name string  `json:"name"`
}

// Entry is the full dictionary entry of a record.
type Entry struct {
	ID          core.ID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Clip        string  `json:"clip"`
	Stroke      Int     `json:"stroke"`
	Polysemy    Int     `json:"polysemy"`
}

// Example is an example sentence of a record.
type Example struct {
	Gloss       string `json:"gloss"`
	Translation string `json:"translation"`
	Clip        string `json:"clip"`
}

// Sense is an alternate sign of a polysemous record.
type Sense struct {
	ID   core.ID `json:"id"`
	Word string  `json:"word"`
}

// Int decodes integers the dictionary sends either as numbers or as
// numeric strings. Empty strings and null decode to zero.
type Int int

// UnmarshalJSON implements json.Unmarshaler.
func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*i = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("dictapi: %q is not an integer", s)
		}
		*i = Int(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*i = Int(n)
	return nil
}
