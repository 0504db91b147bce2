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


package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/search"
)

// Payloads shared by the HTTP and MCP surfaces.

// SentencePayload is an example sentence of a record.
type SentencePayload struct {
	Gloss       string `json:"gloss"`
	Translation string `json:"translation"`
	Clip        string `json:"clip"`
}

// WordPayload is a polysemy sense of a record.
type WordPayload struct {
	ID   core.ID `json:"id"`
	Word string  `json:"word"`
}

// DetailsPayload is the /details response.
type DetailsPayload struct {
	ID            core.ID           `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Stroke        int               `json:"stroke"`
	Polysemy      int               `json:"polysemy"`
	Clip          string            `json:"clip"`
	Sentences     []SentencePayload `json:"sentences"`
	PolysemyWords []WordPayload     `json:"polysemyWords"`
}

// MatchPayload is one ranked word.
type MatchPayload struct {
	ID         core.ID `json:"id"`
	RecordID   core.ID `json:"recordId"`
	Name       string  `json:"name"`
	Similarity float32 `json:"similarity"`
}

// SearchPayload is the /search response.
type SearchPayload struct {
	Results []MatchPayload `json:"results"`
	Total   int            `json:"total"`
}

// UnitPayload is one translated unit.
type UnitPayload struct {
	RecordID *core.ID `json:"recordId"`
	Result   *string  `json:"result"`
	Source   string   `json:"source"`
	Status   string   `json:"status"`
}

// TranslationPayload is the /translate response.
type TranslationPayload struct {
	Query   string        `json:"query"`
	Results []UnitPayload `json:"results"`
	Total   int           `json:"total"`
	Matched int           `json:"matched"`
}

type messageJSON struct {
	Message string `json:"message"`
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("id")), 10, 64)
	if err != nil {
		s.writeError(w, r, core.ErrInvalidQuery)
		return
	}

	details, err := s.service.Details(r.Context(), core.ID(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewDetailsPayload(details))
}

// NewDetailsPayload renders a record with its sentences and polysemy senses.
func NewDetailsPayload(d *core.RecordDetails) DetailsPayload {
	name := d.DisplayName()
	out := DetailsPayload{
		ID:            d.Record.Id,
		Name:          name,
		Description:   d.Record.Description,
		Stroke:        d.Record.Stroke,
		Polysemy:      d.Record.Polysemy,
		Clip:          d.Record.Clip,
		Sentences:     make([]SentencePayload, 0, len(d.Sentences)),
		PolysemyWords: []WordPayload{},
	}
	for _, sentence := range d.Sentences {
		out.Sentences = append(out.Sentences, SentencePayload{
			Gloss:       sentence.Gloss,
			Translation: sentence.Translation,
			Clip:        sentence.Clip,
		})
	}
	// The word carrying the display name is the sign itself, the rest are senses
	for _, word := range d.Words {
		if word.Text == name {
			continue
		}
		out.PolysemyWords = append(out.PolysemyWords, WordPayload{ID: word.Id, Word: word.Text})
	}
	return out
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, core.ErrInvalidQuery)
		return
	}

	query := strings.TrimSpace(strings.Join(r.Form["q"], " "))
	if query == "" {
		s.writeError(w, r, core.ErrInvalidQuery)
		return
	}

	limit := search.DefaultLimit
	if raw := strings.TrimSpace(r.Form.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > search.MaxLimit {
			s.writeError(w, r, core.ErrInvalidQuery)
			return
		}
		limit = n
	}

	matches, err := s.service.Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, NewSearchPayload(matches))
}

// NewSearchPayload renders ranked matches.
func NewSearchPayload(matches []*core.WordMatch) SearchPayload {
	out := SearchPayload{Results: make([]MatchPayload, 0, len(matches)), Total: len(matches)}
	for _, m := range matches {
		out.Results = append(out.Results, MatchPayload{
			ID:         m.Word.Id,
			RecordID:   m.Word.RecordId,
			Name:       m.Word.Text,
			Similarity: m.Similarity,
		})
	}
	return out
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, core.ErrInvalidQuery)
		return
	}

	source := strings.TrimSpace(r.Form.Get("source"))
	if source == "" {
		s.writeError(w, r, core.ErrInvalidQuery)
		return
	}

	translation, err := s.service.Translate(r.Context(), source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewTranslationPayload(translation))
}

// NewTranslationPayload renders a translation. No-match units carry null
// recordId and result.
func NewTranslationPayload(t *core.Translation) TranslationPayload {
	out := TranslationPayload{
		Query:   t.Query,
		Results: make([]UnitPayload, 0, len(t.Units)),
		Total:   len(t.Units),
		Matched: t.Matched(),
	}
	for _, unit := range t.Units {
		u := UnitPayload{Source: unit.Source, Status: string(unit.Status)}
		if unit.Status == core.UnitMatched && unit.Match != nil {
			recordID := unit.Match.Word.RecordId
			text := unit.Match.Word.Text
			u.RecordID = &recordID
			u.Result = &text
		}
		out.Results = append(out.Results, u)
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.name != "" {
		body["service"] = s.name
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("error writing response", "err", err)
	}
}
