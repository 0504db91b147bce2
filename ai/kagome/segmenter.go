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


// Package kagome implements ai.Segmenter with the kagome morphological
// analyzer. Tokens keep their surface order; no sign reordering happens.
//
// The bundled IPA dictionary is Japanese and knows few Chinese words, so on
// its own it cuts most sentences into single characters. Words passed with
// WithVocabulary are loaded as a user dictionary and always come out whole,
// which lets the segmenter follow the lexicon's own word list.
package kagome

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/poiesic/signlex/ai"
)

// symbolPOS is the part of speech kagome assigns to punctuation.
const symbolPOS = "記号"

// vocabularyPOS is the part of speech given to vocabulary words.
const vocabularyPOS = "名詞"

// stoplist holds particles and punctuation that have no sign.
var stoplist = map[string]struct{}{
	"的": {}, "了": {}, "呢": {}, "吧": {}, "啊": {}, "呀": {},
	"喔": {}, "哦": {}, "啦": {}, "著": {}, "着": {}, "之": {},
	"，": {}, "。": {}, "、": {}, "！": {}, "？": {}, "；": {},
	"：": {}, "「": {}, "」": {}, "『": {}, "』": {}, "（": {}, "）": {},
}

// Segmenter splits sentences with kagome and drops stoplisted tokens.
// It is safe for concurrent use.
type Segmenter struct {
	t      *tokenizer.Tokenizer
	logger *slog.Logger
}

// Option configures a Segmenter.
type Option func(*options)

type options struct {
	vocabulary []string
}

// WithVocabulary makes the segmenter keep each of words as a single unit.
// Blank entries, duplicates and pure punctuation are ignored.
func WithVocabulary(words []string) Option {
	return func(o *options) {
		o.vocabulary = append(o.vocabulary, words...)
	}
}

// NewSegmenter creates a tokenizer segmenter backed by the IPA dictionary.
//
// Returns ai.Segmenter interface to enforce abstraction.
func NewSegmenter(opts ...Option) (ai.Segmenter, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	tokenizerOpts := []tokenizer.Option{tokenizer.OmitBosEos()}
	if records := userRecords(o.vocabulary); len(records) > 0 {
		udict, err := records.NewUserDict()
		if err != nil {
			return nil, err
		}
		tokenizerOpts = append(tokenizerOpts, tokenizer.UserDict(udict))
	}

	t, err := tokenizer.New(ipa.Dict(), tokenizerOpts...)
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "kagome-segmenter")
	logger.Debug("tokenizer ready", "vocabulary", len(o.vocabulary))
	return &Segmenter{
		t:      t,
		logger: logger,
	}, nil
}

// userRecords turns vocabulary into user dictionary entries, one token each.
func userRecords(words []string) dict.UserDictRecords {
	seen := make(map[string]struct{}, len(words))
	records := make(dict.UserDictRecords, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" || strings.ContainsFunc(word, unicode.IsSpace) || onlyPunct(word) {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		records = append(records, dict.UserDicRecord{
			Text:   word,
			Tokens: []string{word},
			Yomi:   []string{word},
			Pos:    vocabularyPOS,
		})
	}
	return records
}

// Segment returns the sentence's content tokens in surface order.
func (s *Segmenter) Segment(ctx context.Context, sentence string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units := []string{}
	for _, token := range s.t.Tokenize(ai.CleanSentence(sentence)) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		surface := strings.TrimSpace(token.Surface)
		if surface == "" || dropped(surface, token.Features()) {
			continue
		}
		units = append(units, surface)
	}

	s.logger.Debug("segmented sentence", "sentence", sentence, "units", len(units))
	return units, nil
}

func dropped(surface string, features []string) bool {
	if _, ok := stoplist[surface]; ok {
		return true
	}
	if len(features) > 0 && features[0] == symbolPOS {
		return true
	}
	return onlyPunct(surface)
}

// onlyPunct reports whether every rune of s is punctuation, a symbol or space.
func onlyPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
