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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidWord indicates a Word failed validation.
	ErrInvalidWord = errors.New("invalid word")

	// ErrInvalidSentence indicates a Sentence failed validation.
	ErrInvalidSentence = errors.New("invalid sentence")

	// ErrInvalidVector indicates an embedding vector is empty or not finite.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrEmptyContent indicates a required text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingRecordID indicates a child entity has no owning record.
	ErrMissingRecordID = errors.New("record id is required")
)

// Request level errors shared by the services and their transports.
var (
	// ErrInvalidQuery indicates malformed caller input.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrUpstream indicates that a collaborator (embedder, store, LLM, remote
	// dictionary) kept failing after retries.
	ErrUpstream = errors.New("upstream failure")
)
