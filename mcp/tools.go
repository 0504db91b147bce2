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


package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/search"
	"github.com/poiesic/signlex/server"
)

const (
	toolLookupRecord      = "lookup_record"
	toolSearchSigns       = "search_signs"
	toolTranslateSentence = "translate_sentence"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        toolLookupRecord,
		Description: "Look up a sign record by id. Returns its name, description, stroke count, video clip, example sentences and polysemy senses.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "integer", "minimum": 1, "description": "Record id"}
			},
			"required": ["id"]
		}`),
	}, s.handleLookupRecord)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        toolSearchSigns,
		Description: "Find the signs whose words are semantically closest to a Chinese query, ranked by similarity.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Chinese word or phrase"},
				"limit": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Maximum number of results (default 5)"}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchSigns)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        toolTranslateSentence,
		Description: "Translate a Chinese sentence into an ordered sequence of signs. Units without a sign are reported as no-match.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"sentence": {"type": "string", "description": "Chinese sentence"}
			},
			"required": ["sentence"]
		}`),
	}, s.handleTranslateSentence)
}

type lookupArgs struct {
	ID core.ID `json:"id"`
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type translateArgs struct {
	Sentence string `json:"sentence"`
}

func (s *Server) handleLookupRecord(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args lookupArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	details, err := s.service.Details(ctx, args.ID)
	if err != nil {
		return s.serviceError(toolLookupRecord, err), nil
	}
	return toolJSON(server.NewDetailsPayload(details))
}

func (s *Server) handleSearchSigns(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args searchArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return toolError("query is required"), nil
	}
	limit := args.Limit
	if limit == 0 {
		limit = search.DefaultLimit
	}
	if limit < 1 || limit > search.MaxLimit {
		return toolError("limit must be between 1 and %d", search.MaxLimit), nil
	}

	matches, err := s.service.Search(ctx, query, limit)
	if err != nil {
		return s.serviceError(toolSearchSigns, err), nil
	}
	return toolJSON(server.NewSearchPayload(matches))
}

func (s *Server) handleTranslateSentence(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args translateArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	sentence := strings.TrimSpace(args.Sentence)
	if sentence == "" {
		return toolError("sentence is required"), nil
	}

	translation, err := s.service.Translate(ctx, sentence)
	if err != nil {
		return s.serviceError(toolTranslateSentence, err), nil
	}
	return toolJSON(server.NewTranslationPayload(translation))
}

// serviceError reports a failure to the client as a tool error.
func (s *Server) serviceError(tool string, err error) *gomcp.CallToolResult {
	_, message := server.StatusFor(err)
	s.logger.Warn("tool failed", "tool", tool, "err", err)
	return toolError("%s", message)
}

func toolJSON(v any) (*gomcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: string(data)}},
	}, nil
}

func toolError(format string, args ...any) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
