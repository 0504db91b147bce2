package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/server"
	"github.com/poiesic/signlex/storage"
)

type fakeService struct {
	lastLimit int
	err       error
}

func (f *fakeService) Details(ctx context.Context, id core.ID) (*core.RecordDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id != 7 {
		return nil, fmt.Errorf("record %d: %w", id, storage.ErrNotFound)
	}
	return &core.RecordDetails{
		Record: &core.Record{Id: 7, Name: "銀行", Stroke: 14},
		Words:  []*core.Word{{Id: 1, RecordId: 7, Text: "銀行"}},
	}, nil
}

func (f *fakeService) Search(ctx context.Context, query string, limit int) ([]*core.WordMatch, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []*core.WordMatch{
		{Word: &core.Word{Id: 1, RecordId: 7, Text: query}, Similarity: 0.8},
	}, nil
}

func (f *fakeService) Translate(ctx context.Context, sentence string) (*core.Translation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.Translation{
		Query: sentence,
		Units: []core.TranslationUnit{
			{Source: "我", Status: core.UnitMatched, Match: &core.WordMatch{Word: &core.Word{Id: 2, RecordId: 4, Text: "我"}, Similarity: 1}},
			{Source: "嗯", Status: core.UnitNoMatch},
		},
	}, nil
}

func makeServer(t *testing.T, svc server.Service) *Server {
	t.Helper()
	s, err := NewServer(svc)
	require.NoError(t, err)
	return s
}

func request(t *testing.T, args any) *gomcp.CallToolRequest {
	t.Helper()
	data, err := json.Marshal(args)
	require.NoError(t, err)
	return &gomcp.CallToolRequest{Params: &gomcp.CallToolParamsRaw{Arguments: data}}
}

func textOf(t *testing.T, result *gomcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*gomcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil)
	assert.ErrorIs(t, err, ErrServiceRequired)

	s, err := NewServer(&fakeService{}, WithLogger(nil), WithImplementation("台灣手語辭典", "2.0.0"))
	require.NoError(t, err)
	assert.Equal(t, "台灣手語辭典", s.name)
	assert.Equal(t, "2.0.0", s.version)
}

func TestLookupRecord(t *testing.T) {
	s := makeServer(t, &fakeService{})

	result, err := s.handleLookupRecord(context.Background(), request(t, map[string]any{"id": 7}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var details server.DetailsPayload
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &details))
	assert.Equal(t, core.ID(7), details.ID)
	assert.Equal(t, "銀行", details.Name)
	assert.Empty(t, details.PolysemyWords)
}

func TestLookupRecord_Errors(t *testing.T) {
	s := makeServer(t, &fakeService{})

	result, err := s.handleLookupRecord(context.Background(), request(t, map[string]any{"id": 99}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Record not found", textOf(t, result))

	result, err = s.handleLookupRecord(context.Background(), request(t, map[string]any{"id": 0}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Record not found", textOf(t, result))

	result, err = s.handleLookupRecord(context.Background(), request(t, map[string]any{"id": "abc"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSearchSigns(t *testing.T) {
	svc := &fakeService{}
	s := makeServer(t, svc)

	result, err := s.handleSearchSigns(context.Background(), request(t, map[string]any{"query": "銀行"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, 5, svc.lastLimit)

	var payload server.SearchPayload
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &payload))
	assert.Equal(t, 1, payload.Total)
	assert.Equal(t, "銀行", payload.Results[0].Name)

	_, err = s.handleSearchSigns(context.Background(), request(t, map[string]any{"query": "銀行", "limit": 20}))
	require.NoError(t, err)
	assert.Equal(t, 20, svc.lastLimit)
}

func TestSearchSigns_InvalidArguments(t *testing.T) {
	s := makeServer(t, &fakeService{})

	for _, args := range []map[string]any{
		{},
		{"query": "  "},
		{"query": "a", "limit": 101},
		{"query": "a", "limit": -1},
	} {
		result, err := s.handleSearchSigns(context.Background(), request(t, args))
		require.NoError(t, err)
		assert.True(t, result.IsError, "args %v", args)
	}
}

func TestTranslateSentence(t *testing.T) {
	s := makeServer(t, &fakeService{})

	result, err := s.handleTranslateSentence(context.Background(), request(t, map[string]any{"sentence": "我嗯"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var payload server.TranslationPayload
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &payload))
	assert.Equal(t, "我嗯", payload.Query)
	assert.Equal(t, 2, payload.Total)
	assert.Equal(t, 1, payload.Matched)
	require.Len(t, payload.Results, 2)
	assert.Nil(t, payload.Results[1].RecordID)
	assert.Equal(t, "no-match", payload.Results[1].Status)
}

func TestTranslateSentence_UpstreamFailure(t *testing.T) {
	s := makeServer(t, &fakeService{err: fmt.Errorf("%w: segmenter", core.ErrUpstream)})

	result, err := s.handleTranslateSentence(context.Background(), request(t, map[string]any{"sentence": "我"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Upstream service unavailable", textOf(t, result))

	result, err = s.handleTranslateSentence(context.Background(), request(t, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServeTransport(t *testing.T) {
	s := makeServer(t, &fakeService{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientTransport, serverTransport := gomcp.NewInMemoryTransports()
	done := make(chan error, 1)
	go func() { done <- s.ServeTransport(ctx, serverTransport) }()

	client := gomcp.NewClient(&gomcp.Implementation{Name: "test", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"lookup_record", "search_signs", "translate_sentence"}, names)

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      "lookup_record",
		Arguments: map[string]any{"id": 7},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), `"name":"銀行"`)

	require.NoError(t, session.Close())
	cancel()
	<-done
}
