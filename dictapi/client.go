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


package dictapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/signlex/core"
)

const (
	// DefaultBaseURL is the public Taiwan Sign Language dictionary.
	DefaultBaseURL = "https://twtsl.ccu.edu.tw"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	pageSize     = 1000
	maxBodyBytes = 16 << 20
)

// Client reads the dictionary's public JSON API.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base URL %q", raw)
		}
		c.baseURL = strings.TrimSuffix(raw, "/")
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return errors.New("http client required")
		}
		c.http = client
		return nil
	}
}

// WithTimeout sets the per-request timeout.
// Default is 30s.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		c.http.Timeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a dictionary client.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default().With("component", "dictapi"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the dictionary host.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListByStroke lists the records filed under a stroke count.
func (c *Client) ListByStroke(ctx context.Context, stroke int) ([]Summary, error) {
	q := url.Values{}
	q.Set("value", strconv.Itoa(stroke))
	q.Set("lang", "zh")
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("field", "stroke")

	var env envelope[Summary]
	if err := c.get(ctx, "/api/pinSearch", q, &env); err != nil {
		return nil, err
	}
	return env.Record, nil
}

// Record fetches the full entry of a record.
// Returns ErrNotFound when the dictionary has no such record.
func (c *Client) Record(ctx context.Context, id core.ID) (*Entry, error) {
	var env envelope[Entry]
	if err := c.get(ctx, "/api/querySearch", byID(id), &env); err != nil {
		return nil, err
	}
	if len(env.Record) == 0 {
		return nil, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	entry := env.Record[0]
	entry.Clip = c.ClipURL(entry.Clip)
	return &entry, nil
}

// Sentences fetches the example sentences of a record.
func (c *Client) Sentences(ctx context.Context, id core.ID) ([]Example, error) {
	var env envelope[Example]
	if err := c.get(ctx, "/api/sentence", byID(id), &env); err != nil {
		return nil, err
	}
	for i := range env.Record {
		env.Record[i].Clip = c.ClipURL(env.Record[i].Clip)
	}
	return env.Record, nil
}

// Group fetches the alternate senses of a polysemous record.
func (c *Client) Group(ctx context.Context, id core.ID) ([]Sense, error) {
	var env envelope[Sense]
	if err := c.get(ctx, "/api/group", byID(id), &env); err != nil {
		return nil, err
	}
	return env.Record, nil
}

// ClipURL turns a clip reference into an absolute video URL.
func (c *Client) ClipURL(clip string) string {
	clip = strings.TrimSpace(clip)
	if clip == "" || strings.HasPrefix(clip, "http://") || strings.HasPrefix(clip, "https://") {
		return clip
	}
	clip = strings.TrimPrefix(clip, "/")
	if !strings.HasSuffix(clip, ".mp4") {
		clip += ".mp4"
	}
	return c.baseURL + "/" + clip
}

func byID(id core.ID) url.Values {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(int64(id), 10))
	q.Set("lang", "zh")
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("dictionary request",
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Code: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}
