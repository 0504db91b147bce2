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


// Package mcp exposes the lexicon as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/poiesic/signlex/server"
)

// ErrServiceRequired is returned when NewServer is given no service.
var ErrServiceRequired = errors.New("service required")

// Server wraps the MCP server with the lexicon service.
type Server struct {
	mcp     *gomcp.Server
	service server.Service
	name    string
	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithImplementation sets the name and version announced to clients.
func WithImplementation(name, version string) Option {
	return func(s *Server) error {
		s.name = name
		s.version = version
		return nil
	}
}

// NewServer creates an MCP server with the lookup, search and translate tools.
func NewServer(service server.Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}

	s := &Server{
		service: service,
		name:    "signlex",
		version: "1.0.0",
		logger:  slog.Default().With("component", "mcp"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.mcp = gomcp.NewServer(&gomcp.Implementation{Name: s.name, Version: s.version}, nil)
	s.registerTools()
	return s, nil
}

// Serve runs the server on stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeTransport(ctx, &gomcp.StdioTransport{})
}

// ServeTransport runs the server on an arbitrary transport.
func (s *Server) ServeTransport(ctx context.Context, transport gomcp.Transport) error {
	s.logger.Info("serving mcp", "name", s.name)
	return s.mcp.Run(ctx, transport)
}
