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


// Package server exposes the lexicon over HTTP.
//
// Routes:
//
//	GET      /details?id=<int>
//	GET|POST /search?q=<string>[&q=...][&limit=<int>]
//	POST     /translate?source=<string>
//	GET      /healthz
//
// Errors are JSON objects {"message": "..."}; see StatusFor for the mapping.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/poiesic/signlex/core"
)

// Service is what the handlers call. *signlex.Lexicon implements it.
type Service interface {
	Details(ctx context.Context, id core.ID) (*core.RecordDetails, error)
	Search(ctx context.Context, query string, limit int) ([]*core.WordMatch, error)
	Translate(ctx context.Context, sentence string) (*core.Translation, error)
}

const shutdownTimeout = 10 * time.Second

// Server serves the lexicon over HTTP.
type Server struct {
	service      Service
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	name         string
	logger       *slog.Logger
	handler      http.Handler
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

// WithAddr sets the listen address. Default is ":8080".
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithTimeouts sets the read and write timeouts of the HTTP server.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) error {
		s.readTimeout = read
		s.writeTimeout = write
		return nil
	}
}

// WithServiceName sets the name reported by /healthz.
func WithServiceName(name string) Option {
	return func(s *Server) error {
		s.name = name
		return nil
	}
}

// New creates a server for service.
func New(service Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}

	s := &Server{
		service:      service,
		addr:         ":8080",
		readTimeout:  10 * time.Second,
		writeTimeout: 60 * time.Second,
		logger:       slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /details", s.handleDetails)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /translate", s.handleTranslate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.handler = s.withRequestID(mux)
	return s, nil
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errChan; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
