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
	"context"
	"errors"
	"net/http"

	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

// ErrServiceRequired is returned when New is given no service.
var ErrServiceRequired = errors.New("service required")

// StatusFor maps a service error onto an HTTP status and client message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream service timed out"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Record not found"
	case errors.Is(err, core.ErrInvalidQuery), errors.Is(err, storage.ErrInvalidQuery):
		return http.StatusBadRequest, "Invalid query parameters"
	case errors.Is(err, ai.ErrMalformedSequence), errors.Is(err, core.ErrUpstream):
		return http.StatusBadGateway, "Upstream service unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", requestID(r.Context()),
			"status", status,
			"err", err)
	}
	s.writeJSON(w, status, messageJSON{Message: message})
}
