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
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrNotFound is returned when the dictionary has no such record.
	ErrNotFound = errors.New("dictionary record not found")

	// ErrDecode is returned when a response body is not the expected JSON.
	ErrDecode = errors.New("undecodable dictionary response")
)

// StatusError reports a non-200 response.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dictionary %s: unexpected status %d %s", e.Path, e.Code, http.StatusText(e.Code))
}

// Retriable reports whether a request that failed with err may succeed when
// repeated: transport failures, timeouts, 5xx and 429 responses.
// Cancellation, other 4xx responses, missing records and undecodable
// bodies are final.
func Retriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDecode) {
		return false
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Code >= 500 || status.Code == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Other transport failures (connection reset, EOF) surface as *url.Error
	return true
}
