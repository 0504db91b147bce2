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


package main

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/search"
)

// traceMonitor prints each search stage.
type traceMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*traceMonitor)(nil)

func (m *traceMonitor) Start(query string) {
	fmt.Fprintf(m.w, "query: %q\n", query)
}

func (m *traceMonitor) AfterEmbedding(model string, vector []float32) {
	fmt.Fprintf(m.w, "embedded with %s (%d dimensions)\n", model, len(vector))
}

func (m *traceMonitor) Finish(results []*core.WordMatch, elapsed time.Duration) {
	fmt.Fprintf(m.w, "%d results in %v\n", len(results), elapsed)
}
