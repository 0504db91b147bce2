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


package ai

import (
	"errors"
	"io"
)

type composite struct {
	embedder  Embedder
	segmenter Segmenter
	closers   []io.Closer
}

// Compose builds an AIProvider from independently constructed services.
// Close closes the closers in order and joins their errors.
func Compose(embedder Embedder, segmenter Segmenter, closers ...io.Closer) AIProvider {
	return &composite{
		embedder:  embedder,
		segmenter: segmenter,
		closers:   closers,
	}
}

func (c *composite) Embedder() Embedder {
	return c.embedder
}

func (c *composite) Segmenter() Segmenter {
	return c.segmenter
}

func (c *composite) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if closer != nil {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}
