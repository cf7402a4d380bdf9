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


// Package fallback implements ai.GenerationClient over an ordered list of
// generation backends.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/core"
)

// ErrNoBackends is wrapped into the generation error when the client has nothing to call.
var ErrNoBackends = errors.New("no generation backends configured")

// Client tries each backend in order and returns the first non-empty answer.
// A failed backend is not retried.
type Client struct {
	backends []ai.Generator
	logger   *slog.Logger
}

var _ ai.GenerationClient = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used to report backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client over backends. Nil entries are skipped.
func New(backends []ai.Generator, opts ...Option) *Client {
	c := &Client{
		logger: slog.Default().With("component", "generation-client"),
	}
	for _, b := range backends {
		if b != nil {
			c.backends = append(c.backends, b)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backends returns the backend names in fallback order.
func (c *Client) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// Complete implements ai.GenerationClient. When every backend fails the error
// wraps core.ErrGeneration and the last backend's failure.
func (c *Client) Complete(ctx context.Context, prompt string) (string, string, error) {
	if len(c.backends) == 0 {
		return "", "", fmt.Errorf("%w: %w", core.ErrGeneration, ErrNoBackends)
	}

	var lastErr error
	var lastName string
	for i, b := range c.backends {
		if err := ctx.Err(); err != nil {
			return "", "", fmt.Errorf("%w: %w", core.ErrGeneration, err)
		}

		start := time.Now()
		text, err := b.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty response")
		}
		if err == nil {
			c.logger.Debug("generation succeeded", "backend", b.Name(), "elapsed", time.Since(start))
			return text, b.Name(), nil
		}

		lastErr, lastName = err, b.Name()
		if i < len(c.backends)-1 {
			c.logger.Warn("generation backend failed, trying next", "backend", b.Name(), "next", c.backends[i+1].Name(), "err", err)
		} else {
			c.logger.Error("generation backend failed", "backend", b.Name(), "err", err)
		}
	}

	return "", "", fmt.Errorf("%w: all backends failed, last %s: %w", core.ErrGeneration, lastName, lastErr)
}
