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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/pdfqa/chunking"
	"github.com/poiesic/pdfqa/core"
	"github.com/poiesic/pdfqa/index"
	"github.com/poiesic/pdfqa/pipeline"
	"github.com/poiesic/pdfqa/storage"
)

// PageSeparator joins page texts.
const PageSeparator = "\n\n"

// DefaultMinTextLength is the fewest non-blank characters worth indexing.
const DefaultMinTextLength = 50

// Build lock settings.
const (
	IndexLockName = "index"
	IndexLockTTL  = 10 * time.Minute
)

// Builder replaces the current index with one built from chunks.
// *index.Store implements it.
type Builder interface {
	Build(ctx context.Context, chunks []string) (*index.Index, error)
}

// ExtractStage fills State.ExtractedText from State.SourcePath.
func ExtractStage(ex Extractor, minLength int, logger *slog.Logger) pipeline.Stage {
	return pipeline.Stage{
		Name: "extract",
		Run: func(ctx context.Context, s core.State) (core.State, error) {
			if s.SourcePath == "" {
				return s, fmt.Errorf("%w: no PDF path provided", core.ErrInput)
			}

			pages, err := ex.Extract(ctx, s.SourcePath)
			if err != nil {
				return s, fmt.Errorf("%w: %w", core.ErrExtraction, err)
			}
			if len(pages) == 0 {
				return s, fmt.Errorf("%w: PDF appears to be empty or unreadable", core.ErrExtraction)
			}

			text := strings.Join(pages, PageSeparator)
			if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < minLength {
				return s, fmt.Errorf("%w: %d characters, need at least %d", core.ErrContentTooShort, n, minLength)
			}

			logger.Info("text extracted", "pages", len(pages), "characters", utf8.RuneCountInString(text))
			s.ExtractedText = text
			return s, nil
		},
	}
}

// ChunkStage splits State.ExtractedText into State.Chunks.
// It passes the state through when there is no text.
func ChunkStage(splitter chunking.Splitter, logger *slog.Logger) pipeline.Stage {
	return pipeline.Stage{
		Name: "chunk",
		Run: func(_ context.Context, s core.State) (core.State, error) {
			if s.ExtractedText == "" {
				return s, nil
			}
			chunks, err := splitter.Split(s.ExtractedText)
			if err != nil {
				return s, fmt.Errorf("%w: %w", core.ErrNoChunks, err)
			}
			if len(chunks) == 0 {
				return s, fmt.Errorf("%w: text splitting produced no chunks", core.ErrNoChunks)
			}

			logger.Info("text chunked", "chunks", len(chunks))
			s.Chunks = chunks
			return s, nil
		},
	}
}

// BuildStage indexes State.Chunks while holding the index lock.
// It passes the state through when there are no chunks.
func BuildStage(b Builder, locker storage.Locker, logger *slog.Logger) pipeline.Stage {
	return pipeline.Stage{
		Name: "build",
		Run: func(ctx context.Context, s core.State) (core.State, error) {
			if len(s.Chunks) == 0 {
				return s, nil
			}

			err := storage.WithLock(ctx, locker, IndexLockName, IndexLockTTL, func(ctx context.Context) error {
				_, err := b.Build(ctx, s.Chunks)
				return err
			})
			if err != nil {
				if errors.Is(err, core.ErrIndexBuild) {
					return s, err
				}
				return s, fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
			}

			logger.Debug("index replaced", "chunks", len(s.Chunks))
			return s, nil
		},
	}
}
