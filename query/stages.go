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


package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/core"
	"github.com/poiesic/pdfqa/index"
	"github.com/poiesic/pdfqa/pipeline"
	"github.com/poiesic/pdfqa/prompt"
)

// Retriever finds the chunks most similar to a question.
// *index.Store implements it.
type Retriever interface {
	Query(ctx context.Context, question string, k int) ([]index.Match, error)
}

// RetrieveStage fills State.Retrieved with up to topK chunk texts, most
// relevant first. With dedupe set, chunks whose trimmed text repeats an
// earlier-ranked one are dropped.
func RetrieveStage(r Retriever, topK int, dedupe bool, logger *slog.Logger) pipeline.Stage {
	return pipeline.Stage{
		Name: "retrieve",
		Run: func(ctx context.Context, s core.State) (core.State, error) {
			if strings.TrimSpace(s.Question) == "" {
				return s, fmt.Errorf("%w: question is empty", core.ErrInput)
			}

			fetch := topK
			if dedupe {
				fetch = topK * 2
			}
			matches, err := r.Query(ctx, s.Question, fetch)
			if err != nil {
				return s, err
			}

			texts := make([]string, 0, min(len(matches), topK))
			seen := make(map[string]struct{}, len(matches))
			for _, m := range matches {
				if len(texts) == topK {
					break
				}
				if dedupe {
					key := strings.TrimSpace(m.Text)
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
				}
				texts = append(texts, m.Text)
			}
			if len(texts) == 0 {
				return s, core.ErrNoResults
			}

			logger.Debug("retrieved chunks", "count", len(texts), "candidates", len(matches))
			s.Retrieved = texts
			return s, nil
		},
	}
}

// PromptStage renders State.Prompt from the retrieved chunks and the question.
// It passes the state through when either is missing.
func PromptStage() pipeline.Stage {
	return pipeline.Stage{
		Name: "prompt",
		Run: func(_ context.Context, s core.State) (core.State, error) {
			if len(s.Retrieved) == 0 || s.Question == "" {
				return s, nil
			}
			s.Prompt = prompt.Render(s.Retrieved, s.Question)
			return s, nil
		},
	}
}

// GenerateStage asks client for an answer to State.Prompt and records the
// backend that produced it.
func GenerateStage(client ai.GenerationClient, logger *slog.Logger) pipeline.Stage {
	return pipeline.Stage{
		Name: "generate",
		Run: func(ctx context.Context, s core.State) (core.State, error) {
			if s.Prompt == "" {
				return s, nil
			}
			answer, backend, err := client.Complete(ctx, s.Prompt)
			if err != nil {
				return s, err
			}
			logger.Info("answer generated", "backend", backend, "length", len(answer))
			s.Answer = answer
			s.Backend = backend
			return s, nil
		},
	}
}
