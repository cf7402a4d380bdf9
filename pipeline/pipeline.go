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


// Package pipeline runs a fixed sequence of stages over a core.State.
//
// Each stage receives the state by value and returns the next state or an
// error. Once a stage fails the remaining stages are skipped and the error
// is recorded on the state the failing stage received, so partial output
// never escapes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/pdfqa/core"
)

// StageFunc transforms a state. It must not retain the state after returning.
type StageFunc func(ctx context.Context, s core.State) (core.State, error)

// Stage is a named step in a Sequence.
type Stage struct {
	Name string
	Run  StageFunc
}

// Sequence runs stages in order.
type Sequence struct {
	name   string
	stages []Stage
	logger *slog.Logger
}

// New creates a sequence. A nil logger means slog.Default().
func New(name string, logger *slog.Logger, stages ...Stage) *Sequence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequence{
		name:   name,
		stages: stages,
		logger: logger.With("pipeline", name),
	}
}

// Name returns the sequence name.
func (p *Sequence) Name() string { return p.name }

// Stages returns the stage names in execution order.
func (p *Sequence) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes every stage against seed and returns the final state. It never
// returns an error directly; failures are reported through State.Err.
func (p *Sequence) Run(ctx context.Context, seed core.State) core.State {
	state := seed
	start := time.Now()
	for _, stage := range p.stages {
		if state.Halted() {
			p.logger.Debug("skipping stage", "stage", stage.Name)
			continue
		}
		state = p.runStage(ctx, stage, state)
	}

	if state.Halted() {
		p.logger.Warn("pipeline halted", "err", state.Err, "elapsed", time.Since(start))
	} else {
		p.logger.Debug("pipeline completed", "elapsed", time.Since(start))
	}
	return state
}

func (p *Sequence) runStage(ctx context.Context, stage Stage, in core.State) (out core.State) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("stage panicked", "stage", stage.Name, "panic", r)
			in.Err = fmt.Errorf("%w: stage %s failed unexpectedly", core.ErrInternal, stage.Name)
			out = in
		}
	}()

	stageStart := time.Now()
	next, err := stage.Run(ctx, in)
	if err != nil {
		p.logger.Debug("stage failed", "stage", stage.Name, "err", err, "elapsed", time.Since(stageStart))
		in.Err = err
		return in
	}
	p.logger.Debug("stage completed", "stage", stage.Name, "elapsed", time.Since(stageStart))
	return next
}
