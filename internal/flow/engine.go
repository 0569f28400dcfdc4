// Package flow runs a named sequence of steps over a shared state value.
package flow

import (
	"context"
	"fmt"
	"time"

	"staybook/pkg/logger"
)

type Step[S any] struct {
	Name     string
	Execute  func(ctx context.Context, state *S) error
	optional bool
}

func NewStep[S any](name string, execute func(ctx context.Context, state *S) error) Step[S] {
	return Step[S]{Name: name, Execute: execute}
}

// Optional marks a step whose failure is logged and does not stop the flow.
func Optional[S any](step Step[S]) Step[S] {
	step.optional = true
	return step
}

type StepError struct {
	Flow string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s step failed: %v", e.Flow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type Flow[S any] struct {
	name  string
	steps []Step[S]
	log   *logger.Logger
}

func New[S any](name string, log *logger.Logger, steps ...Step[S]) *Flow[S] {
	if log == nil {
		log = logger.Discard()
	}
	return &Flow[S]{name: name, steps: steps, log: log.Component("flow")}
}

func (f *Flow[S]) Name() string { return f.name }

func (f *Flow[S]) Steps() []string {
	names := make([]string, len(f.steps))
	for i, s := range f.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes the steps in order and stops at the first required failure.
func (f *Flow[S]) Run(ctx context.Context, state *S) error {
	start := time.Now()
	for _, step := range f.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Flow: f.name, Step: step.Name, Err: err}
		}
		if err := step.Execute(ctx, state); err != nil {
			if step.optional {
				f.log.Warn("Optional step failed", "flow", f.name, "step", step.Name, "error", err)
				continue
			}
			f.log.Debug("Flow aborted", "flow", f.name, "step", step.Name, "error", err)
			return &StepError{Flow: f.name, Step: step.Name, Err: err}
		}
	}
	f.log.Debug("Flow completed", "flow", f.name, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
