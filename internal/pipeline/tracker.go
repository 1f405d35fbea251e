package pipeline

import (
	"context"
	"fmt"
	"sync"

	"contentstudio/internal/domain"
)

// Tracker holds the step of one run. Steps only move forward, and once the
// run has failed the step is frozen. It is safe for concurrent use by the
// fan-out branches.
type Tracker struct {
	mu     sync.Mutex
	jobID  string
	sink   ProgressSink
	step   domain.Step
	frozen bool
}

func NewTracker(jobID string, sink ProgressSink) *Tracker {
	return &Tracker{jobID: jobID, sink: sink, step: domain.StepScripting}
}

// Current returns the step the run is at.
func (t *Tracker) Current() domain.Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.step
}

// Advance moves the run to step and persists it through the sink. Moving to
// the current step only re-persists it; moving backwards is an error.
func (t *Tracker) Advance(ctx context.Context, step domain.Step) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(step); err != nil {
		return err
	}
	if t.sink != nil {
		if err := t.sink.Step(ctx, t.jobID, step); err != nil {
			return err
		}
	}
	t.step = step
	return nil
}

// Settle moves the run to step without persisting it. It is used once the
// final state has already been written by the finalizer.
func (t *Tracker) Settle(step domain.Step) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(step); err != nil {
		return err
	}
	t.step = step
	return nil
}

// Freeze stops the run at the later of the current step and step, and
// returns the step it froze at.
func (t *Tracker) Freeze(step domain.Step) domain.Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.frozen && step > t.step {
		t.step = step
	}
	t.frozen = true
	return t.step
}

func (t *Tracker) check(step domain.Step) error {
	if !step.Valid() {
		return fmt.Errorf("invalid step %d", int(step))
	}
	if t.frozen {
		return fmt.Errorf("run is stopped at %s", t.step)
	}
	if step < t.step {
		return fmt.Errorf("step cannot move back from %s to %s", t.step, step)
	}
	return nil
}
