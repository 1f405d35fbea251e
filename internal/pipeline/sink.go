package pipeline

import (
	"context"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
)

// ProgressSink records step changes and failures of a run.
type ProgressSink interface {
	Step(ctx context.Context, jobID string, step domain.Step) error
	Fail(ctx context.Context, jobID string, step domain.Step, message string) error
}

// RepositorySink persists progress on the job record. The repository
// publishes each change to subscribers.
type RepositorySink struct {
	Jobs domain.JobRepository
}

func (s RepositorySink) Step(ctx context.Context, jobID string, step domain.Step) error {
	return s.Jobs.UpdateStep(ctx, jobID, step)
}

func (s RepositorySink) Fail(ctx context.Context, jobID string, step domain.Step, message string) error {
	return s.Jobs.MarkFailed(ctx, jobID, step, message)
}

// LogSink writes progress to the log. It backs runs that have no job record.
type LogSink struct {
	Logger infra.Logger
}

func (s LogSink) Step(ctx context.Context, jobID string, step domain.Step) error {
	s.Logger.Info().Str("job_id", jobID).Str("step", step.String()).Msg(Label(step, "en"))
	return nil
}

func (s LogSink) Fail(ctx context.Context, jobID string, step domain.Step, message string) error {
	s.Logger.Error().Str("job_id", jobID).Str("step", step.String()).Str("error", message).Msg("run failed")
	return nil
}
