package domain

import "context"

// JobRepository defines persistence for generation jobs.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	GetForUser(ctx context.Context, jobID, userID string) (*Job, error)
	ClaimNext(ctx context.Context) (*Job, error)
	UpdateStep(ctx context.Context, jobID string, step Step) error
	MarkFailed(ctx context.Context, jobID string, step Step, errMsg string) error
	MarkReady(ctx context.Context, jobID string, result ReadyResult) error
	ClaimForPublish(ctx context.Context, jobID string) error
	ReleasePublish(ctx context.Context, jobID string) error
	MarkPublished(ctx context.Context, jobID, publishedURL string) error
	ResetForRetry(ctx context.Context, jobID string) (*Job, error)
}

// ReadyResult is written in a single update when a run succeeds.
type ReadyResult struct {
	VideoURL   string
	VideoKey   string
	SizeBytes  int64
	ScenePaths []string
	AudioPath  string
}
