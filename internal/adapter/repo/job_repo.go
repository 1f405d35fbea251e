package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
	"contentstudio/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on top of marker-audited SQL.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new job record and fills its timestamps.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return fmt.Errorf("create job: %w", domain.ErrInvalidInput)
	}
	status := job.Status
	if status == "" {
		status = domain.JobStatusQueued
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertVideoJob,
		job.ID,
		job.UserID,
		job.BusinessName,
		job.Style,
		job.VoiceID,
		string(status),
		job.Step.String(),
	)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	job.Status = status
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	return scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectVideoJob, jobID))
}

// GetForUser fetches a job only when it belongs to userID.
func (r *JobRepositoryPG) GetForUser(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	return scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectVideoJobForUser, jobID, userID))
}

// ClaimNext moves the oldest queued job to processing. It returns
// domain.ErrNotFound when the queue is empty.
func (r *JobRepositoryPG) ClaimNext(ctx context.Context) (*domain.Job, error) {
	return scanJob(r.sql.QueryRow(ctx, sqlinline.QClaimVideoJob))
}

func (r *JobRepositoryPG) UpdateStep(ctx context.Context, jobID string, step domain.Step) error {
	if !step.Valid() {
		return fmt.Errorf("update step: %w", domain.ErrInvalidInput)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateVideoJobStep, jobID, step.String())
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleJob
	}
	return nil
}

func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID string, step domain.Step, errMsg string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkVideoJobFailed, jobID, step.String(), errMsg)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleJob
	}
	return nil
}

// MarkReady records the public URL, size and asset paths and flips the job to
// ready in one statement. An empty URL never reaches the database.
func (r *JobRepositoryPG) MarkReady(ctx context.Context, jobID string, result domain.ReadyResult) error {
	if strings.TrimSpace(result.VideoURL) == "" {
		return fmt.Errorf("mark ready: video url is empty: %w", domain.ErrInvalidInput)
	}
	scenes := result.ScenePaths
	if scenes == nil {
		scenes = []string{}
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkVideoJobReady,
		jobID,
		result.VideoURL,
		result.VideoKey,
		result.SizeBytes,
		scenes,
		result.AudioPath,
	)
	if err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleJob
	}
	return nil
}

// ClaimForPublish marks a ready job as publishing. It returns
// domain.ErrNotPublishable when the job is not ready or another upload holds
// the claim.
func (r *JobRepositoryPG) ClaimForPublish(ctx context.Context, jobID string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QClaimVideoJobForPublish, jobID)
	if err != nil {
		return fmt.Errorf("claim publish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotPublishable
	}
	return nil
}

// ReleasePublish returns a publishing job to ready after a failed upload.
func (r *JobRepositoryPG) ReleasePublish(ctx context.Context, jobID string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QReleaseVideoJobPublish, jobID); err != nil {
		return fmt.Errorf("release publish: %w", err)
	}
	return nil
}

func (r *JobRepositoryPG) MarkPublished(ctx context.Context, jobID, publishedURL string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkVideoJobPublished, jobID, publishedURL)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotPublishable
	}
	return nil
}

// ResetForRetry re-queues a failed or ready job from the first step.
func (r *JobRepositoryPG) ResetForRetry(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QResetVideoJobForRetry, jobID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotRetryable
		}
		return nil, err
	}
	return job, nil
}

// FailStale marks processing jobs that have not moved for longer than
// olderThan as failed, so they become retryable after a worker crash.
func (r *JobRepositoryPG) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QFailStaleVideoJobs, int(olderThan.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("fail stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job    domain.Job
		status string
		step   string
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.BusinessName,
		&job.Style,
		&job.VoiceID,
		&status,
		&step,
		&job.ErrorMessage,
		&job.VideoURL,
		&job.VideoKey,
		&job.SizeBytes,
		&job.ScenePaths,
		&job.AudioPath,
		&job.PublishedURL,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	parsed, ok := domain.ParseStep(step)
	if !ok {
		return nil, fmt.Errorf("job %s has unknown step %q", job.ID, step)
	}
	job.Step = parsed
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
