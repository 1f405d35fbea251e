package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"contentstudio/internal/domain"
	"contentstudio/internal/sqlinline"
)

type execCall struct {
	query string
	args  []any
}

type stubExecutor struct {
	tag   pgconn.CommandTag
	err   error
	row   stubRow
	execs []execCall
	rows  []execCall
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	return s.tag, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.rows = append(s.rows, execCall{query: query, args: args})
	return s.row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d dest for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = r.values[i].(string)
		case *int64:
			*ptr = r.values[i].(int64)
		case *[]string:
			*ptr = r.values[i].([]string)
		case *time.Time:
			*ptr = r.values[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported dest %T", d)
		}
	}
	return nil
}

func jobRow(status, step string) stubRow {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return stubRow{values: []any{
		"6f1c2a8e-7c1e-4d59-a0b4-0f4f3f5f9a11",
		"user-1",
		"Kopi Senja",
		"modern",
		"",
		status,
		step,
		"",
		"",
		"",
		int64(0),
		[]string{},
		"",
		"",
		now,
		now,
	}}
}

func TestGetByIDMapsStatusAndStep(t *testing.T) {
	exec := &stubExecutor{row: jobRow("processing", "generating_voice")}
	repo := NewJobRepository(exec)

	job, err := repo.GetByID(context.Background(), "6f1c2a8e-7c1e-4d59-a0b4-0f4f3f5f9a11")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if job.Status != domain.JobStatusProcessing {
		t.Fatalf("status = %q", job.Status)
	}
	if job.Step != domain.StepGeneratingVoice {
		t.Fatalf("step = %s", job.Step)
	}
	if exec.rows[0].query != sqlinline.QSelectVideoJob {
		t.Fatalf("unexpected query used")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewJobRepository(&stubExecutor{row: stubRow{err: pgx.ErrNoRows}})
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByIDRejectsUnknownStep(t *testing.T) {
	repo := NewJobRepository(&stubExecutor{row: jobRow("processing", "rendering")})
	if _, err := repo.GetByID(context.Background(), "id"); err == nil {
		t.Fatalf("expected error for unknown step")
	}
}

func TestClaimNextEmptyQueue(t *testing.T) {
	repo := NewJobRepository(&stubExecutor{row: stubRow{err: pgx.ErrNoRows}})
	if _, err := repo.ClaimNext(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStepPersistsStepName(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("SELECT 1")}
	repo := NewJobRepository(exec)

	if err := repo.UpdateStep(context.Background(), "job-1", domain.StepAssembling); err != nil {
		t.Fatalf("UpdateStep error: %v", err)
	}
	if got := exec.execs[0].args[1]; got != "assembling" {
		t.Fatalf("step arg = %v, want assembling", got)
	}
}

func TestUpdateStepStaleJob(t *testing.T) {
	repo := NewJobRepository(&stubExecutor{tag: pgconn.NewCommandTag("SELECT 0")})
	err := repo.UpdateStep(context.Background(), "job-1", domain.StepUploading)
	if !errors.Is(err, domain.ErrStaleJob) {
		t.Fatalf("expected ErrStaleJob, got %v", err)
	}
}

func TestMarkReadyRejectsEmptyURL(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("SELECT 1")}
	repo := NewJobRepository(exec)

	err := repo.MarkReady(context.Background(), "job-1", domain.ReadyResult{VideoURL: "  "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(exec.execs) != 0 {
		t.Fatalf("no statement should run for an empty url")
	}
}

func TestMarkReadySingleStatement(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("SELECT 1")}
	repo := NewJobRepository(exec)

	err := repo.MarkReady(context.Background(), "job-1", domain.ReadyResult{
		VideoURL:  "http://cdn/videos/job-1/video.mp4",
		VideoKey:  "videos/job-1/video.mp4",
		SizeBytes: 2048,
		AudioPath: "audio/job-1.wav",
	})
	if err != nil {
		t.Fatalf("MarkReady error: %v", err)
	}
	if len(exec.execs) != 1 || exec.execs[0].query != sqlinline.QMarkVideoJobReady {
		t.Fatalf("expected one ready statement, got %d", len(exec.execs))
	}
	if scenes, ok := exec.execs[0].args[4].([]string); !ok || scenes == nil {
		t.Fatalf("scene paths should be a non-nil slice, got %#v", exec.execs[0].args[4])
	}
}

func TestMarkPublishedRequiresClaim(t *testing.T) {
	repo := NewJobRepository(&stubExecutor{tag: pgconn.NewCommandTag("UPDATE 0")})
	err := repo.MarkPublished(context.Background(), "job-1", "https://youtu.be/x")
	if !errors.Is(err, domain.ErrNotPublishable) {
		t.Fatalf("expected ErrNotPublishable, got %v", err)
	}
}

func TestClaimForPublishOnlyOnce(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewJobRepository(exec)
	if err := repo.ClaimForPublish(context.Background(), "job-1"); err != nil {
		t.Fatalf("ClaimForPublish error: %v", err)
	}
	if exec.execs[0].query != sqlinline.QClaimVideoJobForPublish {
		t.Fatalf("unexpected query %q", exec.execs[0].query)
	}

	exec.tag = pgconn.NewCommandTag("UPDATE 0")
	if err := repo.ClaimForPublish(context.Background(), "job-1"); !errors.Is(err, domain.ErrNotPublishable) {
		t.Fatalf("second claim err = %v, want ErrNotPublishable", err)
	}
}

func TestReleasePublishRunsReleaseStatement(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("UPDATE 1")}
	if err := NewJobRepository(exec).ReleasePublish(context.Background(), "job-1"); err != nil {
		t.Fatalf("ReleasePublish error: %v", err)
	}
	if len(exec.execs) != 1 || exec.execs[0].query != sqlinline.QReleaseVideoJobPublish {
		t.Fatalf("expected one release statement, got %+v", exec.execs)
	}
}

func TestResetForRetryNotRetryable(t *testing.T) {
	repo := NewJobRepository(&stubExecutor{row: stubRow{err: pgx.ErrNoRows}})
	if _, err := repo.ResetForRetry(context.Background(), "job-1"); !errors.Is(err, domain.ErrNotRetryable) {
		t.Fatalf("expected ErrNotRetryable, got %v", err)
	}
}

func TestResetForRetryReturnsQueuedJob(t *testing.T) {
	repo := NewJobRepository(&stubExecutor{row: jobRow("queued", "scripting")})
	job, err := repo.ResetForRetry(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("ResetForRetry error: %v", err)
	}
	if job.Status != domain.JobStatusQueued || job.Step != domain.StepScripting {
		t.Fatalf("unexpected job state %s/%s", job.Status, job.Step)
	}
}

func TestCreateDefaultsToQueued(t *testing.T) {
	now := time.Now()
	exec := &stubExecutor{row: stubRow{values: []any{now, now}}}
	repo := NewJobRepository(exec)

	job := &domain.Job{ID: "6f1c2a8e-7c1e-4d59-a0b4-0f4f3f5f9a11", UserID: "u", BusinessName: "Toko", Style: "modern"}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if job.Status != domain.JobStatusQueued {
		t.Fatalf("status = %q", job.Status)
	}
	if got := exec.rows[0].args[5]; got != "queued" {
		t.Fatalf("status arg = %v", got)
	}
	if got := exec.rows[0].args[6]; got != "scripting" {
		t.Fatalf("step arg = %v", got)
	}
}
