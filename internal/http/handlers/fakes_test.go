package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"contentstudio/internal/domain"
	"contentstudio/internal/events"
	"contentstudio/internal/infra"
	"contentstudio/internal/middleware"
)

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
	err  error
}

func newMemJobs(jobs ...*domain.Job) *memJobs {
	m := &memJobs{jobs: map[string]*domain.Job{}}
	for _, j := range jobs {
		m.jobs[j.ID] = j
	}
	return m
}

func (m *memJobs) get(id string) *domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func (m *memJobs) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) GetForUser(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	j, err := m.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return j, nil
}

func (m *memJobs) ClaimNext(ctx context.Context) (*domain.Job, error) {
	return nil, domain.ErrNotFound
}

func (m *memJobs) UpdateStep(ctx context.Context, jobID string, step domain.Step) error {
	return errors.New("not used")
}

func (m *memJobs) MarkFailed(ctx context.Context, jobID string, step domain.Step, errMsg string) error {
	return errors.New("not used")
}

func (m *memJobs) MarkReady(ctx context.Context, jobID string, result domain.ReadyResult) error {
	return errors.New("not used")
}

func (m *memJobs) ClaimForPublish(ctx context.Context, jobID string) error {
	return errors.New("not used")
}

func (m *memJobs) ReleasePublish(ctx context.Context, jobID string) error {
	return errors.New("not used")
}

func (m *memJobs) MarkPublished(ctx context.Context, jobID, publishedURL string) error {
	return errors.New("not used")
}

func (m *memJobs) ResetForRetry(ctx context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || !j.Status.Retryable() {
		return nil, domain.ErrNotRetryable
	}
	j.Status = domain.JobStatusQueued
	j.Step = domain.StepScripting
	j.ErrorMessage = ""
	j.VideoURL = ""
	cp := *j
	return &cp, nil
}

type mapObjects map[string][]byte

func (m mapObjects) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, errors.New("missing object")
	}
	return data, nil
}

type fakePublisher struct {
	url string
	err error
}

func (f *fakePublisher) Publish(ctx context.Context, jobID, userID, locale string) (string, error) {
	return f.url, f.err
}

const (
	testUser  = "user-1"
	testJobID = "3f1e2d4c-5b6a-4798-8a9b-0c1d2e3f4a5b"
)

func newTestApp(jobs *memJobs) *App {
	return NewApp(infra.NopLogger(), jobs, mapObjects{}, events.NewBroker(), nil, nil)
}

func asUser(r *http.Request, userID, jobID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	if jobID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("job_id", jobID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}
