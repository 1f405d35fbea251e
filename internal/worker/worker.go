package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
)

const defaultPollInterval = 2 * time.Second

// Claimer hands out the next queued job. It returns domain.ErrNotFound when
// the queue is empty.
type Claimer interface {
	ClaimNext(ctx context.Context) (*domain.Job, error)
}

// Runner executes one claimed job to completion.
type Runner interface {
	Run(ctx context.Context, job *domain.Job) (string, error)
}

type Options struct {
	Concurrency  int
	JobTimeout   time.Duration
	PollInterval time.Duration
	Logger       *infra.Logger
}

// Worker claims queued jobs and runs up to Concurrency of them at a time.
type Worker struct {
	jobs    Claimer
	runner  Runner
	timeout time.Duration
	poll    time.Duration
	logger  *infra.Logger
	slots   chan struct{}
	wg      sync.WaitGroup
}

func New(jobs Claimer, runner Runner, opts Options) *Worker {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Worker{
		jobs:    jobs,
		runner:  runner,
		timeout: opts.JobTimeout,
		poll:    poll,
		logger:  logger,
		slots:   make(chan struct{}, concurrency),
	}
}

// Run polls for jobs until ctx is canceled, then waits for in-flight jobs
// to return. Canceling ctx also cancels the jobs themselves.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", cap(w.slots)).Msg("worker: started")
	defer w.wg.Wait()

	for {
		select {
		case w.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		job, err := w.jobs.ClaimNext(ctx)
		if err != nil {
			<-w.slots
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, domain.ErrNotFound) {
				w.logger.Error().Err(err).Msg("worker: failed to claim job")
			}
			if !sleep(ctx, w.poll) {
				return ctx.Err()
			}
			continue
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.slots }()
			w.handle(ctx, job)
		}()
	}
}

func (w *Worker) handle(ctx context.Context, job *domain.Job) {
	logger := w.logger.With().Str("job_id", job.ID).Logger()
	logger.Info().Str("business_name", job.BusinessName).Msg("worker: picked job")

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	url, err := w.runner.Run(ctx, job)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("worker: job failed")
		return
	}
	logger.Info().Str("video_url", url).Dur("elapsed", time.Since(start)).Msg("worker: job finished")
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
