package finalize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
	"contentstudio/internal/storage"
)

const defaultContentType = "video/mp4"

// UploadError reports that the video could not be stored.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistError reports that the video was stored but the job record could
// not be marked ready. The stored object is left in place.
type PersistError struct {
	JobID string
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("mark job %s ready: %v", e.JobID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// ReadyMarker is the part of the job repository the finalizer writes to.
type ReadyMarker interface {
	MarkReady(ctx context.Context, jobID string, result domain.ReadyResult) error
}

// Finalizer stores an assembled video and marks its job ready.
type Finalizer struct {
	store  storage.ObjectStore
	jobs   ReadyMarker
	logger *infra.Logger
}

func New(store storage.ObjectStore, jobs ReadyMarker, logger *infra.Logger) *Finalizer {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Finalizer{store: store, jobs: jobs, logger: logger}
}

// VideoKey is the storage key of a job's video. Reruns of a job write to the
// same key and replace the previous video.
func VideoKey(jobID string) string {
	return "videos/" + strings.TrimSpace(jobID) + "/video.mp4"
}

// Finalize uploads the artifact and records its public URL, size and source
// asset paths on the job in a single update.
func (f *Finalizer) Finalize(ctx context.Context, jobID string, artifact *domain.Artifact, assets domain.ResolvedAssets) (string, error) {
	key := VideoKey(jobID)
	if strings.TrimSpace(jobID) == "" {
		return "", &UploadError{Key: key, Err: errors.New("job id is required")}
	}
	if artifact.Size() == 0 {
		return "", &UploadError{Key: key, Err: errors.New("artifact is empty")}
	}
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	storedKey, err := f.store.Put(ctx, key, artifact.Data, contentType)
	if err != nil {
		return "", &UploadError{Key: key, Err: err}
	}
	url := f.store.PublicURL(storedKey)
	if url == "" {
		return "", &UploadError{Key: storedKey, Err: errors.New("store returned no public url")}
	}

	err = f.jobs.MarkReady(ctx, jobID, domain.ReadyResult{
		VideoURL:   url,
		VideoKey:   storedKey,
		SizeBytes:  artifact.Size(),
		ScenePaths: assets.ScenePaths(),
		AudioPath:  assets.Audio.Path,
	})
	if err != nil {
		f.logger.Warn().
			Err(err).
			Str("job_id", jobID).
			Str("key", storedKey).
			Msg("finalize: video stored but job not marked ready")
		return "", &PersistError{JobID: jobID, Err: err}
	}

	f.logger.Info().
		Str("job_id", jobID).
		Str("key", storedKey).
		Int64("bytes", artifact.Size()).
		Msg("finalize: job ready")
	return url, nil
}

// MemoryMarker records ready results in memory. It backs runs without a
// database, such as the CLI.
type MemoryMarker struct {
	Results map[string]domain.ReadyResult
}

func (m *MemoryMarker) MarkReady(ctx context.Context, jobID string, result domain.ReadyResult) error {
	if m.Results == nil {
		m.Results = map[string]domain.ReadyResult{}
	}
	m.Results[jobID] = result
	return nil
}
