package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"contentstudio/internal/domain"
	"contentstudio/internal/middleware"
	"contentstudio/internal/pipeline"
	"contentstudio/internal/publish"
	"contentstudio/pkg/zip"
)

const maxCreateBody = 16 << 10

type videoCreateResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

type videoStatusResponse struct {
	pipeline.Progress
	BusinessName string    `json:"business_name"`
	Style        string    `json:"style"`
	Steps        []string  `json:"steps"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req domain.JobParams
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBody)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Normalize()
	if err := a.Validate.Struct(req); err != nil {
		a.error(w, http.StatusUnprocessableEntity, "invalid_input", validationMessage(err))
		return
	}

	job := &domain.Job{
		ID:           uuid.NewString(),
		UserID:       userID,
		BusinessName: req.BusinessName,
		Style:        req.Style,
		VoiceID:      req.VoiceID,
		Status:       domain.JobStatusQueued,
		Step:         domain.StepScripting,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Msg("create video job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue video job")
		return
	}
	w.Header().Set("Location", "/v1/videos/"+job.ID)
	a.json(w, http.StatusAccepted, videoCreateResponse{JobID: job.ID, Status: job.Status})
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, videoStatusResponse{
		Progress:     pipeline.Snapshot(job, locale),
		BusinessName: job.BusinessName,
		Style:        job.Style,
		Steps:        pipeline.Labels(locale),
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	})
}

func (a *App) VideoRetry(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	reset, err := a.Jobs.ResetForRetry(r.Context(), job.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotRetryable) {
			a.error(w, http.StatusConflict, "not_retryable", fmt.Sprintf("job is %s", job.Status))
			return
		}
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("retry video job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to retry job")
		return
	}
	a.json(w, http.StatusAccepted, videoCreateResponse{JobID: reset.ID, Status: reset.Status})
}

func (a *App) VideoPublish(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	if a.Publisher == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "publishing is not configured")
		return
	}
	url, err := a.Publisher.Publish(r.Context(), job.ID, job.UserID, middleware.LocaleFromContext(r.Context()))
	switch {
	case err == nil:
		a.json(w, http.StatusOK, map[string]string{"job_id": job.ID, "published_url": url})
	case errors.Is(err, domain.ErrNotPublishable):
		a.error(w, http.StatusConflict, "not_publishable", "video is not ready")
	case errors.Is(err, publish.ErrNotConfigured):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "publishing is not configured")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	default:
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("publish video failed")
		a.error(w, http.StatusBadGateway, "publish_failed", "failed to publish video")
	}
}

// VideoBundle streams a zip of the finished video, its scene frames and the
// voiceover.
func (a *App) VideoBundle(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	if !hasVideo(job) {
		a.error(w, http.StatusConflict, "not_ready", "video is not ready")
		return
	}
	video, err := a.Objects.Get(r.Context(), job.VideoKey)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Str("key", job.VideoKey).Msg("read video failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read video")
		return
	}
	assets := []zip.Asset{{Filename: "video.mp4", Data: video, Modified: job.UpdatedAt}}
	for i, key := range job.ScenePaths {
		data, err := a.Objects.Get(r.Context(), key)
		if err != nil {
			a.Logger.Warn().Err(err).Str("job_id", job.ID).Str("key", key).Msg("bundle: scene skipped")
			continue
		}
		name := fmt.Sprintf("scenes/%02d%s", i+1, path.Ext(key))
		assets = append(assets, zip.Asset{Filename: name, Data: data, Modified: job.UpdatedAt})
	}
	if job.AudioPath != "" {
		if data, err := a.Objects.Get(r.Context(), job.AudioPath); err == nil {
			assets = append(assets, zip.Asset{Filename: "voiceover" + path.Ext(job.AudioPath), Data: data, Modified: job.UpdatedAt})
		} else {
			a.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("bundle: voiceover skipped")
		}
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("build bundle failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=video-%s.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", jsonFieldName(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func jsonFieldName(field string) string {
	switch field {
	case "BusinessName":
		return "business_name"
	case "VoiceID":
		return "voice_id"
	default:
		return strings.ToLower(field)
	}
}

func hasVideo(job *domain.Job) bool {
	switch job.Status {
	case domain.JobStatusReady, domain.JobStatusPublishing, domain.JobStatusPublished:
		return job.VideoKey != ""
	}
	return false
}
