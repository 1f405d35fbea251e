package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"contentstudio/internal/domain"
	"contentstudio/internal/events"
	"contentstudio/internal/infra"
	"contentstudio/internal/middleware"
)

// Publisher uploads a ready job's video to a hosting platform.
type Publisher interface {
	Publish(ctx context.Context, jobID, userID, locale string) (string, error)
}

// ObjectReader reads stored objects for bundle downloads.
type ObjectReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Logger    infra.Logger
	Jobs      domain.JobRepository
	Objects   ObjectReader
	Broker    *events.Broker
	Publisher Publisher
	DB        Pinger
	Validate  *validator.Validate
}

func NewApp(logger infra.Logger, jobs domain.JobRepository, objects ObjectReader, broker *events.Broker, publisher Publisher, db Pinger) *App {
	return &App{
		Logger:    logger,
		Jobs:      jobs,
		Objects:   objects,
		Broker:    broker,
		Publisher: publisher,
		DB:        db,
		Validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// loadJob resolves the {job_id} route parameter to a job owned by the
// caller. It writes the error response itself and reports whether the
// handler may continue.
func (a *App) loadJob(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	jobID := strings.TrimSpace(chi.URLParam(r, "job_id"))
	if _, err := uuid.Parse(jobID); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return nil, false
	}
	job, err := a.Jobs.GetForUser(r.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return nil, false
	}
	return job, true
}
