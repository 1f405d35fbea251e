package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"contentstudio/internal/domain"
	"contentstudio/internal/events"
	"contentstudio/internal/middleware"
	"contentstudio/internal/pipeline"
)

const sseHeartbeat = 15 * time.Second

// VideoEvents streams job progress as Server-Sent Events until the job
// reaches a terminal status or the client goes away.
func (a *App) VideoEvents(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	if a.Broker == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "progress events are not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}
	// The API write timeout would cut long streams.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Subscribe before the snapshot so no change between the two is lost.
	ch, cancel := a.Broker.Subscribe(job.ID)
	defer cancel()

	locale := middleware.LocaleFromContext(r.Context())
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeProgress(w, pipeline.Snapshot(job, locale)); err != nil {
		return
	}
	flusher.Flush()
	if job.Status.Terminal() {
		return
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			if err := writeProgress(w, pipeline.Snapshot(jobFromEvent(job, ev), locale)); err != nil {
				return
			}
			flusher.Flush()
			if ev.Terminal() {
				return
			}
		}
	}
}

func jobFromEvent(base *domain.Job, ev events.Event) *domain.Job {
	job := *base
	job.Status = ev.Status
	if step, ok := domain.ParseStep(ev.Step); ok {
		job.Step = step
	}
	job.ErrorMessage = ev.Error
	if ev.VideoURL != "" {
		job.VideoURL = ev.VideoURL
	}
	return &job
}

func writeProgress(w http.ResponseWriter, p pipeline.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
	return err
}
