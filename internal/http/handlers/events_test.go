package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contentstudio/internal/domain"
	"contentstudio/internal/events"
)

func TestVideoEventsTerminalJobSendsSnapshot(t *testing.T) {
	jobs := newMemJobs(&domain.Job{ID: testJobID, UserID: testUser, Status: domain.JobStatusReady, Step: domain.StepReady, VideoURL: "https://cdn/v.mp4"})
	rr := httptest.NewRecorder()
	newTestApp(jobs).VideoEvents(rr, asUser(httptest.NewRequest(http.MethodGet, "/", nil), testUser, testJobID))

	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	body := rr.Body.String()
	if strings.Count(body, "event: progress") != 1 || !strings.Contains(body, `"percent":100`) {
		t.Fatalf("unexpected stream %q", body)
	}
}

func TestVideoEventsStreamsUntilTerminal(t *testing.T) {
	jobs := newMemJobs(&domain.Job{ID: testJobID, UserID: testUser, Status: domain.JobStatusProcessing, Step: domain.StepGeneratingScenes})
	app := newTestApp(jobs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := asUser(httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx), testUser, testJobID)
	rr := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		app.VideoEvents(rr, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for app.Broker.Subscribers(testJobID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("handler did not subscribe")
		}
		time.Sleep(5 * time.Millisecond)
	}
	app.Broker.Publish(events.Event{JobID: testJobID, UserID: testUser, Step: "assembling", Status: domain.JobStatusProcessing})
	app.Broker.Publish(events.Event{JobID: testJobID, UserID: testUser, Step: "generating_voice", Status: domain.JobStatusFailed, Error: "voice: status 500"})

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("stream did not end after terminal event")
	}
	body := rr.Body.String()
	if got := strings.Count(body, "event: progress"); got != 3 {
		t.Fatalf("got %d events, want 3: %q", got, body)
	}
	if !strings.Contains(body, `"label":"Assembling Video"`) || !strings.Contains(body, `"status":"failed"`) {
		t.Fatalf("unexpected stream %q", body)
	}
	if app.Broker.Subscribers(testJobID) != 0 {
		t.Fatalf("subscription not released")
	}
}
