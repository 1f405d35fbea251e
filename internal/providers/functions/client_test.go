package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"

	"contentstudio/internal/domain"
	"contentstudio/internal/storage"
)

type captureTransport struct {
	responses map[string]responseStub
	bodies    map[string][]byte
	auth      string
}

type responseStub struct {
	status int
	body   []byte
}

func newCaptureTransport() *captureTransport {
	return &captureTransport{responses: map[string]responseStub{}, bodies: map[string][]byte{}}
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	req.Body.Close()
	c.bodies[req.URL.Path] = body
	c.auth = req.Header.Get("Authorization")
	stub, ok := c.responses[req.URL.Path]
	if !ok {
		stub = responseStub{status: http.StatusNotFound}
	}
	return &http.Response{
		StatusCode: stub.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(stub.body)),
		Request:    req,
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, status int, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{status: status, body: body}
}

func newRemoteClient(t *testing.T, transport *captureTransport) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "fn-secret",
		BaseURL:    "https://project.functions.example.com/v1/",
		Width:      720,
		Height:     1280,
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return client
}

func TestGenerateScriptPayload(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/generate-video-script", http.StatusOK, map[string]string{"videoId": "v1"})
	client := newRemoteClient(t, transport)

	videoID, err := client.GenerateScript(context.Background(), domain.JobParams{BusinessName: "Kopi Senja", Style: "cinematic"})
	if err != nil {
		t.Fatalf("GenerateScript error: %v", err)
	}
	if videoID != "v1" {
		t.Fatalf("videoID = %q, want v1", videoID)
	}
	if transport.auth != "Bearer fn-secret" {
		t.Fatalf("authorization = %q", transport.auth)
	}
	var payload map[string]string
	if err := json.Unmarshal(transport.bodies["/v1/generate-video-script"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["businessName"] != "Kopi Senja" || payload["type"] != "video" || payload["style"] != "cinematic" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestGenerateScriptRequiresVideoID(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/generate-video-script", http.StatusOK, map[string]string{})
	client := newRemoteClient(t, transport)

	if _, err := client.GenerateScript(context.Background(), domain.JobParams{BusinessName: "x"}); err == nil {
		t.Fatalf("expected error for missing videoId")
	}
}

func TestGenerateScenesUsesPresetModel(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/generate-video-scenes", http.StatusOK, map[string][]string{
		"scenePaths": {"scenes/v1/01.png", "scenes/v1/02.png"},
	})
	client := newRemoteClient(t, transport)

	paths, err := client.GenerateScenes(context.Background(), "v1", domain.JobParams{Style: "Cinematic"})
	if err != nil {
		t.Fatalf("GenerateScenes error: %v", err)
	}
	if len(paths) != 2 || paths[0] != "scenes/v1/01.png" {
		t.Fatalf("paths = %#v", paths)
	}
	var payload struct {
		VideoID string `json:"videoId"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
		Model   string `json:"model"`
	}
	if err := json.Unmarshal(transport.bodies["/v1/generate-video-scenes"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.VideoID != "v1" || payload.Width != 720 || payload.Height != 1280 || payload.Model != "flux-dev" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestGenerateVoiceDefaultsVoiceID(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/generate-voiceover", http.StatusOK, map[string]string{"audioPath": "audio/v1.mp3"})
	client := newRemoteClient(t, transport)

	path, err := client.GenerateVoice(context.Background(), "v1", domain.JobParams{Style: "modern"})
	if err != nil {
		t.Fatalf("GenerateVoice error: %v", err)
	}
	if path != "audio/v1.mp3" {
		t.Fatalf("path = %q", path)
	}
	body := string(transport.bodies["/v1/generate-voiceover"])
	if !strings.Contains(body, `"voiceId":"21m00Tcm4TlvDq8ikWAM"`) || !strings.Contains(body, `"modelId":"eleven_multilingual_v2"`) {
		t.Fatalf("unexpected payload %s", body)
	}
}

func TestInvokeSurfacesErrorMessage(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/generate-voiceover", http.StatusBadGateway, map[string]string{"error": "voice provider quota exceeded"})
	client := newRemoteClient(t, transport)

	_, err := client.GenerateVoice(context.Background(), "v1", domain.JobParams{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "voice provider quota exceeded") || !strings.Contains(err.Error(), "502") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Options{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without base url")
	}
	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error for synthetic mode without store")
	}
}

func TestSyntheticModeWritesAssets(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	client, err := NewClient(Options{Store: store, Width: 90, Height: 160})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if !client.Synthetic() {
		t.Fatalf("expected synthetic mode")
	}
	ctx := context.Background()
	params := domain.JobParams{BusinessName: "Toko Roti", Style: "modern"}

	videoID, err := client.GenerateScript(ctx, params)
	if err != nil {
		t.Fatalf("GenerateScript error: %v", err)
	}
	again, _ := client.GenerateScript(ctx, params)
	if videoID != again {
		t.Fatalf("synthetic video id should be deterministic: %q vs %q", videoID, again)
	}

	scenes, err := client.GenerateScenes(ctx, videoID, params)
	if err != nil {
		t.Fatalf("GenerateScenes error: %v", err)
	}
	if len(scenes) != syntheticSceneCount {
		t.Fatalf("scenes = %d, want %d", len(scenes), syntheticSceneCount)
	}
	data, err := store.Get(ctx, scenes[0])
	if err != nil {
		t.Fatalf("Get scene error: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("scene is not a png: %v", err)
	}
	if cfg.Width != 90 || cfg.Height != 160 {
		t.Fatalf("scene size = %dx%d", cfg.Width, cfg.Height)
	}

	audio, err := client.GenerateVoice(ctx, videoID, params)
	if err != nil {
		t.Fatalf("GenerateVoice error: %v", err)
	}
	wav, err := store.Get(ctx, audio)
	if err != nil {
		t.Fatalf("Get audio error: %v", err)
	}
	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("voiceover is not a wav file")
	}
	if want := 44 + syntheticSampleRate*syntheticVoiceLength*2; len(wav) != want {
		t.Fatalf("wav size = %d, want %d", len(wav), want)
	}
}
