package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
	"contentstudio/internal/storage"
)

const (
	scriptFunction = "generate-video-script"
	sceneFunction  = "generate-video-scenes"
	voiceFunction  = "generate-voiceover"
)

// Options controls how the functions client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Width      int
	Height     int
	Presets    *infra.Presets
	HTTPClient *http.Client
	Logger     *infra.Logger
	// Store receives synthetic assets when no API key is configured.
	Store storage.ObjectStore
}

// Client calls the backend generation functions that produce the script,
// the scene frames and the voiceover of a video. Without an API key it
// renders deterministic synthetic assets into Store instead, so the whole
// pipeline runs locally and in CI.
type Client struct {
	apiKey     string
	baseURL    string
	width      int
	height     int
	presets    *infra.Presets
	httpClient *http.Client
	logger     *infra.Logger
	store      storage.ObjectStore
}

type scriptRequest struct {
	BusinessName string `json:"businessName"`
	Type         string `json:"type"`
	Style        string `json:"style"`
}

type scriptResponse struct {
	VideoID string `json:"videoId"`
}

type sceneRequest struct {
	VideoID string `json:"videoId"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Model   string `json:"model"`
}

type sceneResponse struct {
	ScenePaths []string `json:"scenePaths"`
}

type voiceRequest struct {
	VideoID string `json:"videoId"`
	VoiceID string `json:"voiceId,omitempty"`
	ModelID string `json:"modelId"`
}

type voiceResponse struct {
	AudioPath string `json:"audioPath"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a functions client. A nil HTTP client is replaced by
// one with a two minute timeout.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if apiKey != "" && baseURL == "" {
		return nil, errors.New("functions: base url is required when an api key is set")
	}
	if apiKey == "" && opts.Store == nil {
		return nil, errors.New("functions: synthetic mode requires an object store")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = 1080, 1920
	}

	presets := opts.Presets
	if presets == nil {
		presets = infra.DefaultPresets()
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		width:      width,
		height:     height,
		presets:    presets,
		httpClient: client,
		logger:     logger,
		store:      opts.Store,
	}, nil
}

// Synthetic reports whether the client renders assets locally.
func (c *Client) Synthetic() bool {
	return c.apiKey == ""
}

// GenerateScript asks the script function to write the video script and
// returns the id of the backend video record.
func (c *Client) GenerateScript(ctx context.Context, params domain.JobParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.Synthetic() {
		return c.syntheticScript(params), nil
	}

	var resp scriptResponse
	err := c.invoke(ctx, scriptFunction, scriptRequest{
		BusinessName: params.BusinessName,
		Type:         "video",
		Style:        params.Style,
	}, &resp)
	if err != nil {
		return "", err
	}
	videoID := strings.TrimSpace(resp.VideoID)
	if videoID == "" {
		return "", fmt.Errorf("%s: response carried no videoId", scriptFunction)
	}
	return videoID, nil
}

// GenerateScenes renders the scene frames for videoID and returns their
// storage paths in slideshow order.
func (c *Client) GenerateScenes(ctx context.Context, videoID string, params domain.JobParams) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	preset := c.presets.Lookup(params.Style)
	if c.Synthetic() {
		return c.syntheticScenes(ctx, videoID, params, preset)
	}

	var resp sceneResponse
	err := c.invoke(ctx, sceneFunction, sceneRequest{
		VideoID: videoID,
		Width:   c.width,
		Height:  c.height,
		Model:   preset.SceneModel,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.ScenePaths, nil
}

// GenerateVoice synthesizes the voiceover for videoID and returns its
// storage path.
func (c *Client) GenerateVoice(ctx context.Context, videoID string, params domain.JobParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	preset := c.presets.Lookup(params.Style)
	voiceID := params.VoiceID
	if voiceID == "" {
		voiceID = preset.DefaultVoiceID
	}
	if c.Synthetic() {
		return c.syntheticVoice(ctx, videoID, voiceID)
	}

	var resp voiceResponse
	err := c.invoke(ctx, voiceFunction, voiceRequest{
		VideoID: videoID,
		VoiceID: voiceID,
		ModelID: preset.VoiceModel,
	}, &resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.AudioPath), nil
}

func (c *Client) invoke(ctx context.Context, name string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("function", name).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("functions: invoked")

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var apiErr errorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil {
			if msg := firstNonEmpty(apiErr.Error, apiErr.Message); msg != "" {
				return fmt.Errorf("%s status %d: %s", name, resp.StatusCode, msg)
			}
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			return fmt.Errorf("%s status %d: %s", name, resp.StatusCode, text)
		}
		return fmt.Errorf("%s status %d", name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", name, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
