package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
)

const (
	contentType      = "video/mp4"
	fetchParallelism = 4
)

// Request describes one slideshow render.
type Request struct {
	ImageURLs []string
	AudioURL  string
	Width     int
	Height    int
	FPS       int
}

// Options configures an Assembler. Zero values fall back to ffmpeg and
// ffprobe on PATH, the process runner and a one minute download timeout.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	WorkDir     string
	Runner      Runner
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// Assembler turns ordered still images and a voiceover into an MP4 whose
// length equals the voiceover.
type Assembler struct {
	ffmpegPath  string
	ffprobePath string
	workDir     string
	runner      Runner
	httpClient  *http.Client
	logger      *infra.Logger
}

func New(opts Options) *Assembler {
	a := &Assembler{
		ffmpegPath:  firstNonEmpty(opts.FFmpegPath, "ffmpeg"),
		ffprobePath: firstNonEmpty(opts.FFprobePath, "ffprobe"),
		workDir:     opts.WorkDir,
		runner:      opts.Runner,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}
	if a.runner == nil {
		a.runner = ExecRunner{}
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: time.Minute}
	}
	if a.logger == nil {
		discard := zerolog.New(io.Discard)
		a.logger = &discard
	}
	return a
}

// Assemble downloads the inputs, lays the images out over the audio duration
// and encodes an H.264/AAC MP4 at the requested size and frame rate. It
// returns a non-empty artifact or an *Error, never both.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*domain.Artifact, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	ffmpeg, err := a.runner.LookPath(a.ffmpegPath)
	if err != nil {
		return nil, fail("ffmpeg is not available", err)
	}
	ffprobe, err := a.runner.LookPath(a.ffprobePath)
	if err != nil {
		return nil, fail("ffprobe is not available", err)
	}

	dir, err := os.MkdirTemp(a.workDir, "assemble-*")
	if err != nil {
		return nil, fail("create work directory", err)
	}
	defer os.RemoveAll(dir)

	start := time.Now()
	images, audio, err := a.fetchInputs(ctx, dir, req)
	if err != nil {
		return nil, a.canceledOr(ctx, fail("download inputs", err))
	}

	duration, err := a.probeDuration(ctx, ffprobe, audio)
	if err != nil {
		return nil, a.canceledOr(ctx, fail("read audio duration", err))
	}
	if duration <= 0 {
		return nil, fail("audio has no playable duration", nil)
	}

	segments := Plan(duration, req.FPS, len(images))
	if len(segments) < len(images) {
		a.logger.Warn().
			Int("images", len(images)).
			Int("used", len(segments)).
			Dur("audio", duration).
			Msg("assembler: audio too short for every image; trailing images dropped")
	}

	listPath := filepath.Join(dir, "frames.ffconcat")
	if err := os.WriteFile(listPath, []byte(concatList(segments, images, req.FPS)), 0o644); err != nil {
		return nil, fail("write frame list", err)
	}

	outPath := filepath.Join(dir, "video.mp4")
	_, stderr, err := a.runner.Run(ctx, ffmpeg, encodeArgs(listPath, audio, outPath, req, duration)...)
	if err != nil {
		return nil, a.canceledOr(ctx, fail("ffmpeg encode", fmt.Errorf("%w: %s", err, tail(stderr))))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fail("read encoded video", err)
	}
	if len(data) == 0 {
		return nil, fail("ffmpeg produced an empty file", nil)
	}

	a.logger.Info().
		Int("images", len(segments)).
		Int("frames", TotalFrames(segments)).
		Dur("audio", duration).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("assembler: video encoded")

	return &domain.Artifact{
		Data:        data,
		ContentType: contentType,
		Width:       req.Width,
		Height:      req.Height,
		FPS:         req.FPS,
		Duration:    time.Duration(TotalFrames(segments)) * time.Second / time.Duration(req.FPS),
	}, nil
}

func validate(req Request) error {
	if len(req.ImageURLs) == 0 {
		return fail("no images to assemble", nil)
	}
	for i, u := range req.ImageURLs {
		if strings.TrimSpace(u) == "" {
			return fail(fmt.Sprintf("image %d has an empty url", i+1), nil)
		}
	}
	if strings.TrimSpace(req.AudioURL) == "" {
		return fail("audio url is empty", nil)
	}
	if req.Width <= 0 || req.Height <= 0 {
		return fail(fmt.Sprintf("invalid dimensions %dx%d", req.Width, req.Height), nil)
	}
	if req.FPS <= 0 {
		return fail(fmt.Sprintf("invalid frame rate %d", req.FPS), nil)
	}
	return nil
}

func (a *Assembler) fetchInputs(ctx context.Context, dir string, req Request) ([]string, string, error) {
	images := make([]string, len(req.ImageURLs))
	audio := localName(dir, "audio", req.AudioURL, ".mp3")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for i, u := range req.ImageURLs {
		i, u := i, u
		images[i] = localName(dir, fmt.Sprintf("scene_%03d", i), u, ".png")
		g.Go(func() error {
			if err := a.download(gctx, u, images[i]); err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := a.download(gctx, req.AudioURL, audio); err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return images, audio, nil
}

func encodeArgs(listPath, audioPath, outPath string, req Request, duration time.Duration) []string {
	w, h := strconv.Itoa(req.Width), strconv.Itoa(req.Height)
	filter := fmt.Sprintf(
		"scale=%s:%s:force_original_aspect_ratio=decrease,pad=%s:%s:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p",
		w, h, w, h, req.FPS,
	)
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", filter,
		"-r", strconv.Itoa(req.FPS),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", fmt.Sprintf("%.3f", duration.Seconds()),
		"-movflags", "+faststart",
		outPath,
	}
}

// canceledOr reports a canceled context in place of the process error it
// caused.
func (a *Assembler) canceledOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fail("canceled", ctxErr)
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
