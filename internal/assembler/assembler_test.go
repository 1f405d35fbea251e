package assembler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu         sync.Mutex
	missing    map[string]bool
	probeOut   string
	encodeErr  error
	output     []byte
	concat     string
	ffmpegArgs []string
	runs       int
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", exec.ErrNotFound
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	if strings.HasSuffix(name, "ffprobe") {
		return []byte(f.probeOut), nil, nil
	}
	f.ffmpegArgs = args
	for i, a := range args {
		if a == "-i" && strings.HasSuffix(args[i+1], ".ffconcat") {
			raw, err := os.ReadFile(args[i+1])
			if err != nil {
				return nil, nil, err
			}
			f.concat = string(raw)
			break
		}
	}
	if f.encodeErr != nil {
		return nil, []byte("Invalid data found when processing input"), f.encodeErr
	}
	if err := os.WriteFile(args[len(args)-1], f.output, 0o644); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

func (f *fakeRunner) argAfter(flag string) string {
	for i, a := range f.ffmpegArgs {
		if a == flag && i+1 < len(f.ffmpegArgs) {
			return f.ffmpegArgs[i+1]
		}
	}
	return ""
}

func newMediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/scenes/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/audio/voice.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("wav-bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAssembler(t *testing.T, runner *fakeRunner) *Assembler {
	t.Helper()
	return New(Options{Runner: runner, WorkDir: t.TempDir()})
}

func TestAssembleSingleImageSpansAudio(t *testing.T) {
	srv := newMediaServer(t)
	runner := &fakeRunner{probeOut: "5.000000\n", output: make([]byte, 300*1024)}
	a := newTestAssembler(t, runner)

	artifact, err := a.Assemble(context.Background(), Request{
		ImageURLs: []string{srv.URL + "/scenes/01.png"},
		AudioURL:  srv.URL + "/audio/voice.wav",
		Width:     1080,
		Height:    1920,
		FPS:       30,
	})
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Equal(t, int64(300*1024), artifact.Size())
	assert.Equal(t, "video/mp4", artifact.ContentType)
	assert.InDelta(t, 5.0, artifact.Duration.Seconds(), 1.0/30)
	assert.Equal(t, "5.000", runner.argAfter("-t"))
	assert.Equal(t, "30", runner.argAfter("-r"))
	assert.Contains(t, runner.argAfter("-vf"), "pad=1080:1920")
	assert.Contains(t, runner.argAfter("-vf"), "setsar=1")
	assert.Contains(t, runner.concat, "duration 5.000000")
	assert.Equal(t, 2, strings.Count(runner.concat, "file '"))
}

func TestAssembleKeepsImageOrder(t *testing.T) {
	srv := newMediaServer(t)
	runner := &fakeRunner{probeOut: "3.0", output: []byte("mp4")}
	a := newTestAssembler(t, runner)

	_, err := a.Assemble(context.Background(), Request{
		ImageURLs: []string{srv.URL + "/scenes/a.png", srv.URL + "/scenes/b.jpg", srv.URL + "/scenes/c.png"},
		AudioURL:  srv.URL + "/audio/voice.wav",
		Width:     720,
		Height:    1280,
		FPS:       10,
	})
	require.NoError(t, err)

	first := strings.Index(runner.concat, "scene_000.png")
	second := strings.Index(runner.concat, "scene_001.jpg")
	third := strings.Index(runner.concat, "scene_002.png")
	require.True(t, first >= 0 && second > first && third > second, "concat order wrong:\n%s", runner.concat)
	assert.Equal(t, 3, strings.Count(runner.concat, "duration 1.000000"))
}

func TestAssembleRejectsEmptyImages(t *testing.T) {
	runner := &fakeRunner{output: []byte("mp4")}
	a := newTestAssembler(t, runner)

	artifact, err := a.Assemble(context.Background(), Request{AudioURL: "http://x/a.wav", Width: 1, Height: 1, FPS: 30})
	require.Error(t, err)
	assert.Nil(t, artifact)
	var asmErr *Error
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, 0, runner.runs)
}

func TestAssembleValidatesRequest(t *testing.T) {
	base := Request{ImageURLs: []string{"http://x/1.png"}, AudioURL: "http://x/a.wav", Width: 1080, Height: 1920, FPS: 30}
	tests := map[string]func(r *Request){
		"empty audio":    func(r *Request) { r.AudioURL = " " },
		"blank image":    func(r *Request) { r.ImageURLs = []string{""} },
		"zero width":     func(r *Request) { r.Width = 0 },
		"negative fps":   func(r *Request) { r.FPS = -1 },
		"missing height": func(r *Request) { r.Height = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			req := base
			req.ImageURLs = append([]string(nil), base.ImageURLs...)
			mutate(&req)
			_, err := newTestAssembler(t, &fakeRunner{}).Assemble(context.Background(), req)
			var asmErr *Error
			require.ErrorAs(t, err, &asmErr)
		})
	}
}

func TestAssembleMissingBinary(t *testing.T) {
	runner := &fakeRunner{missing: map[string]bool{"ffmpeg": true}}
	_, err := newTestAssembler(t, runner).Assemble(context.Background(), Request{
		ImageURLs: []string{"http://x/1.png"}, AudioURL: "http://x/a.wav", Width: 2, Height: 2, FPS: 1,
	})
	var asmErr *Error
	require.ErrorAs(t, err, &asmErr)
	assert.Contains(t, asmErr.Reason, "ffmpeg")
}

func TestAssembleUnreachableImage(t *testing.T) {
	srv := newMediaServer(t)
	runner := &fakeRunner{probeOut: "2.0", output: []byte("mp4")}
	_, err := newTestAssembler(t, runner).Assemble(context.Background(), Request{
		ImageURLs: []string{srv.URL + "/scenes/1.png", srv.URL + "/missing.png"},
		AudioURL:  srv.URL + "/audio/voice.wav",
		Width:     2,
		Height:    2,
		FPS:       1,
	})
	var asmErr *Error
	require.ErrorAs(t, err, &asmErr)
	assert.Contains(t, err.Error(), "404")
	assert.Empty(t, runner.ffmpegArgs)
}

func TestAssembleEncodeFailure(t *testing.T) {
	srv := newMediaServer(t)
	runner := &fakeRunner{probeOut: "2.0", encodeErr: errors.New("exit status 1")}
	_, err := newTestAssembler(t, runner).Assemble(context.Background(), Request{
		ImageURLs: []string{srv.URL + "/scenes/1.png"},
		AudioURL:  srv.URL + "/audio/voice.wav",
		Width:     2,
		Height:    2,
		FPS:       1,
	})
	var asmErr *Error
	require.ErrorAs(t, err, &asmErr)
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestAssembleEmptyOutput(t *testing.T) {
	srv := newMediaServer(t)
	runner := &fakeRunner{probeOut: "2.0", output: nil}
	artifact, err := newTestAssembler(t, runner).Assemble(context.Background(), Request{
		ImageURLs: []string{srv.URL + "/scenes/1.png"},
		AudioURL:  srv.URL + "/audio/voice.wav",
		Width:     2,
		Height:    2,
		FPS:       1,
	})
	require.Error(t, err)
	assert.Nil(t, artifact)
}

func TestAssembleZeroDurationAudio(t *testing.T) {
	srv := newMediaServer(t)
	runner := &fakeRunner{probeOut: "0.000", output: []byte("mp4")}
	_, err := newTestAssembler(t, runner).Assemble(context.Background(), Request{
		ImageURLs: []string{srv.URL + "/scenes/1.png"},
		AudioURL:  srv.URL + "/audio/voice.wav",
		Width:     2,
		Height:    2,
		FPS:       1,
	})
	var asmErr *Error
	require.ErrorAs(t, err, &asmErr)
	assert.Empty(t, runner.ffmpegArgs)
}

func TestAssembleCanceled(t *testing.T) {
	srv := newMediaServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestAssembler(t, &fakeRunner{probeOut: "1"}).Assemble(ctx, Request{
		ImageURLs: []string{srv.URL + "/scenes/1.png"},
		AudioURL:  srv.URL + "/audio/voice.wav",
		Width:     2,
		Height:    2,
		FPS:       1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssembleFileURLs(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "01.png")
	wav := filepath.Join(dir, "voice.wav")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(wav, []byte("wav"), 0o644))

	runner := &fakeRunner{probeOut: "1.5", output: []byte("mp4")}
	artifact, err := newTestAssembler(t, runner).Assemble(context.Background(), Request{
		ImageURLs: []string{"file://" + img},
		AudioURL:  "file://" + wav,
		Width:     4,
		Height:    4,
		FPS:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, artifact.Duration)
}
