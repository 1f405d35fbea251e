package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"contentstudio/internal/assembler"
	"contentstudio/internal/domain"
	"contentstudio/internal/finalize"
	"contentstudio/internal/infra"
	"contentstudio/internal/metrics"
)

const (
	branchScenes = "scenes"
	branchVoice  = "voice"

	failWriteTimeout = 10 * time.Second
)

type ScriptGenerator interface {
	GenerateScript(ctx context.Context, params domain.JobParams) (videoID string, err error)
}

type SceneGenerator interface {
	GenerateScenes(ctx context.Context, videoID string, params domain.JobParams) (scenePaths []string, err error)
}

type VoiceGenerator interface {
	GenerateVoice(ctx context.Context, videoID string, params domain.JobParams) (audioPath string, err error)
}

type Assembler interface {
	Assemble(ctx context.Context, req assembler.Request) (*domain.Artifact, error)
}

type Finalizer interface {
	Finalize(ctx context.Context, jobID string, artifact *domain.Artifact, assets domain.ResolvedAssets) (publicURL string, err error)
}

// VideoSettings is the output format of every run.
type VideoSettings struct {
	Width  int
	Height int
	FPS    int
}

// Deps wires an Orchestrator. Metrics and Logger are optional.
type Deps struct {
	Script    ScriptGenerator
	Scenes    SceneGenerator
	Voice     VoiceGenerator
	Resolver  *Resolver
	Assembler Assembler
	Finalizer Finalizer
	Sink      ProgressSink
	Video     VideoSettings
	Metrics   *metrics.Pipeline
	Logger    *infra.Logger
}

// Orchestrator runs the fixed stage sequence for a job: script, scenes and
// voice in parallel, resolution, assembly, upload.
type Orchestrator struct {
	deps   Deps
	logger *infra.Logger
}

func NewOrchestrator(d Deps) (*Orchestrator, error) {
	switch {
	case d.Script == nil, d.Scenes == nil, d.Voice == nil:
		return nil, errors.New("pipeline: script, scene and voice generators are required")
	case d.Resolver == nil, d.Assembler == nil, d.Finalizer == nil:
		return nil, errors.New("pipeline: resolver, assembler and finalizer are required")
	case d.Sink == nil:
		return nil, errors.New("pipeline: progress sink is required")
	case d.Video.Width <= 0 || d.Video.Height <= 0 || d.Video.FPS <= 0:
		return nil, fmt.Errorf("pipeline: invalid video settings %dx%d@%d", d.Video.Width, d.Video.Height, d.Video.FPS)
	}
	logger := d.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Orchestrator{deps: d, logger: logger}, nil
}

// Run executes one job and returns the public URL of the finished video. On
// failure the job is marked failed at the step it stopped at and the
// returned error is a *StageError. Run never retries.
func (o *Orchestrator) Run(ctx context.Context, job *domain.Job) (string, error) {
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return "", &StageError{Kind: KindInvalidInput, Step: domain.StepScripting, Err: errors.New("job id is required")}
	}
	logger := o.logger.With().Str("job_id", job.ID).Logger()
	tracker := NewTracker(job.ID, o.deps.Sink)
	o.deps.Metrics.RunStarted()
	start := time.Now()

	url, err := o.run(ctx, job, tracker, &logger)
	if err != nil {
		stageErr := o.classify(ctx, err, tracker)
		o.fail(ctx, job.ID, stageErr, &logger)
		o.deps.Metrics.RunFailed(stageErr.Kind.String())
		return "", stageErr
	}

	o.deps.Metrics.RunSucceeded()
	logger.Info().Str("video_url", url).Dur("elapsed", time.Since(start)).Msg("pipeline: video ready")
	return url, nil
}

func (o *Orchestrator) run(ctx context.Context, job *domain.Job, tracker *Tracker, logger *zerolog.Logger) (string, error) {
	params := job.Params()
	params.Normalize()
	if params.BusinessName == "" {
		return "", &StageError{Kind: KindInvalidInput, Step: domain.StepScripting, Err: errors.New("business name is required")}
	}

	if err := o.advance(ctx, tracker, domain.StepScripting); err != nil {
		return "", err
	}
	stageStart := time.Now()
	videoID, err := o.deps.Script.GenerateScript(ctx, params)
	if err == nil && strings.TrimSpace(videoID) == "" {
		err = errors.New("empty video id")
	}
	if err != nil {
		return "", &StageError{Kind: KindScriptGeneration, Step: domain.StepScripting, Err: err}
	}
	o.observe(domain.StepScripting, stageStart)
	logger.Debug().Str("video_id", videoID).Msg("pipeline: script generated")

	if err := o.advance(ctx, tracker, domain.StepGeneratingScenes); err != nil {
		return "", err
	}
	stageStart = time.Now()
	scenePaths, audioPath, err := o.generateMedia(ctx, tracker, videoID, params)
	if err != nil {
		return "", err
	}
	o.observe(domain.StepGeneratingScenes, stageStart)
	logger.Debug().Int("scenes", len(scenePaths)).Str("audio", audioPath).Msg("pipeline: media generated")

	if err := o.advance(ctx, tracker, domain.StepAssembling); err != nil {
		return "", err
	}
	stageStart = time.Now()
	assets, err := o.deps.Resolver.Resolve(scenePaths, audioPath)
	if err != nil {
		return "", &StageError{Kind: KindResolution, Step: domain.StepAssembling, Err: err}
	}
	artifact, err := o.deps.Assembler.Assemble(ctx, assembler.Request{
		ImageURLs: assets.SceneURLs(),
		AudioURL:  assets.Audio.URL,
		Width:     o.deps.Video.Width,
		Height:    o.deps.Video.Height,
		FPS:       o.deps.Video.FPS,
	})
	if err == nil && artifact.Size() == 0 {
		err = errors.New("assembler returned an empty artifact")
	}
	if err != nil {
		return "", &StageError{Kind: KindAssembly, Step: domain.StepAssembling, Err: err}
	}
	assets.Audio.Duration = artifact.Duration
	o.observe(domain.StepAssembling, stageStart)

	if err := o.advance(ctx, tracker, domain.StepUploading); err != nil {
		return "", err
	}
	stageStart = time.Now()
	url, err := o.deps.Finalizer.Finalize(ctx, job.ID, artifact, assets)
	if err != nil {
		var persistErr *finalize.PersistError
		if errors.As(err, &persistErr) {
			return "", &StageError{Kind: KindPersist, Step: domain.StepUploading, Err: err}
		}
		return "", &StageError{Kind: KindUpload, Step: domain.StepUploading, Err: err}
	}
	o.observe(domain.StepUploading, stageStart)

	if err := tracker.Settle(domain.StepReady); err != nil {
		return "", &StageError{Kind: KindPersist, Step: domain.StepUploading, Err: err}
	}
	return url, nil
}

// generateMedia runs the scene and voice branches concurrently. The first
// failure cancels the other branch. The step moves to GeneratingVoice as soon
// as the scenes are done.
func (o *Orchestrator) generateMedia(ctx context.Context, tracker *Tracker, videoID string, params domain.JobParams) ([]string, string, error) {
	var (
		scenePaths []string
		audioPath  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		paths, err := o.deps.Scenes.GenerateScenes(gctx, videoID, params)
		if err == nil && len(paths) == 0 {
			err = errors.New("no scenes generated")
		}
		if err == nil {
			for i, p := range paths {
				if strings.TrimSpace(p) == "" {
					err = fmt.Errorf("scene %d has an empty path", i+1)
					break
				}
			}
		}
		if err != nil {
			return &StageError{
				Kind: KindSceneOrVoiceGeneration,
				Step: domain.StepGeneratingScenes,
				Err:  &BranchError{Branch: branchScenes, Err: err},
			}
		}
		scenePaths = paths
		return o.advance(gctx, tracker, domain.StepGeneratingVoice)
	})
	g.Go(func() error {
		path, err := o.deps.Voice.GenerateVoice(gctx, videoID, params)
		if err == nil && strings.TrimSpace(path) == "" {
			err = errors.New("no audio generated")
		}
		if err != nil {
			return &StageError{
				Kind: KindSceneOrVoiceGeneration,
				Step: domain.StepGeneratingVoice,
				Err:  &BranchError{Branch: branchVoice, Err: err},
			}
		}
		audioPath = path
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return scenePaths, audioPath, nil
}

func (o *Orchestrator) advance(ctx context.Context, tracker *Tracker, step domain.Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tracker.Advance(ctx, step); err != nil {
		return &StageError{Kind: KindPersist, Step: tracker.Current(), Err: fmt.Errorf("record step %s: %w", step, err)}
	}
	return nil
}

// classify turns any run error into a *StageError and freezes the tracker at
// the step the error belongs to. A canceled context wins over the error it
// caused downstream.
func (o *Orchestrator) classify(ctx context.Context, err error, tracker *Tracker) *StageError {
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		stageErr = &StageError{Kind: KindPersist, Step: tracker.Current(), Err: err}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		stageErr = &StageError{Kind: KindCanceled, Step: stageErr.Step, Err: ctxErr}
	}
	stageErr.Step = tracker.Freeze(stageErr.Step)
	return stageErr
}

func (o *Orchestrator) fail(ctx context.Context, jobID string, stageErr *StageError, logger *zerolog.Logger) {
	logger.Error().
		Err(stageErr.Err).
		Str("kind", stageErr.Kind.String()).
		Str("step", stageErr.Step.String()).
		Msg("pipeline: run failed")

	// The run context may already be canceled; the failure must still land.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failWriteTimeout)
	defer cancel()
	if err := o.deps.Sink.Fail(writeCtx, jobID, stageErr.Step, stageErr.Error()); err != nil {
		logger.Error().Err(err).Msg("pipeline: could not record failure")
	}
}

func (o *Orchestrator) observe(step domain.Step, start time.Time) {
	o.deps.Metrics.ObserveStage(step.String(), time.Since(start))
}
