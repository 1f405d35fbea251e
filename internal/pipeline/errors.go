package pipeline

import (
	"errors"
	"fmt"

	"contentstudio/internal/domain"
)

// Kind classifies why a run stopped.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindScriptGeneration
	KindSceneOrVoiceGeneration
	KindResolution
	KindAssembly
	KindUpload
	KindPersist
	KindCanceled
)

var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrScriptGeneration       = errors.New("script generation failed")
	ErrSceneOrVoiceGeneration = errors.New("scene or voice generation failed")
	ErrResolution             = errors.New("asset resolution failed")
	ErrAssembly               = errors.New("video assembly failed")
	ErrUpload                 = errors.New("video upload failed")
	ErrPersist                = errors.New("job update failed")
	ErrCanceled               = errors.New("pipeline canceled")
)

var kindNames = [...]string{
	KindInvalidInput:           "invalid_input",
	KindScriptGeneration:       "script_generation",
	KindSceneOrVoiceGeneration: "scene_or_voice_generation",
	KindResolution:             "resolution",
	KindAssembly:               "assembly",
	KindUpload:                 "upload",
	KindPersist:                "persist",
	KindCanceled:               "canceled",
}

var kindErrors = [...]error{
	KindInvalidInput:           ErrInvalidInput,
	KindScriptGeneration:       ErrScriptGeneration,
	KindSceneOrVoiceGeneration: ErrSceneOrVoiceGeneration,
	KindResolution:             ErrResolution,
	KindAssembly:               ErrAssembly,
	KindUpload:                 ErrUpload,
	KindPersist:                ErrPersist,
	KindCanceled:               ErrCanceled,
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Err returns the sentinel matched by errors.Is for the kind.
func (k Kind) Err() error {
	if k < 0 || int(k) >= len(kindErrors) {
		return errors.New("pipeline failed")
	}
	return kindErrors[k]
}

// StageError is returned by Orchestrator.Run for every failure. Step is the
// step the job is frozen at.
type StageError struct {
	Kind Kind
	Step domain.Step
	Err  error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Kind.Err().Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind.Err(), e.Err)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.Err()}
	}
	return []error{e.Kind.Err(), e.Err}
}

// ResolutionError reports storage paths that did not map to a URL.
type ResolutionError struct {
	Reason string
}

func (e *ResolutionError) Error() string {
	return "resolve assets: " + e.Reason
}

// BranchError names which half of the scene/voice fan-out failed.
type BranchError struct {
	Branch string
	Err    error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Branch, e.Err)
}

func (e *BranchError) Unwrap() error {
	return e.Err
}
