package domain

import (
	"strings"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusReady      JobStatus = "ready"
	JobStatusFailed     JobStatus = "failed"
	JobStatusPublishing JobStatus = "publishing"
	JobStatusPublished  JobStatus = "published"
)

// Terminal reports whether no further pipeline work happens for the status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusReady, JobStatusFailed, JobStatusPublishing, JobStatusPublished:
		return true
	default:
		return false
	}
}

// Retryable reports whether a job in this status may be reset and queued again.
func (s JobStatus) Retryable() bool {
	return s == JobStatusFailed || s == JobStatusReady
}

// Step is the position of a run inside the fixed stage sequence. Steps are
// ordered; a run only ever moves to a larger step.
type Step int

const (
	StepScripting Step = iota
	StepGeneratingScenes
	StepGeneratingVoice
	StepAssembling
	StepUploading
	StepReady
)

var stepNames = [...]string{
	StepScripting:        "scripting",
	StepGeneratingScenes: "generating_scenes",
	StepGeneratingVoice:  "generating_voice",
	StepAssembling:       "assembling",
	StepUploading:        "uploading",
	StepReady:            "ready",
}

// Valid reports whether s is one of the declared steps.
func (s Step) Valid() bool {
	return s >= StepScripting && s <= StepReady
}

func (s Step) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return stepNames[s]
}

// ParseStep converts a persisted step name back into a Step.
func ParseStep(name string) (Step, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return StepScripting, false
}

// Job is one user-initiated request to produce a finished video.
type Job struct {
	ID           string
	UserID       string
	BusinessName string
	Style        string
	VoiceID      string
	Status       JobStatus
	Step         Step
	ErrorMessage string
	VideoURL     string
	VideoKey     string
	SizeBytes    int64
	ScenePaths   []string
	AudioPath    string
	PublishedURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobParams carries the user input that starts a run.
type JobParams struct {
	BusinessName string `json:"business_name" validate:"required,min=1,max=120"`
	Style        string `json:"style" validate:"omitempty,max=40"`
	VoiceID      string `json:"voice_id" validate:"omitempty,max=64"`
}

// DefaultStyle is applied when a request omits the style.
const DefaultStyle = "modern"

// Normalize trims the params and applies the default style.
func (p *JobParams) Normalize() {
	if p == nil {
		return
	}
	p.BusinessName = strings.TrimSpace(p.BusinessName)
	p.Style = strings.TrimSpace(p.Style)
	p.VoiceID = strings.TrimSpace(p.VoiceID)
	if p.Style == "" {
		p.Style = DefaultStyle
	}
}

// Params returns the user input portion of the job.
func (j Job) Params() JobParams {
	return JobParams{BusinessName: j.BusinessName, Style: j.Style, VoiceID: j.VoiceID}
}
