package pipeline

import (
	"contentstudio/internal/domain"
	"contentstudio/internal/i18n"
)

var stepLabels = map[string][]string{
	i18n.English: {
		domain.StepScripting:        "Generating Script",
		domain.StepGeneratingScenes: "Creating Visual Frames",
		domain.StepGeneratingVoice:  "Generating Voiceover",
		domain.StepAssembling:       "Assembling Video",
		domain.StepUploading:        "Uploading Video",
		domain.StepReady:            "Ready",
	},
	i18n.Indonesian: {
		domain.StepScripting:        "Membuat Naskah",
		domain.StepGeneratingScenes: "Membuat Bingkai Visual",
		domain.StepGeneratingVoice:  "Membuat Sulih Suara",
		domain.StepAssembling:       "Menyusun Video",
		domain.StepUploading:        "Mengunggah Video",
		domain.StepReady:            "Siap",
	},
}

// Label returns the user-facing name of step in the best matching locale.
func Label(step domain.Step, locale string) string {
	if !step.Valid() {
		return ""
	}
	return stepLabels[i18n.Match(locale)][step]
}

// Labels returns every step label in pipeline order.
func Labels(locale string) []string {
	labels := stepLabels[i18n.Match(locale)]
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Progress is the observable state of a job.
type Progress struct {
	JobID     string           `json:"job_id"`
	Status    domain.JobStatus `json:"status"`
	Step      string           `json:"step"`
	StepIndex int              `json:"step_index"`
	Label     string           `json:"label"`
	Percent   int              `json:"percent"`
	Error     string           `json:"error,omitempty"`
	VideoURL  string           `json:"video_url,omitempty"`
	Published string           `json:"published_url,omitempty"`
}

// Snapshot reports job progress. A failed job keeps the step it stopped at
// and its error message.
func Snapshot(job *domain.Job, locale string) Progress {
	if job == nil {
		return Progress{}
	}
	return Progress{
		JobID:     job.ID,
		Status:    job.Status,
		Step:      job.Step.String(),
		StepIndex: int(job.Step),
		Label:     Label(job.Step, locale),
		Percent:   percent(job),
		Error:     job.ErrorMessage,
		VideoURL:  job.VideoURL,
		Published: job.PublishedURL,
	}
}

func percent(job *domain.Job) int {
	switch job.Status {
	case domain.JobStatusReady, domain.JobStatusPublishing, domain.JobStatusPublished:
		return 100
	case domain.JobStatusQueued, domain.JobStatusPending:
		return 0
	}
	last := int(domain.StepReady)
	return int(job.Step) * 100 / last
}
