// Package publish uploads finished videos to social platforms.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"contentstudio/internal/domain"
	"contentstudio/internal/i18n"
	"contentstudio/internal/infra"
)

type Jobs interface {
	GetForUser(ctx context.Context, jobID, userID string) (*domain.Job, error)
	ClaimForPublish(ctx context.Context, jobID string) error
	ReleasePublish(ctx context.Context, jobID string) error
	MarkPublished(ctx context.Context, jobID, publishedURL string) error
}

// VideoSource reads stored videos.
type VideoSource interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

var descriptions = map[string]string{
	i18n.English:    "%s, made with Content Studio.",
	i18n.Indonesian: "%s, dibuat dengan Content Studio.",
}

// Publisher uploads a ready job's video and records the published URL.
type Publisher struct {
	jobs     Jobs
	videos   VideoSource
	uploader Uploader
	logger   *infra.Logger
}

func NewPublisher(jobs Jobs, videos VideoSource, uploader Uploader, logger *infra.Logger) *Publisher {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Publisher{jobs: jobs, videos: videos, uploader: uploader, logger: logger}
}

// Publish uploads the video of a ready job owned by userID. The job is
// claimed before the upload, so concurrent calls for one job upload once and
// the others return domain.ErrNotPublishable, as do jobs in any other status.
func (p *Publisher) Publish(ctx context.Context, jobID, userID, locale string) (string, error) {
	job, err := p.jobs.GetForUser(ctx, jobID, userID)
	if err != nil {
		return "", err
	}
	if job.Status != domain.JobStatusReady || job.VideoKey == "" {
		return "", domain.ErrNotPublishable
	}
	if err := p.jobs.ClaimForPublish(ctx, job.ID); err != nil {
		return "", err
	}

	url, err := p.upload(ctx, job, locale)
	if err != nil {
		if rerr := p.jobs.ReleasePublish(context.WithoutCancel(ctx), job.ID); rerr != nil {
			p.logger.Error().Err(rerr).Str("job_id", job.ID).Msg("publish: release claim failed")
		}
		return "", err
	}
	if err := p.jobs.MarkPublished(ctx, job.ID, url); err != nil {
		if errors.Is(err, domain.ErrNotPublishable) {
			p.logger.Warn().Str("job_id", job.ID).Str("url", url).Msg("publish: job changed during upload")
		}
		return "", err
	}
	p.logger.Info().Str("job_id", job.ID).Str("url", url).Msg("publish: video published")
	return url, nil
}

func (p *Publisher) upload(ctx context.Context, job *domain.Job, locale string) (string, error) {
	data, err := p.videos.Get(ctx, job.VideoKey)
	if err != nil {
		return "", fmt.Errorf("read video %s: %w", job.VideoKey, err)
	}
	return p.uploader.Upload(ctx, MetadataFor(job, locale), bytes.NewReader(data))
}

// MetadataFor builds the upload title, description and tags for a job.
func MetadataFor(job *domain.Job, locale string) Metadata {
	lang := i18n.Match(locale)
	caser := cases.Title(language.Make(lang))
	name := caser.String(strings.TrimSpace(job.BusinessName))
	tags := []string{"shorts", strings.ToLower(strings.ReplaceAll(strings.TrimSpace(job.BusinessName), " ", ""))}
	if job.Style != "" {
		tags = append(tags, job.Style)
	}
	return Metadata{
		Title:       name,
		Description: fmt.Sprintf(descriptions[lang], name),
		Tags:        tags,
		Language:    lang,
	}
}
