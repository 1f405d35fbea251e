package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrNotConfigured is returned when no YouTube credentials are available.
var ErrNotConfigured = errors.New("youtube publishing is not configured")

// RefreshTokens supplies the stored YouTube refresh token.
type RefreshTokens interface {
	YouTubeRefreshToken(ctx context.Context) (string, error)
}

// Metadata describes an uploaded video.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	Language    string
	Privacy     string
}

// Uploader sends a video to a hosting platform and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, meta Metadata, media io.Reader) (string, error)
}

type YouTubeOptions struct {
	ClientID     string
	ClientSecret string
	Tokens       RefreshTokens
	// Endpoint overrides the Google OAuth endpoint.
	Endpoint oauth2.Endpoint
	// ClientOptions are appended when building the API service.
	ClientOptions []option.ClientOption
}

// YouTubeUploader uploads through the YouTube Data API v3.
type YouTubeUploader struct {
	opts YouTubeOptions
}

func NewYouTubeUploader(opts YouTubeOptions) *YouTubeUploader {
	if opts.Endpoint.TokenURL == "" {
		opts.Endpoint = google.Endpoint
	}
	return &YouTubeUploader{opts: opts}
}

func (u *YouTubeUploader) Upload(ctx context.Context, meta Metadata, media io.Reader) (string, error) {
	client, err := u.httpClient(ctx)
	if err != nil {
		return "", err
	}
	svcOpts := append([]option.ClientOption{option.WithHTTPClient(client)}, u.opts.ClientOptions...)
	svc, err := youtube.NewService(ctx, svcOpts...)
	if err != nil {
		return "", fmt.Errorf("youtube service: %w", err)
	}

	privacy := meta.Privacy
	if privacy == "" {
		privacy = "private"
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           "22",
			DefaultLanguage:      meta.Language,
			DefaultAudioLanguage: meta.Language,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
		},
	}
	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(media).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}
	if uploaded.Id == "" {
		return "", errors.New("youtube upload: empty video id")
	}
	return ShortsURL(uploaded.Id), nil
}

func (u *YouTubeUploader) httpClient(ctx context.Context) (*http.Client, error) {
	if u.opts.ClientID == "" || u.opts.ClientSecret == "" || u.opts.Tokens == nil {
		return nil, ErrNotConfigured
	}
	refresh, err := u.opts.Tokens.YouTubeRefreshToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load youtube refresh token: %w", err)
	}
	if strings.TrimSpace(refresh) == "" {
		return nil, ErrNotConfigured
	}
	conf := &oauth2.Config{
		ClientID:     u.opts.ClientID,
		ClientSecret: u.opts.ClientSecret,
		Endpoint:     u.opts.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{RefreshToken: refresh, Expiry: time.Now().Add(-time.Hour)}
	return conf.Client(ctx, token), nil
}

// ShortsURL is the public URL of a vertical YouTube video.
func ShortsURL(videoID string) string {
	return "https://youtube.com/shorts/" + videoID
}
