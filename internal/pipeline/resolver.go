package pipeline

import (
	"fmt"
	"strings"

	"contentstudio/internal/domain"
	"contentstudio/internal/storage"
)

// Resolver maps generated storage paths to the URLs the assembler downloads.
// Either every path resolves or none of them is used.
type Resolver struct {
	urls storage.URLResolver
}

func NewResolver(urls storage.URLResolver) *Resolver {
	return &Resolver{urls: urls}
}

func (r *Resolver) Resolve(scenePaths []string, audioPath string) (domain.ResolvedAssets, error) {
	if len(scenePaths) == 0 {
		return domain.ResolvedAssets{}, &ResolutionError{Reason: "no scene paths"}
	}
	scenes := make([]domain.SceneAsset, 0, len(scenePaths))
	for i, p := range scenePaths {
		u := r.publicURL(p)
		if u == "" {
			return domain.ResolvedAssets{}, &ResolutionError{Reason: fmt.Sprintf("scene %d (%q) has no public url", i+1, p)}
		}
		scenes = append(scenes, domain.SceneAsset{Path: p, URL: u, Ordinal: i})
	}
	audioURL := r.publicURL(audioPath)
	if audioURL == "" {
		return domain.ResolvedAssets{}, &ResolutionError{Reason: fmt.Sprintf("audio %q has no public url", audioPath)}
	}
	return domain.ResolvedAssets{
		Scenes: scenes,
		Audio:  domain.AudioTrack{Path: audioPath, URL: audioURL},
	}, nil
}

func (r *Resolver) publicURL(path string) string {
	if strings.TrimSpace(path) == "" || r.urls == nil {
		return ""
	}
	return strings.TrimSpace(r.urls.PublicURL(path))
}
