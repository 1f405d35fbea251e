package domain

import "time"

// SceneAsset is one generated image in slideshow order.
type SceneAsset struct {
	Path    string
	URL     string
	Ordinal int
}

// AudioTrack is the generated voiceover.
type AudioTrack struct {
	Path     string
	URL      string
	Duration time.Duration
}

// ResolvedAssets is the complete, ordered set of inputs for assembly.
type ResolvedAssets struct {
	Scenes []SceneAsset
	Audio  AudioTrack
}

// SceneURLs returns the scene URLs in ordinal order.
func (r ResolvedAssets) SceneURLs() []string {
	urls := make([]string, len(r.Scenes))
	for i, s := range r.Scenes {
		urls[i] = s.URL
	}
	return urls
}

// ScenePaths returns the scene storage paths in ordinal order.
func (r ResolvedAssets) ScenePaths() []string {
	paths := make([]string, len(r.Scenes))
	for i, s := range r.Scenes {
		paths[i] = s.Path
	}
	return paths
}

// Artifact is the encoded video produced by assembly.
type Artifact struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	FPS         int
	Duration    time.Duration
}

// Size returns the artifact byte length.
func (a *Artifact) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}
