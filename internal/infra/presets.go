package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StylePreset selects the generation models used for a video style.
type StylePreset struct {
	SceneModel     string `yaml:"scene_model"`
	VoiceModel     string `yaml:"voice_model"`
	DefaultVoiceID string `yaml:"default_voice_id"`
}

// Presets maps style names to generation presets.
type Presets struct {
	Default StylePreset            `yaml:"default"`
	Styles  map[string]StylePreset `yaml:"styles"`
}

// DefaultPresets is used when no presets file is configured.
func DefaultPresets() *Presets {
	return &Presets{
		Default: StylePreset{
			SceneModel:     "flux-schnell",
			VoiceModel:     "eleven_multilingual_v2",
			DefaultVoiceID: "21m00Tcm4TlvDq8ikWAM",
		},
		Styles: map[string]StylePreset{
			"cinematic": {SceneModel: "flux-dev"},
			"playful":   {SceneModel: "flux-schnell", VoiceModel: "eleven_turbo_v2_5"},
		},
	}
}

// LoadPresets reads a YAML presets file. An empty path yields DefaultPresets.
// Values missing from the file fall back to the built-in defaults.
func LoadPresets(path string) (*Presets, error) {
	defaults := DefaultPresets()
	path = strings.TrimSpace(path)
	if path == "" {
		return defaults, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var loaded Presets
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	loaded.Default = loaded.Default.withFallback(defaults.Default)
	if loaded.Styles == nil {
		loaded.Styles = map[string]StylePreset{}
	}
	normalized := make(map[string]StylePreset, len(loaded.Styles))
	for name, preset := range loaded.Styles {
		normalized[strings.ToLower(strings.TrimSpace(name))] = preset
	}
	loaded.Styles = normalized
	return &loaded, nil
}

// Lookup returns the preset for style, filling unset fields from the default.
func (p *Presets) Lookup(style string) StylePreset {
	if p == nil {
		return DefaultPresets().Default
	}
	preset, ok := p.Styles[strings.ToLower(strings.TrimSpace(style))]
	if !ok {
		return p.Default
	}
	return preset.withFallback(p.Default)
}

func (s StylePreset) withFallback(fb StylePreset) StylePreset {
	if s.SceneModel == "" {
		s.SceneModel = fb.SceneModel
	}
	if s.VoiceModel == "" {
		s.VoiceModel = fb.VoiceModel
	}
	if s.DefaultVoiceID == "" {
		s.DefaultVoiceID = fb.DefaultVoiceID
	}
	return s
}
