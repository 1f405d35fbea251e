// Package zip bundles in-memory files into a zip archive.
package zip

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

type Asset struct {
	Filename string
	Data     []byte
	Modified time.Time
}

// ArchiveAssets writes assets into a zip archive in order. Names must be
// relative, slash-separated and unique. Already compressed media is stored
// without deflating.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	if len(assets) == 0 {
		return nil, errors.New("zip: no assets")
	}
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]struct{}, len(assets))
	for _, asset := range assets {
		name := path.Clean(strings.TrimSpace(asset.Filename))
		if name == "." || strings.HasPrefix(name, "/") || strings.HasPrefix(name, "..") {
			return nil, fmt.Errorf("zip: invalid filename %q", asset.Filename)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("zip: duplicate filename %q", name)
		}
		seen[name] = struct{}{}

		header := &zip.FileHeader{Name: name, Method: methodFor(name), Modified: asset.Modified}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}

func methodFor(name string) uint16 {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp4", ".png", ".jpg", ".jpeg", ".webp", ".mp3", ".m4a":
		return zip.Store
	default:
		return zip.Deflate
	}
}
