package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: "video.mp4", Data: []byte("mp4")},
		{Filename: "scenes/01.png", Data: []byte("png")},
		{Filename: "script.txt", Data: []byte("hello hello hello")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("archive has %d files, want 3", len(zr.File))
	}
	if zr.File[0].Name != "video.mp4" || zr.File[0].Method != zip.Store {
		t.Fatalf("first entry = %s method %d", zr.File[0].Name, zr.File[0].Method)
	}
	if zr.File[2].Method != zip.Deflate {
		t.Fatalf("text entry should be deflated")
	}
	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "png" {
		t.Fatalf("entry body = %q", body)
	}
}

func TestArchiveAssetsRejectsBadNames(t *testing.T) {
	tests := [][]Asset{
		nil,
		{{Filename: "../etc/passwd"}},
		{{Filename: "/abs.mp4"}},
		{{Filename: ""}},
		{{Filename: "a.png"}, {Filename: "./a.png"}},
	}
	for i, assets := range tests {
		if _, err := ArchiveAssets(assets); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
