package sticker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirLibraryPermission(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	nested := DirLibrary{Dir: filepath.Join(root, "a", "b")}
	got, err := nested.RequestStoragePermission(ctx)
	if err != nil || got != PermissionGranted {
		t.Fatalf("permission = %v, %v; want granted", got, err)
	}
	if _, err := os.Stat(nested.Dir); err != nil {
		t.Errorf("directory should be created: %v", err)
	}
	entries, _ := os.ReadDir(nested.Dir)
	if len(entries) != 0 {
		t.Errorf("write check file should be removed, found %d entries", len(entries))
	}

	// A regular file in the way cannot become a directory.
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		lib  DirLibrary
	}{
		{"empty dir", DirLibrary{}},
		{"path is a file", DirLibrary{Dir: blocker}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.lib.RequestStoragePermission(ctx)
			if err != nil || got != PermissionDenied {
				t.Errorf("permission = %v, %v; want denied", got, err)
			}
		})
	}
}

func TestDirLibraryPermissionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := DirLibrary{Dir: t.TempDir()}.RequestStoragePermission(ctx)
	if !errors.Is(err, context.Canceled) || got != PermissionDenied {
		t.Errorf("permission = %v, %v", got, err)
	}
}

func TestDirLibrarySaveImage(t *testing.T) {
	lib := DirLibrary{Dir: t.TempDir()}
	data := []byte("\x89PNG fake payload")

	first, err := lib.SaveImage(context.Background(), data)
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	second, err := lib.SaveImage(context.Background(), data)
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if first == second {
		t.Error("each save should get a fresh file name")
	}

	base := filepath.Base(first)
	if !strings.HasPrefix(base, "sticker_") || filepath.Ext(base) != ".png" {
		t.Errorf("file name = %q", base)
	}
	written, err := os.ReadFile(first)
	if err != nil || !bytes.Equal(written, data) {
		t.Errorf("contents = %q, %v", written, err)
	}

	entries, _ := os.ReadDir(lib.Dir)
	if len(entries) != 2 {
		t.Errorf("expected 2 files and no leftovers, got %d", len(entries))
	}
}

func TestDirLibrarySaveImageFailure(t *testing.T) {
	lib := DirLibrary{Dir: filepath.Join(t.TempDir(), "missing")}
	_, err := lib.SaveImage(context.Background(), []byte("x"))

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want *IOError", err)
	}
	if ioErr.Path == "" {
		t.Error("IOError should carry the destination path")
	}
}
