package sticker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DirLibrary is a media library backed by a directory. It implements both
// MediaLibrary and PermissionRequester: access is granted when the directory
// exists (or can be created) and is writable.
type DirLibrary struct {
	Dir string
}

// RequestStoragePermission creates the directory if needed and checks it
// with a temporary file.
func (l DirLibrary) RequestStoragePermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionDenied, err
	}
	if l.Dir == "" {
		return PermissionDenied, nil
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return PermissionDenied, nil
	}
	tmp, err := os.CreateTemp(l.Dir, ".writecheck-*")
	if err != nil {
		return PermissionDenied, nil
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)
	return PermissionGranted, nil
}

// SaveImage writes png to a new sticker_<uuid>.png file and returns its path.
// The file appears atomically: it is written under a temporary name first.
func (l DirLibrary) SaveImage(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &IOError{Err: err}
	}
	path := filepath.Join(l.Dir, fmt.Sprintf("sticker_%s.png", uuid.NewString()))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", &IOError{Path: path, Err: err}
	}
	return path, nil
}
