package sticker

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// FilePicker selects the same file every time. It backs the -image flag.
type FilePicker struct {
	Path string
}

// SelectImage returns the configured file if it holds a supported image.
// An empty path counts as a cancelled selection.
func (p FilePicker) SelectImage(ctx context.Context) (ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return ImageRef{}, err
	}
	if p.Path == "" {
		return ImageRef{}, ErrCancelled
	}
	if err := checkImageFile(p.Path); err != nil {
		return ImageRef{}, err
	}
	return FileImage(p.Path), nil
}

type dropResult struct {
	ref ImageRef
	err error
}

// DropPicker selects an image dropped onto the game window. SelectImage
// blocks until Poll sees a dropped file, Cancel is called, or ctx is done.
// At most one selection is pending at a time.
type DropPicker struct {
	// Dir receives copies of dropped files. Defaults to a directory under
	// os.TempDir.
	Dir string

	mu      sync.Mutex
	pending chan dropResult
}

// NewDropPicker creates a picker with no pending selection.
func NewDropPicker() *DropPicker {
	return &DropPicker{}
}

// SelectImage waits for the user to drop an image file onto the window.
func (p *DropPicker) SelectImage(ctx context.Context) (ImageRef, error) {
	ch := make(chan dropResult, 1)
	p.mu.Lock()
	if p.pending != nil {
		p.mu.Unlock()
		return ImageRef{}, ErrPickPending
	}
	p.pending = ch
	p.mu.Unlock()

	select {
	case res := <-ch:
		return res.ref, res.err
	case <-ctx.Done():
		p.mu.Lock()
		if p.pending == ch {
			p.pending = nil
		}
		p.mu.Unlock()
		return ImageRef{}, ctx.Err()
	}
}

// Waiting reports whether a selection is pending.
func (p *DropPicker) Waiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Cancel ends the pending selection with ErrCancelled.
func (p *DropPicker) Cancel() bool {
	return p.deliver(dropResult{err: ErrCancelled})
}

// Poll checks for files dropped onto the window this frame. Call once per
// Update. Drops with no selection pending are ignored.
func (p *DropPicker) Poll() {
	if !p.Waiting() {
		return
	}
	files := ebiten.DroppedFiles()
	if files == nil {
		return
	}
	entries, err := fs.ReadDir(files, ".")
	if err != nil || len(entries) == 0 {
		return
	}
	path, err := p.importDropped(files, entries[0].Name())
	if err != nil {
		p.deliver(dropResult{err: err})
		return
	}
	p.Drop(path)
}

// importDropped copies a dropped file into Dir so it can be referenced by path
// after the drop is gone. Each import gets a fresh name, so dropping another
// file with the same name never replaces an image already in use.
func (p *DropPicker) importDropped(files fs.FS, name string) (string, error) {
	dir := p.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "stickersmash-drops")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	src, err := files.Open(name)
	if err != nil {
		return "", err
	}
	defer src.Close()
	dst, err := os.Create(filepath.Join(dir, uuid.NewString()+filepath.Ext(name)))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return dst.Name(), dst.Close()
}

// Drop completes the pending selection with the file at path. Reports false
// when no selection was pending.
func (p *DropPicker) Drop(path string) bool {
	if err := checkImageFile(path); err != nil {
		return p.deliver(dropResult{err: err})
	}
	return p.deliver(dropResult{ref: FileImage(path)})
}

func (p *DropPicker) deliver(res dropResult) bool {
	p.mu.Lock()
	ch := p.pending
	p.pending = nil
	p.mu.Unlock()
	if ch == nil {
		return false
	}
	ch <- res
	return true
}

var _ ImagePicker = (*DropPicker)(nil)
var _ ImagePicker = FilePicker{}
