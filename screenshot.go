package sticker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Screenshot queues a labeled screenshot to be captured at the end of the
// current frame's Draw call. The resulting PNG is written to ScreenshotDir
// with a timestamped filename. Safe to call from Update or Draw.
func (s *Scene) Screenshot(label string) {
	s.screenshotQueue = append(s.screenshotQueue, label)
}

// flushScreenshots captures the rendered frame for every queued label and
// writes each as a PNG file. Called at the end of Scene.Draw.
func (s *Scene) flushScreenshots(screen *ebiten.Image) {
	if len(s.screenshotQueue) == 0 {
		return
	}
	defer func() { s.screenshotQueue = s.screenshotQueue[:0] }()

	if err := os.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		s.log.WithError(err).WithField("dir", s.ScreenshotDir).Error("screenshot directory")
		return
	}

	img := readImage(screen)
	stamp := time.Now().Format("20060102_150405")
	for _, label := range s.screenshotQueue {
		path := filepath.Join(s.ScreenshotDir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			s.log.WithError(err).Error("screenshot")
			continue
		}
		s.log.WithField("path", path).Debug("screenshot written")
	}
}

// readImage copies an ebiten image back to the CPU as straight-alpha NRGBA.
func readImage(src *ebiten.Image) *image.NRGBA {
	b := src.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	src.ReadPixels(pixels)
	return unpremultiply(pixels, b.Dx(), b.Dy())
}

// unpremultiply converts premultiplied RGBA bytes to an NRGBA image. pixels
// is reused as the image buffer.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	for i := 0; i+3 < len(pixels); i += 4 {
		a := pixels[i+3]
		if a > 0 && a < 255 {
			pixels[i] = uint8(min(int(pixels[i])*255/int(a), 255))
			pixels[i+1] = uint8(min(int(pixels[i+1])*255/int(a), 255))
			pixels[i+2] = uint8(min(int(pixels[i+2])*255/int(a), 255))
		}
	}
	return &image.NRGBA{Pix: pixels, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Snapshotter renders one subtree of a scene to a PNG. It implements
// ViewRenderer for the editor canvas.
//
// Width and Height give the subtree's natural size; the output is scaled
// from it to the requested size. Render must happen on the game loop, after
// the game has started.
type Snapshotter struct {
	Scene  *Scene
	Node   *Node
	Width  float64
	Height float64
}

// RenderViewToImage draws the subtree into an offscreen image of size and
// returns it PNG-encoded.
func (sn *Snapshotter) RenderViewToImage(ctx context.Context, size image.Point) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Err: err}
	}
	if sn.Scene == nil || sn.Node == nil {
		return nil, &RenderError{Err: errors.New("no view to render")}
	}
	if sn.Node.IsDisposed() {
		return nil, &RenderError{Err: errors.New("view is disposed")}
	}
	if size.X <= 0 || size.Y <= 0 || sn.Width <= 0 || sn.Height <= 0 {
		return nil, &RenderError{Err: fmt.Errorf("invalid size %v", size)}
	}

	target := ebiten.NewImage(size.X, size.Y)
	defer target.Deallocate()

	sn.Scene.renderTree(target, sn.Node, snapshotView(sn.Node, sn.Width, sn.Height, size))
	// The subtree now holds off-screen world transforms.
	markSubtreeDirty(sn.Node)

	var buf bytes.Buffer
	if err := png.Encode(&buf, readImage(target)); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("encode: %w", err)}
	}
	return buf.Bytes(), nil
}

// snapshotView returns the parent transform that maps n's local origin to the
// target origin and its w x h box onto size.
func snapshotView(n *Node, w, h float64, size image.Point) [6]float64 {
	scale := [6]float64{float64(size.X) / w, 0, 0, float64(size.Y) / h, 0, 0}
	return multiplyAffine(scale, invertAffine(computeLocalTransform(n)))
}
