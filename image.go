package sticker

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ImageKind says where an ImageRef points.
type ImageKind uint8

const (
	ImageNone    ImageKind = iota // zero value, no image
	ImageBundled                  // asset shipped with the program, addressed by Name
	ImageURI                      // user-provided file, addressed by URI
)

// ImageRef is an immutable reference to a bundled asset or a user-provided
// file. The zero value means "no image".
type ImageRef struct {
	Kind ImageKind
	Name string
	URI  string
}

// PlaceholderImage is the bundled default background.
var PlaceholderImage = BundledImage("background-image")

// BundledImage returns a reference to a bundled asset.
func BundledImage(name string) ImageRef {
	return ImageRef{Kind: ImageBundled, Name: name}
}

// FileImage returns a reference to a user-provided file. The path is made
// absolute so the reference stays valid if the working directory changes.
func FileImage(path string) ImageRef {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return ImageRef{Kind: ImageURI, Name: filepath.Base(path), URI: path}
}

// IsZero reports whether r refers to no image.
func (r ImageRef) IsZero() bool {
	return r.Kind == ImageNone
}

// String returns a short human readable form.
func (r ImageRef) String() string {
	switch r.Kind {
	case ImageBundled:
		return "bundled:" + r.Name
	case ImageURI:
		return "file:" + r.URI
	default:
		return "none"
	}
}

// key identifies the referenced pixels for caching.
func (r ImageRef) key() string {
	return r.String()
}

// ImageGenerator draws a bundled asset.
type ImageGenerator func() *ebiten.Image

// ImageCache resolves ImageRefs to GPU images and keeps them for reuse.
type ImageCache struct {
	bundled map[string]ImageGenerator
	images  map[string]*ebiten.Image
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		bundled: make(map[string]ImageGenerator),
		images:  make(map[string]*ebiten.Image),
	}
}

// RegisterBundled makes a bundled asset available under name.
func (c *ImageCache) RegisterBundled(name string, gen ImageGenerator) {
	c.bundled[name] = gen
}

// Load returns the image for ref, decoding or generating it on first use.
func (c *ImageCache) Load(ref ImageRef) (*ebiten.Image, error) {
	if ref.IsZero() {
		return nil, ErrInvalidImage
	}
	if img, ok := c.images[ref.key()]; ok {
		return img, nil
	}

	var img *ebiten.Image
	switch ref.Kind {
	case ImageBundled:
		gen, ok := c.bundled[ref.Name]
		if !ok {
			return nil, fmt.Errorf("sticker: unknown bundled image %q: %w", ref.Name, ErrInvalidImage)
		}
		img = gen()
	case ImageURI:
		decoded, err := decodeImageFile(ref.URI)
		if err != nil {
			return nil, err
		}
		img = ebiten.NewImageFromImage(decoded)
	}
	c.images[ref.key()] = img
	return img, nil
}

// Evict drops a cached image and deallocates it.
func (c *ImageCache) Evict(ref ImageRef) {
	if img, ok := c.images[ref.key()]; ok {
		img.Deallocate()
		delete(c.images, ref.key())
	}
}

// decodeImageFile decodes a PNG, JPEG, GIF or WebP file.
func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sticker: open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("sticker: decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// checkImageFile reports whether path holds an image in a supported format,
// reading only its header.
func checkImageFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sticker: open image: %w", err)
	}
	defer f.Close()
	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("sticker: %s: %w", filepath.Base(path), ErrInvalidImage)
	}
	return nil
}
