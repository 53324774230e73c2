package sticker

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// emojiTextureSize is the edge length of generated sticker textures. Stickers
// are drawn scaled down from it, so double size stays sharp.
const emojiTextureSize = 128

// Mouth shapes for generated emoji faces.
type mouth uint8

const (
	mouthSmile mouth = iota
	mouthOpen
	mouthFlat
	mouthTongue
)

// Emoji is one entry of the sticker catalog.
type Emoji struct {
	Ref   ImageRef
	Label string
	face  Color
	mouth mouth
	wink  bool
}

// EmojiCatalog lists the stickers offered by the picker, in display order.
var EmojiCatalog = []Emoji{
	{Ref: BundledImage("emoji-grin"), Label: "Grin", face: MustHexColor("#ffd33d"), mouth: mouthSmile},
	{Ref: BundledImage("emoji-wow"), Label: "Wow", face: MustHexColor("#ffb347"), mouth: mouthOpen},
	{Ref: BundledImage("emoji-meh"), Label: "Meh", face: MustHexColor("#9ad0ec"), mouth: mouthFlat},
	{Ref: BundledImage("emoji-wink"), Label: "Wink", face: MustHexColor("#b5e48c"), mouth: mouthSmile, wink: true},
	{Ref: BundledImage("emoji-silly"), Label: "Silly", face: MustHexColor("#f4a6c6"), mouth: mouthTongue},
	{Ref: BundledImage("emoji-cool"), Label: "Cool", face: MustHexColor("#c3a6ff"), mouth: mouthSmile},
}

// FindEmoji returns the catalog entry for ref.
func FindEmoji(ref ImageRef) (Emoji, bool) {
	for _, e := range EmojiCatalog {
		if e.Ref == ref {
			return e, true
		}
	}
	return Emoji{}, false
}

// RegisterBundledAssets registers the placeholder background and every
// catalog emoji with cache.
func RegisterBundledAssets(cache *ImageCache, lay Layout) {
	w, h := int(lay.Canvas.Width), int(lay.Canvas.Height)
	cache.RegisterBundled(PlaceholderImage.Name, func() *ebiten.Image {
		return ebiten.NewImageFromImage(placeholderBackground(w, h))
	})
	for _, e := range EmojiCatalog {
		cache.RegisterBundled(e.Ref.Name, func() *ebiten.Image {
			return drawEmoji(e)
		})
	}
}

// placeholderBackground paints a dusk gradient with a low sun.
func placeholderBackground(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	top := MustHexColor("#3a6186")
	bottom := MustHexColor("#f5af73")
	sunX, sunY, sunR := float64(w)*0.68, float64(h)*0.62, float64(w)*0.14
	for y := 0; y < h; y++ {
		t := float64(y) / float64(max(h-1, 1))
		row := Color{
			R: top.R + (bottom.R-top.R)*t,
			G: top.G + (bottom.G-top.G)*t,
			B: top.B + (bottom.B-top.B)*t,
			A: 1,
		}
		for x := 0; x < w; x++ {
			c := row
			if d := math.Hypot(float64(x)-sunX, float64(y)-sunY); d < sunR {
				c = Color{1, 0.93, 0.7, 1}
			}
			img.SetRGBA(x, y, c.toRGBA())
		}
	}
	return img
}

// drawEmoji renders a catalog face into a new texture.
func drawEmoji(e Emoji) *ebiten.Image {
	const s = emojiTextureSize
	img := ebiten.NewImage(s, s)
	ink := color.RGBA{0x25, 0x29, 0x2e, 0xff}

	vector.DrawFilledCircle(img, s/2, s/2, s/2-2, e.face.toRGBA(), true)
	vector.StrokeCircle(img, s/2, s/2, s/2-3, 3, ink, true)

	// Eyes
	if e.Label == "Cool" {
		vector.DrawFilledRect(img, s*0.2, s*0.32, s*0.6, s*0.14, ink, true)
	} else {
		vector.DrawFilledCircle(img, s*0.35, s*0.4, s*0.07, ink, true)
		if e.wink {
			vector.StrokeLine(img, s*0.57, s*0.4, s*0.73, s*0.4, 5, ink, true)
		} else {
			vector.DrawFilledCircle(img, s*0.65, s*0.4, s*0.07, ink, true)
		}
	}

	// Mouth
	switch e.mouth {
	case mouthOpen:
		vector.DrawFilledCircle(img, s/2, s*0.7, s*0.12, ink, true)
	case mouthFlat:
		vector.StrokeLine(img, s*0.34, s*0.7, s*0.66, s*0.7, 6, ink, true)
	case mouthTongue:
		strokeSmile(img, ink)
		vector.DrawFilledCircle(img, s*0.58, s*0.78, s*0.07, color.RGBA{0xe0, 0x4f, 0x5f, 0xff}, true)
	default:
		strokeSmile(img, ink)
	}
	return img
}

// strokeSmile draws a lower half-circle arc as a polyline.
func strokeSmile(img *ebiten.Image, ink color.Color) {
	const s = emojiTextureSize
	const segments = 12
	cx, cy, r := float32(s/2), float32(s*0.55), float32(s*0.2)
	for i := 0; i < segments; i++ {
		a0 := math.Pi * float64(i) / segments
		a1 := math.Pi * float64(i+1) / segments
		vector.StrokeLine(img,
			cx+r*float32(math.Cos(a0)), cy+r*float32(math.Sin(a0)),
			cx+r*float32(math.Cos(a1)), cy+r*float32(math.Sin(a1)),
			6, ink, true)
	}
}
