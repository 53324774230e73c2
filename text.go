package sticker

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// TextBlock holds text content and formatting for a text node.
//
// When Align is TextAlignCenter or TextAlignRight the text is aligned within
// a box of BoxWidth pixels starting at the node origin.
type TextBlock struct {
	Content  string
	Font     *TTFFont
	Align    TextAlign
	BoxWidth float64
	Color    Color
}

// Measure returns the rendered size of the content. Returns zero when no
// font is set.
func (tb *TextBlock) Measure() (w, h float64) {
	if tb.Font == nil {
		return 0, 0
	}
	return tb.Font.MeasureString(tb.Content)
}

// alignOffset returns the x offset that places the content inside BoxWidth.
func (tb *TextBlock) alignOffset() float64 {
	if tb.BoxWidth <= 0 || tb.Font == nil {
		return 0
	}
	w, _ := tb.Measure()
	switch tb.Align {
	case TextAlignCenter:
		return (tb.BoxWidth - w) / 2
	case TextAlignRight:
		return tb.BoxWidth - w
	default:
		return 0
	}
}

// TTFFont wraps Ebitengine's text/v2 for TrueType font rendering.
type TTFFont struct {
	face *text.GoTextFace
	size float64
	lh   float64 // cached line height
}

// LoadTTFFont loads a TrueType font from raw TTF/OTF data at the given size.
func LoadTTFFont(ttfData []byte, size float64) (*TTFFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("sticker: failed to parse TTF data: %w", err)
	}
	face := &text.GoTextFace{Source: source, Size: size}
	m := face.Metrics()
	return &TTFFont{
		face: face,
		size: size,
		lh:   m.HAscent + m.HDescent + m.HLineGap,
	}, nil
}

// MeasureString returns the width and height of the rendered text.
func (f *TTFFont) MeasureString(s string) (width, height float64) {
	return text.Measure(s, f.face, f.lh)
}

// LineHeight returns the vertical distance between baselines.
func (f *TTFFont) LineHeight() float64 {
	return f.lh
}

// Size returns the font size in pixels.
func (f *TTFFont) Size() float64 {
	return f.size
}

// drawText renders a text node's block with the given world transform.
func drawText(target *ebiten.Image, tb *TextBlock, world [6]float64, alpha float64) {
	if tb.Font == nil || tb.Content == "" {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(tb.alignOffset(), 0)
	op.GeoM.Concat(geoM(world))
	op.ColorScale.ScaleWithColor(Color{tb.Color.R, tb.Color.G, tb.Color.B, tb.Color.A * alpha}.toRGBA())
	op.LineSpacing = tb.Font.lh
	text.Draw(target, tb.Content, tb.Font.face, op)
}
