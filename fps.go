package sticker

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	fpsWidgetWidth   = 100
	fpsWidgetHeight  = 32
	fpsRefreshPeriod = 0.5 // seconds
)

// NewFPSWidget returns a debug overlay pinned to the top-right corner of the
// layout's screen that prints FPS and TPS. It is drawn above every other
// layer and ignores input.
func NewFPSWidget(lay Layout) *Node {
	img := ebiten.NewImage(fpsWidgetWidth, fpsWidgetHeight)

	n := NewSprite("fps", img)
	n.SetPosition(lay.Screen.Width-fpsWidgetWidth, 0)
	n.RenderLayer = 255
	n.ZIndex = 1 << 20

	since := fpsRefreshPeriod // draw on the first update
	n.OnUpdate = func(dt float64) {
		if since += dt; since < fpsRefreshPeriod {
			return
		}
		since = 0
		img.Fill(color.RGBA{A: 128})
		ebitenutil.DebugPrint(img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	return n
}
