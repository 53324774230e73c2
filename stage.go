package sticker

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"
	"github.com/tanema/gween/ease"
)

// ToastDuration is how long a notice stays on screen, in seconds.
const ToastDuration = 2.5

const (
	toastFadeDuration   = 0.5
	pickerSlideDuration = 0.25
	primaryIconSize     = 18.0
	primaryIconGap      = 8.0
)

// Z-order of the stage layers. Hit testing follows the same order.
const (
	zCanvas = iota
	zFooter
	zPicker
	zToast
)

// Stage is the retained node tree that shows a Frame. It turns node input
// into controller actions and re-applies a fresh Frame after every change.
type Stage struct {
	scene *Scene
	ctrl  *Controller
	cache *ImageCache
	font  *TTFFont
	lay   Layout
	log   *logrus.Entry

	canvas     *Node // background and sticker; the export root
	background *Node
	sticker    *Node
	footer     *Node
	picker     *Node
	toast      *Node

	frame        Frame
	bgRef        ImageRef
	stickerRef   ImageRef
	stickerScale float64
	scaleTween   *TweenGroup
	pickerTween  *TweenGroup
	toastFade    *TweenGroup
	buttons      []ControlID
	toastLeft    float64
}

// NewStage builds the node tree under the scene root, registers itself as
// the controller's notifier and change listener, and applies the current
// session. font may be nil, in which case labels are not drawn.
func NewStage(scene *Scene, ctrl *Controller, cache *ImageCache, font *TTFFont, lay Layout, log *logrus.Entry) *Stage {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	st := &Stage{
		scene: scene,
		ctrl:  ctrl,
		cache: cache,
		font:  font,
		lay:   lay,
		log:   log.WithField("component", "stage"),
	}
	scene.ClearColor = lay.Background
	st.build()

	ctrl.SetNotifier(st)
	ctrl.OnChange(st.Apply)
	st.Apply(ctrl.Session().Snapshot())
	return st
}

func (st *Stage) build() {
	root := st.scene.Root()
	lay := st.lay

	st.canvas = NewContainer("canvas")
	st.canvas.Interactable = true
	st.canvas.SetPosition(lay.Canvas.X, lay.Canvas.Y)
	st.canvas.SetZIndex(zCanvas)
	root.AddChild(st.canvas)

	st.background = NewRect("background", lay.Canvas.Width, lay.Canvas.Height, lay.PickerColor)
	st.canvas.AddChild(st.background)

	// Corners sit above the photo and below the sticker.
	if lay.CanvasRadius > 0 {
		mask := cornerMask(int(lay.Canvas.Width), int(lay.Canvas.Height), lay.CanvasRadius, lay.Background)
		st.canvas.AddChild(NewSprite("corners", ebiten.NewImageFromImage(mask)))
	}

	st.sticker = NewSprite("sticker", nil)
	st.sticker.Visible = false
	st.sticker.Interactable = true
	st.sticker.OnDoubleTap = func(PointerContext) {
		_ = st.ctrl.Dispatch(Action{Kind: ActionDoubleTap})
	}
	st.sticker.OnDrag = func(ctx DragContext) {
		_ = st.ctrl.Dispatch(Action{Kind: ActionDrag, DX: ctx.DeltaX, DY: ctx.DeltaY})
	}
	st.sticker.OnDragEnd = func(ctx DragContext) {
		if ctx.DeltaX != 0 || ctx.DeltaY != 0 {
			_ = st.ctrl.Dispatch(Action{Kind: ActionDrag, DX: ctx.DeltaX, DY: ctx.DeltaY})
		}
	}
	st.canvas.AddChild(st.sticker)

	st.footer = NewContainer("footer")
	st.footer.Interactable = true
	st.footer.SetZIndex(zFooter)
	root.AddChild(st.footer)

	st.picker = st.buildPicker()
	st.picker.Visible = false
	st.picker.SetZIndex(zPicker)
	root.AddChild(st.picker)

	st.toast = NewText("toast", "", st.font)
	st.toast.Visible = false
	st.toast.SetZIndex(zToast)
	st.toast.TextBlock.Align = TextAlignCenter
	st.toast.TextBlock.BoxWidth = lay.Screen.Width
	st.toast.SetPosition(0, lay.Canvas.Y+lay.Canvas.Height+8)
	st.toast.OnUpdate = st.updateToast
	root.AddChild(st.toast)
}

// Canvas returns the node holding the background and the sticker.
func (st *Stage) Canvas() *Node {
	return st.canvas
}

// Snapshotter returns a renderer for the canvas at its on-screen size.
func (st *Stage) Snapshotter() *Snapshotter {
	return &Snapshotter{Scene: st.scene, Node: st.canvas, Width: st.lay.Canvas.Width, Height: st.lay.Canvas.Height}
}

// Frame returns the last applied frame.
func (st *Stage) Frame() Frame {
	return st.frame
}

// Apply composes the snapshot and updates the node tree to match.
func (st *Stage) Apply(snap Snapshot) {
	f := ComposeSnapshot(snap, st.lay)
	st.applyBackground(f)
	st.applySticker(f)
	st.applyButtons(f)
	st.applyPicker(f)
	// Applying may raise a notice.
	f.Toast = st.frame.Toast
	st.frame = f
}

func (st *Stage) applyBackground(f Frame) {
	if f.Background == st.bgRef {
		return
	}
	img, err := st.cache.Load(f.Background)
	if err != nil {
		st.log.WithError(err).WithField("image", f.Background).Warn("background unavailable")
		if f.Background.Kind == ImageURI {
			st.ctrl.notify(noticePickFailed)
		}
		img, err = st.cache.Load(PlaceholderImage)
		if err != nil {
			img = nil
		}
	}
	if st.bgRef.Kind == ImageURI {
		// User photos are large and rarely reused.
		st.cache.Evict(st.bgRef)
	}
	st.bgRef = f.Background
	st.background.SetImage(img)
	if img != nil {
		b := img.Bounds()
		st.background.SetScale(f.BackgroundRect.Width/float64(b.Dx()), f.BackgroundRect.Height/float64(b.Dy()))
	} else {
		st.background.SetScale(1, 1)
	}
}

func (st *Stage) applySticker(f Frame) {
	if f.Sticker == nil {
		st.sticker.Visible = false
		st.stickerRef = ImageRef{}
		st.stopScaleTween()
		return
	}
	sv := f.Sticker
	if sv.Source != st.stickerRef {
		img, err := st.cache.Load(sv.Source)
		if err != nil {
			st.log.WithError(err).WithField("image", sv.Source).Warn("sticker unavailable")
			st.sticker.Visible = false
			return
		}
		st.sticker.SetImage(img)
		st.stickerRef = sv.Source
		st.stickerScale = 0 // new sticker snaps to size
	}
	st.sticker.Visible = true
	st.sticker.SetPosition(sv.Rect.X-st.lay.Canvas.X, sv.Rect.Y-st.lay.Canvas.Y)

	if sv.Rect.Width == st.stickerScale {
		return
	}
	w, _ := st.sticker.Size()
	if w <= 0 {
		return
	}
	to := sv.Rect.Width / w
	st.stopScaleTween()
	if st.stickerScale == 0 {
		st.sticker.SetScale(to, to)
	} else {
		st.scaleTween = TweenScale(st.sticker, to, to, StickerSpringDuration, springEase)
		st.scene.AddTween(st.scaleTween)
	}
	st.stickerScale = sv.Rect.Width
}

func (st *Stage) stopScaleTween() {
	if st.scaleTween != nil {
		st.scaleTween.Stop()
		st.scaleTween = nil
	}
}

func (st *Stage) applyButtons(f Frame) {
	ids := make([]ControlID, len(f.Buttons))
	for i, b := range f.Buttons {
		ids[i] = b.ID
	}
	if slices.Equal(ids, st.buttons) {
		return
	}
	st.buttons = ids
	for _, c := range slices.Clone(st.footer.Children()) {
		c.Dispose()
	}
	for _, b := range f.Buttons {
		st.footer.AddChild(st.newButton(b))
	}
}

// applyPicker shows or hides the emoji sheet. Opening slides it up from the
// bottom edge of the screen.
func (st *Stage) applyPicker(f Frame) {
	open := f.Picker != nil
	if open == st.picker.Visible {
		return
	}
	st.picker.Visible = open
	if st.pickerTween != nil {
		st.pickerTween.Stop()
		st.pickerTween = nil
	}
	if !open {
		return
	}
	r := f.Picker.Rect
	st.picker.SetPosition(r.X, st.lay.Screen.Height)
	st.pickerTween = TweenPosition(st.picker, r.X, r.Y, pickerSlideDuration, ease.OutCubic)
	st.scene.AddTween(st.pickerTween)
}

// newButton builds a clickable button node for b.
func (st *Stage) newButton(b ButtonView) *Node {
	lay := st.lay
	n := NewContainer("button-" + b.Label)
	n.SetPosition(b.Rect.X, b.Rect.Y)
	n.Interactable = true
	n.HitShape = HitRect{Width: b.Rect.Width, Height: b.Rect.Height}
	n.UserData = b.ID
	n.OnClick = func(PointerContext) {
		_ = st.ctrl.Dispatch(b.ID.Action())
	}

	labelColor := lay.Foreground
	var icon *ebiten.Image
	switch b.Theme {
	case ThemePrimary:
		n.AddChild(NewRect("border", b.Rect.Width, b.Rect.Height, lay.Accent))
		inner := NewRect("fill", b.Rect.Width-8, b.Rect.Height-8, ColorWhite)
		inner.SetPosition(4, 4)
		n.AddChild(inner)
		labelColor = lay.Background
		icon = pictureIcon(primaryIconSize, lay.Background)
	case ThemeCircle:
		d := b.Rect.Width
		n.HitShape = HitCircle{CenterX: d / 2, CenterY: d / 2, Radius: d / 2}
		n.AddChild(NewSprite("circle", circleImage(d, lay.Accent, ColorWhite)))
		labelColor = lay.Background
	case ThemeIcon:
		n.AddChild(NewSprite("circle", circleImage(b.Rect.Width, lay.PickerColor, lay.PickerColor)))
	}

	label := NewText("label", b.Label, st.font)
	label.TextBlock.Color = labelColor
	label.TextBlock.Align = TextAlignCenter
	label.TextBlock.BoxWidth = b.Rect.Width
	if st.font != nil {
		label.SetPosition(0, (b.Rect.Height-st.font.LineHeight())/2)
	}
	if icon != nil {
		// Icon and label are centered together as one group.
		var textW float64
		if st.font != nil {
			textW, _ = st.font.MeasureString(b.Label)
		}
		shift := (primaryIconSize + primaryIconGap) / 2
		label.SetPosition(label.X+shift, label.Y)
		glyph := NewSprite("icon", icon)
		glyph.SetPosition((b.Rect.Width-textW)/2-shift, (b.Rect.Height-primaryIconSize)/2)
		n.AddChild(glyph)
	}
	n.AddChild(label)
	return n
}

// buildPicker builds the emoji sheet. Its content never changes; Apply only
// toggles its visibility.
func (st *Stage) buildPicker() *Node {
	lay := st.lay
	pv := composePicker(lay)

	sheet := NewContainer("picker")
	sheet.Interactable = true
	sheet.SetPosition(pv.Rect.X, pv.Rect.Y)
	// Swallow clicks that miss every emoji so they do not reach the canvas.
	sheet.HitShape = HitRect{Width: pv.Rect.Width, Height: pv.Rect.Height}
	sheet.AddChild(NewRect("sheet", pv.Rect.Width, pv.Rect.Height, lay.PickerColor))

	title := NewText("title", pv.Title, st.font)
	title.SetPosition(20, 12)
	sheet.AddChild(title)

	closeBtn := pv.Close
	closeBtn.Rect.X -= pv.Rect.X
	closeBtn.Rect.Y -= pv.Rect.Y
	sheet.AddChild(st.newButton(closeBtn))

	for _, item := range pv.Items {
		img, err := st.cache.Load(item.Emoji.Ref)
		if err != nil {
			st.log.WithError(err).WithField("emoji", item.Emoji.Label).Warn("emoji unavailable")
			continue
		}
		cell := NewSprite("emoji-"+item.Emoji.Label, img)
		cell.Interactable = true
		cell.UserData = item.Emoji.Ref
		b := img.Bounds()
		cell.SetScale(item.Rect.Width/float64(b.Dx()), item.Rect.Height/float64(b.Dy()))
		cell.SetPosition(item.Rect.X-pv.Rect.X, item.Rect.Y-pv.Rect.Y)
		ref := item.Emoji.Ref
		cell.OnClick = func(PointerContext) {
			_ = st.ctrl.Dispatch(Action{Kind: ActionPickEmoji, Image: ref})
		}
		sheet.AddChild(cell)
	}
	return sheet
}

// Notify shows msg as a toast until ToastDuration elapses or the next notice
// replaces it.
func (st *Stage) Notify(msg string) {
	st.toast.TextBlock.Content = msg
	st.toast.Visible = true
	st.stopToastFade()
	st.toast.SetAlpha(1)
	st.toastLeft = ToastDuration
	st.frame.Toast = msg
}

func (st *Stage) updateToast(dt float64) {
	if st.toastLeft <= 0 {
		return
	}
	st.toastLeft -= dt
	switch {
	case st.toastLeft <= 0:
		st.toast.Visible = false
		st.frame.Toast = ""
		st.stopToastFade()
	case st.toastLeft <= toastFadeDuration && st.toastFade == nil:
		st.toastFade = TweenAlpha(st.toast, 0, float32(st.toastLeft), ease.Linear)
		st.scene.AddTween(st.toastFade)
	}
}

func (st *Stage) stopToastFade() {
	if st.toastFade != nil {
		st.toastFade.Stop()
		st.toastFade = nil
	}
}

// circleImage draws a filled circle of diameter d with a 3 px border.
func circleImage(d float64, border, fill Color) *ebiten.Image {
	size := int(d + 0.5)
	img := ebiten.NewImage(size, size)
	r := float32(d / 2)
	vector.DrawFilledCircle(img, r, r, r, border.toRGBA(), true)
	vector.DrawFilledCircle(img, r, r, r-3, fill.toRGBA(), true)
	return img
}

// pictureIcon draws a framed landscape glyph of the given size.
func pictureIcon(size float64, c Color) *ebiten.Image {
	n := int(math.Ceil(size))
	img := ebiten.NewImage(n, n)
	s := float32(size)
	ink := c.toRGBA()
	vector.StrokeRect(img, 1, s*0.15, s-2, s*0.7, 2, ink, true)
	vector.DrawFilledCircle(img, s*0.32, s*0.38, s*0.08, ink, true)
	vector.StrokeLine(img, s*0.15, s*0.72, s*0.42, s*0.48, 2, ink, true)
	vector.StrokeLine(img, s*0.42, s*0.48, s*0.6, s*0.62, 2, ink, true)
	vector.StrokeLine(img, s*0.55, s*0.58, s*0.68, s*0.45, 2, ink, true)
	vector.StrokeLine(img, s*0.68, s*0.45, s*0.85, s*0.72, 2, ink, true)
	return img
}

// cornerMask paints c outside a w x h rounded rectangle of radius r and
// leaves the inside transparent. Edges are antialiased.
func cornerMask(w, h int, r float64, c Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r = min(r, float64(w)/2, float64(h)/2)
	full := c.toRGBA()
	ri := int(math.Ceil(r))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x >= ri && x < w-ri) || (y >= ri && y < h-ri) {
				continue
			}
			// Nearest corner circle center.
			cx, cy := r, r
			if x >= w/2 {
				cx = float64(w) - r
			}
			if y >= h/2 {
				cy = float64(h) - r
			}
			px, py := float64(x)+0.5, float64(y)+0.5
			if (px-cx)*(cx-float64(w)/2) < 0 || (py-cy)*(cy-float64(h)/2) < 0 {
				// Inside the straight edge bands of the corner square.
				continue
			}
			cover := clamp01(math.Hypot(px-cx, py-cy) - r + 0.5)
			if cover == 0 {
				continue
			}
			img.SetRGBA(x, y, scaleRGBA(full, cover))
		}
	}
	return img
}

// scaleRGBA scales a premultiplied color by f.
func scaleRGBA(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: uint8(float64(c.A) * f),
	}
}
