package sticker

// ControlID names a clickable control in a Frame.
type ControlID uint8

const (
	ControlChoosePhoto ControlID = iota
	ControlUsePhoto
	ControlReset
	ControlAddSticker
	ControlSave
	ControlClosePicker
)

// Action returns the action a click on the control requests.
func (id ControlID) Action() Action {
	switch id {
	case ControlChoosePhoto:
		return Action{Kind: ActionChoosePhoto}
	case ControlUsePhoto:
		return Action{Kind: ActionUsePhoto}
	case ControlReset:
		return Action{Kind: ActionReset}
	case ControlAddSticker:
		return Action{Kind: ActionOpenPicker}
	case ControlSave:
		return Action{Kind: ActionSave}
	default:
		return Action{Kind: ActionClosePicker}
	}
}

// ButtonTheme selects how a button is drawn.
type ButtonTheme uint8

const (
	ThemePlain   ButtonTheme = iota // label only
	ThemePrimary                    // white fill inside a yellow border
	ThemeIcon                       // small icon button with a caption
	ThemeCircle                     // round add button
)

// Layout holds the screen metrics used by Compose.
type Layout struct {
	Screen        Rect
	Canvas        Rect    // background image area
	CanvasRadius  float64 // rounded canvas corners
	ButtonWidth   float64 // footer button size
	ButtonHeight  float64
	ButtonGap     float64
	IconSize      float64 // reset/save buttons
	CircleSize    float64 // add button
	StickerAnchor Vec2    // sticker origin before any drag, in screen space
	PickerHeight  float64 // emoji sheet height, anchored to the bottom
	EmojiSize     float64 // emoji cell size inside the sheet
	EmojiGap      float64

	Background  Color
	Foreground  Color
	Accent      Color // primary theme border
	PickerColor Color
}

// DefaultLayout returns the metrics of a phone-sized window: a 320x440
// canvas 58 px from the top, 320x68 buttons, and a sheet covering the bottom
// quarter of the screen.
func DefaultLayout() Layout {
	return NewLayout(390, 780)
}

// NewLayout centers the default metrics on a screen of the given size.
func NewLayout(screenW, screenH float64) Layout {
	canvas := Rect{X: (screenW - 320) / 2, Y: 58, Width: 320, Height: 440}
	return Layout{
		Screen:        Rect{Width: screenW, Height: screenH},
		Canvas:        canvas,
		CanvasRadius:  18,
		ButtonWidth:   320,
		ButtonHeight:  68,
		ButtonGap:     8,
		IconSize:      56,
		CircleSize:    84,
		StickerAnchor: Vec2{X: canvas.X, Y: canvas.Y + 90},
		PickerHeight:  screenH * 0.25,
		EmojiSize:     80,
		EmojiGap:      20,
		Background:    MustHexColor("#25292e"),
		Foreground:    MustHexColor("#ffffff"),
		Accent:        MustHexColor("#ffd33d"),
		PickerColor:   MustHexColor("#464c55"),
	}
}

func (l Layout) footerY() float64 {
	return l.Canvas.Y + l.Canvas.Height + 40
}

// MinScreen returns the smallest screen on which the canvas and every footer
// button are fully visible.
func (l Layout) MinScreen() (w, h float64) {
	w = max(l.Canvas.Width, l.ButtonWidth)
	h = l.footerY() + max(2*l.ButtonHeight+l.ButtonGap, l.CircleSize)
	return w, h
}

// ButtonView is one footer button.
type ButtonView struct {
	ID    ControlID
	Label string
	Theme ButtonTheme
	Rect  Rect
}

// StickerView is the placed sticker.
type StickerView struct {
	Source ImageRef
	Rect   Rect // Width == Height == transform Scale
}

// EmojiView is one cell of the picker sheet.
type EmojiView struct {
	Emoji Emoji
	Rect  Rect
}

// PickerView is the open emoji sheet.
type PickerView struct {
	Rect  Rect
	Title string
	Close ButtonView
	Items []EmojiView
}

// Frame is the render description of one session state.
type Frame struct {
	Background     ImageRef
	BackgroundRect Rect
	Sticker        *StickerView
	Buttons        []ButtonView
	Picker         *PickerView
	Toast          string // filled by the Stage, never by Compose
}

// ComposeSnapshot is Compose over a Session snapshot.
func ComposeSnapshot(snap Snapshot, lay Layout) Frame {
	return Compose(snap.State, snap.Transform, snap.HasSticker, lay)
}

// Compose projects the session into a Frame. It is a pure function of its
// arguments. Without a chosen background the placeholder is shown.
func Compose(st SessionState, tr StickerTransform, hasSticker bool, lay Layout) Frame {
	f := Frame{
		Background:     st.BackgroundImage,
		BackgroundRect: lay.Canvas,
	}
	if f.Background.IsZero() {
		f.Background = PlaceholderImage
	}

	if hasSticker && !st.StickerSource.IsZero() {
		f.Sticker = &StickerView{
			Source: st.StickerSource,
			Rect: Rect{
				X:      lay.StickerAnchor.X + tr.OffsetX,
				Y:      lay.StickerAnchor.Y + tr.OffsetY,
				Width:  tr.Scale,
				Height: tr.Scale,
			},
		}
	}

	footerY := lay.footerY()
	if st.IsEditing {
		f.Buttons = optionButtons(lay, footerY)
	} else {
		f.Buttons = choiceButtons(lay, footerY)
	}

	if st.IsPickerOpen {
		f.Picker = composePicker(lay)
	}
	return f
}

// choiceButtons lays out "Choose a photo" above "Use this photo".
func choiceButtons(lay Layout, y float64) []ButtonView {
	x := lay.Screen.Width/2 - lay.ButtonWidth/2
	return []ButtonView{
		{ID: ControlChoosePhoto, Label: "Choose a photo", Theme: ThemePrimary,
			Rect: Rect{x, y, lay.ButtonWidth, lay.ButtonHeight}},
		{ID: ControlUsePhoto, Label: "Use this photo", Theme: ThemePlain,
			Rect: Rect{x, y + lay.ButtonHeight + lay.ButtonGap, lay.ButtonWidth, lay.ButtonHeight}},
	}
}

// optionButtons lays out reset, add and save in a centered row.
func optionButtons(lay Layout, y float64) []ButtonView {
	cx := lay.Screen.Width / 2
	cy := y + lay.CircleSize/2
	const spacing = 60.0
	icon := lay.IconSize
	return []ButtonView{
		{ID: ControlReset, Label: "Reset", Theme: ThemeIcon,
			Rect: Rect{cx - lay.CircleSize/2 - spacing - icon, cy - icon/2, icon, icon}},
		{ID: ControlAddSticker, Label: "+", Theme: ThemeCircle,
			Rect: Rect{cx - lay.CircleSize/2, y, lay.CircleSize, lay.CircleSize}},
		{ID: ControlSave, Label: "Save", Theme: ThemeIcon,
			Rect: Rect{cx + lay.CircleSize/2 + spacing, cy - icon/2, icon, icon}},
	}
}

// composePicker lays out the sheet with a title bar and a row of emoji.
func composePicker(lay Layout) *PickerView {
	sheet := Rect{0, lay.Screen.Height - lay.PickerHeight, lay.Screen.Width, lay.PickerHeight}
	const titleBar = 48.0
	p := &PickerView{
		Rect:  sheet,
		Title: "Choose a sticker",
		Close: ButtonView{ID: ControlClosePicker, Label: "Close", Theme: ThemePlain,
			Rect: Rect{sheet.Width - 88, sheet.Y, 88, titleBar}},
	}
	// Cells shrink so the whole catalog fits on one row.
	size := lay.EmojiSize
	if n := float64(len(EmojiCatalog)); n > 0 {
		if fit := (sheet.Width - lay.EmojiGap*(n+1)) / n; fit < size {
			size = fit
		}
	}
	y := sheet.Y + titleBar + (sheet.Height-titleBar-size)/2
	x := lay.EmojiGap
	for _, e := range EmojiCatalog {
		p.Items = append(p.Items, EmojiView{Emoji: e, Rect: Rect{x, y, size, size}})
		x += size + lay.EmojiGap
	}
	return p
}
