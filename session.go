package sticker

// Phase is the session's position in the editing flow. It is derived from
// SessionState and never stored.
type Phase uint8

const (
	PhaseNoImage     Phase = iota // nothing chosen yet
	PhaseImageChosen              // background chosen, waiting for confirmation
	PhaseEditing                  // background confirmed, sticker tools shown
	PhasePickerOpen               // editing with the emoji picker open
)

func (p Phase) String() string {
	switch p {
	case PhaseNoImage:
		return "NoImage"
	case PhaseImageChosen:
		return "ImageChosen"
	case PhaseEditing:
		return "Editing"
	case PhasePickerOpen:
		return "PickerOpen"
	default:
		return "Phase(?)"
	}
}

// SessionState is the observable state of one editing session. The zero
// value is the initial state.
type SessionState struct {
	BackgroundImage ImageRef
	StickerSource   ImageRef
	IsEditing       bool
	IsPickerOpen    bool
}

// Phase derives the session phase from the state.
func (st SessionState) Phase() Phase {
	switch {
	case st.IsEditing && st.IsPickerOpen:
		return PhasePickerOpen
	case st.IsEditing:
		return PhaseEditing
	case !st.BackgroundImage.IsZero():
		return PhaseImageChosen
	default:
		return PhaseNoImage
	}
}

// Snapshot is a copy of the session taken for projection.
type Snapshot struct {
	State      SessionState
	Transform  StickerTransform
	HasSticker bool
}

// Session owns the editing state and the transform of the single placed
// sticker. It is not safe for concurrent use; all calls come from the game
// loop.
type Session struct {
	state   SessionState
	sticker *StickerTransform
	base    float64
}

// NewSession creates a session in PhaseNoImage. base is the sticker base size
// in pixels; non-positive values use DefaultStickerSize.
func NewSession(base float64) *Session {
	if base <= 0 {
		base = DefaultStickerSize
	}
	return &Session{base: base}
}

// State returns a copy of the current state.
func (s *Session) State() SessionState {
	return s.state
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.state.Phase()
}

// Transform returns a copy of the sticker transform and whether a sticker is
// placed. Without a sticker it returns the initial transform {B, 0, 0}.
func (s *Session) Transform() (StickerTransform, bool) {
	if s.sticker == nil {
		return NewStickerTransform(s.base), false
	}
	return *s.sticker, true
}

// Snapshot copies state and transform together.
func (s *Session) Snapshot() Snapshot {
	tr, ok := s.Transform()
	return Snapshot{State: s.state, Transform: tr, HasSticker: ok}
}

// StickerBase returns the sticker base size in pixels.
func (s *Session) StickerBase() float64 {
	return s.base
}

// ChooseImage sets the background and moves to PhaseImageChosen. Allowed
// before the image is confirmed; choosing again replaces the pending image.
func (s *Session) ChooseImage(ref ImageRef) error {
	if ref.IsZero() {
		return ErrInvalidImage
	}
	switch p := s.Phase(); p {
	case PhaseNoImage, PhaseImageChosen:
		s.state.BackgroundImage = ref
		return nil
	default:
		return transitionError("choose image", p)
	}
}

// ConfirmUse moves from PhaseImageChosen to PhaseEditing.
func (s *Session) ConfirmUse() error {
	if p := s.Phase(); p != PhaseImageChosen {
		return transitionError("confirm use", p)
	}
	s.state.IsEditing = true
	return nil
}

// OpenPicker opens the emoji picker. Opening an open picker is a no-op.
func (s *Session) OpenPicker() error {
	if !s.state.IsEditing {
		return transitionError("open picker", s.Phase())
	}
	s.state.IsPickerOpen = true
	return nil
}

// ClosePicker closes the emoji picker. Closing a closed picker is a no-op.
func (s *Session) ClosePicker() error {
	if !s.state.IsEditing {
		return transitionError("close picker", s.Phase())
	}
	s.state.IsPickerOpen = false
	return nil
}

// PickEmoji places ref as the sticker, closes the picker and starts a fresh
// transform, replacing any previous sticker.
func (s *Session) PickEmoji(ref ImageRef) error {
	if ref.IsZero() {
		return ErrInvalidImage
	}
	if !s.state.IsEditing {
		return transitionError("pick emoji", s.Phase())
	}
	s.state.StickerSource = ref
	s.state.IsPickerOpen = false
	tr := NewStickerTransform(s.base)
	s.sticker = &tr
	return nil
}

// DoubleTap toggles the sticker between base and double size.
func (s *Session) DoubleTap() error {
	if s.sticker == nil {
		return ErrNoSticker
	}
	s.sticker.DoubleTap()
	return nil
}

// Drag moves the sticker by (dx, dy).
func (s *Session) Drag(dx, dy float64) error {
	if s.sticker == nil {
		return ErrNoSticker
	}
	s.sticker.DragDelta(dx, dy)
	return nil
}

// Reset returns to PhaseNoImage from any phase, clearing the background, the
// sticker and its transform.
func (s *Session) Reset() {
	s.state = SessionState{}
	s.sticker = nil
}
