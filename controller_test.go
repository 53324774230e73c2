package sticker

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// --- Fakes ---

type fakePicker struct {
	ref   ImageRef
	err   error
	calls int
}

func (p *fakePicker) SelectImage(context.Context) (ImageRef, error) {
	p.calls++
	return p.ref, p.err
}

// gatedPicker blocks until release is closed or ctx is done.
type gatedPicker struct {
	ref      ImageRef
	release  chan struct{}
	returned chan struct{}
}

func newGatedPicker(ref ImageRef) *gatedPicker {
	return &gatedPicker{ref: ref, release: make(chan struct{}), returned: make(chan struct{})}
}

func (p *gatedPicker) SelectImage(ctx context.Context) (ImageRef, error) {
	defer close(p.returned)
	select {
	case <-p.release:
		return p.ref, nil
	case <-ctx.Done():
		return ImageRef{}, ctx.Err()
	}
}

type fakePerms struct {
	perm Permission
	err  error
}

func (p fakePerms) RequestStoragePermission(context.Context) (Permission, error) {
	return p.perm, p.err
}

type fakeLibrary struct {
	saved [][]byte
	err   error
}

func (l *fakeLibrary) SaveImage(_ context.Context, png []byte) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	l.saved = append(l.saved, png)
	return "/library/sticker.png", nil
}

type fakeRenderer struct {
	size  image.Point
	err   error
	calls int
}

func (r *fakeRenderer) RenderViewToImage(_ context.Context, size image.Point) ([]byte, error) {
	r.calls++
	r.size = size
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png"), nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (s *recordingSink) EmitEvent(e SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) kinds() []SessionEventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionEventKind, len(s.events))
	for i, e := range s.events {
		out[i] = e.Kind
	}
	return out
}

type harness struct {
	ctrl     *Controller
	picker   *fakePicker
	library  *fakeLibrary
	renderer *fakeRenderer
	sink     *recordingSink
	notices  []string
	changes  int
	hook     *logtest.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	h := &harness{
		picker:   &fakePicker{ref: testPhoto},
		library:  &fakeLibrary{},
		renderer: &fakeRenderer{},
		sink:     &recordingSink{},
		hook:     hook,
	}
	h.ctrl = NewController(ControllerOptions{
		Picker:      h.picker,
		Permissions: fakePerms{perm: PermissionGranted},
		Library:     h.library,
		Renderer:    h.renderer,
		Notifier:    NotifierFunc(func(msg string) { h.notices = append(h.notices, msg) }),
		Sink:        h.sink,
		Logger:      logrus.NewEntry(logger),
	})
	h.ctrl.OnChange(func(Snapshot) { h.changes++ })
	return h
}

func (h *harness) dispatch(t *testing.T, actions ...Action) {
	t.Helper()
	for _, a := range actions {
		if err := h.ctrl.Dispatch(a); err != nil {
			t.Fatalf("Dispatch(%v): %v", a.Kind, err)
		}
	}
}

// editing drives the controller to PhaseEditing with a sticker placed.
func (h *harness) editing(t *testing.T) {
	t.Helper()
	h.dispatch(t,
		Action{Kind: ActionUsePhoto},
		Action{Kind: ActionOpenPicker},
		Action{Kind: ActionPickEmoji, Image: emojiOne},
	)
}

// pollUntil polls the controller until cond holds or a second passes.
func pollUntil(t *testing.T, c *Controller, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		c.Poll()
		time.Sleep(time.Millisecond)
	}
}

// --- Image selection ---

func TestPickImageSuccess(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.PickImage(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := h.ctrl.Session().State().BackgroundImage; got != testPhoto {
		t.Errorf("background = %v, want %v", got, testPhoto)
	}
	if h.changes != 1 {
		t.Errorf("changes = %d, want 1", h.changes)
	}
	if k := h.sink.kinds(); len(k) != 1 || k[0] != SessionImageChosen {
		t.Errorf("events = %v", k)
	}
}

func TestPickImageCancelled(t *testing.T) {
	h := newHarness(t)
	h.picker.err = ErrCancelled

	err := h.ctrl.PickImage(context.Background())
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if h.ctrl.Session().State() != (SessionState{}) {
		t.Error("state should be unchanged")
	}
	if len(h.notices) != 1 || h.notices[0] != "You did not select any image." {
		t.Errorf("notices = %q", h.notices)
	}
	if h.changes != 0 {
		t.Error("listeners should not be told about a cancelled pick")
	}
	if k := h.sink.kinds(); len(k) != 1 || k[0] != SessionPickCancelled {
		t.Errorf("events = %v", k)
	}
}

func TestPickImageFailure(t *testing.T) {
	h := newHarness(t)
	h.picker.err = errors.New("disk on fire")

	if err := h.ctrl.PickImage(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if h.ctrl.Session().Phase() != PhaseNoImage {
		t.Error("state should be unchanged")
	}
	if len(h.notices) != 1 || h.notices[0] != noticePickFailed {
		t.Errorf("notices = %q", h.notices)
	}
	if entry := h.hook.LastEntry(); entry == nil || entry.Level != logrus.WarnLevel {
		t.Errorf("last log entry = %+v, want a warning", entry)
	}
}

func TestPickImageWithoutPicker(t *testing.T) {
	c := NewController(ControllerOptions{})
	if err := c.PickImage(context.Background()); err == nil {
		t.Error("expected error without a picker")
	}
}

func TestRequestImageAsync(t *testing.T) {
	h := newHarness(t)
	gp := newGatedPicker(testPhoto)
	h.ctrl.picker = gp

	if err := h.ctrl.Dispatch(Action{Kind: ActionChoosePhoto}); err != nil {
		t.Fatal(err)
	}
	if !h.ctrl.Pending() {
		t.Fatal("request should be pending")
	}
	if err := h.ctrl.RequestImage(context.Background()); !errors.Is(err, ErrPickPending) {
		t.Errorf("second request err = %v, want ErrPickPending", err)
	}

	h.ctrl.Poll()
	if h.ctrl.Session().Phase() != PhaseNoImage {
		t.Fatal("nothing should apply before the picker returns")
	}

	close(gp.release)
	pollUntil(t, h.ctrl, func() bool { return !h.ctrl.Pending() })

	if got := h.ctrl.Session().State().BackgroundImage; got != testPhoto {
		t.Errorf("background = %v, want %v", got, testPhoto)
	}
	if h.changes != 1 {
		t.Errorf("changes = %d, want 1", h.changes)
	}
}

func TestResetAbandonsPendingRequest(t *testing.T) {
	h := newHarness(t)
	gp := newGatedPicker(testPhoto)
	h.ctrl.picker = gp

	if err := h.ctrl.RequestImage(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.dispatch(t, Action{Kind: ActionReset})
	if h.ctrl.Pending() {
		t.Fatal("reset should clear the pending request")
	}

	<-gp.returned // the picker saw the cancellation
	for i := 0; i < 20; i++ {
		h.ctrl.Poll()
		time.Sleep(time.Millisecond)
	}
	if h.ctrl.Session().Phase() != PhaseNoImage {
		t.Error("abandoned result must not apply")
	}
	if len(h.notices) != 0 {
		t.Errorf("abandoned result must not notify, got %q", h.notices)
	}
}

func TestUsePhotoAbandonsPendingRequest(t *testing.T) {
	h := newHarness(t)
	gp := newGatedPicker(testPhoto)
	h.ctrl.picker = gp

	h.dispatch(t, Action{Kind: ActionChoosePhoto}, Action{Kind: ActionUsePhoto})
	if h.ctrl.Pending() {
		t.Fatal("use photo should clear the pending request")
	}

	<-gp.returned
	for i := 0; i < 20; i++ {
		h.ctrl.Poll()
		time.Sleep(time.Millisecond)
	}
	st := h.ctrl.Session().State()
	if st.BackgroundImage != PlaceholderImage || !st.IsEditing {
		t.Errorf("state = %+v, want placeholder while editing", st)
	}
	if len(h.notices) != 0 {
		t.Errorf("abandoned result must not notify, got %q", h.notices)
	}
}

func TestRejectedPickNotifies(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t, Action{Kind: ActionUsePhoto})

	err := h.ctrl.applyPick(pickResult{ref: testPhoto})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if len(h.notices) != 1 || h.notices[0] != noticePickFailed {
		t.Errorf("notices = %q, want [%q]", h.notices, noticePickFailed)
	}
	if got := h.ctrl.Session().State().BackgroundImage; got != PlaceholderImage {
		t.Errorf("background = %v, want placeholder", got)
	}
}

func TestRequestImageRejectedWhileEditing(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t, Action{Kind: ActionUsePhoto})
	err := h.ctrl.Dispatch(Action{Kind: ActionChoosePhoto})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
	if h.picker.calls != 0 || h.ctrl.Pending() {
		t.Error("picker should not be consulted")
	}
}

// --- Dispatch ---

func TestUsePhotoSelectsPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.dispatch(t, Action{Kind: ActionUsePhoto})

	st := h.ctrl.Session().State()
	if st.BackgroundImage != PlaceholderImage || !st.IsEditing {
		t.Errorf("state = %+v", st)
	}
	want := []SessionEventKind{SessionImageChosen, SessionImageConfirmed}
	got := h.sink.kinds()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestUsePhotoKeepsChosenImage(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.PickImage(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.dispatch(t, Action{Kind: ActionUsePhoto})
	if got := h.ctrl.Session().State().BackgroundImage; got != testPhoto {
		t.Errorf("background = %v, want %v", got, testPhoto)
	}
}

func TestDispatchEditingFlow(t *testing.T) {
	h := newHarness(t)
	h.editing(t)
	h.dispatch(t,
		Action{Kind: ActionDoubleTap},
		Action{Kind: ActionDrag, DX: 5, DY: 6},
		Action{Kind: ActionDrag, DX: -1, DY: 1},
	)

	snap := h.ctrl.Session().Snapshot()
	want := StickerTransform{Base: DefaultStickerSize, Scale: 2 * DefaultStickerSize, OffsetX: 4, OffsetY: 7}
	if !snap.HasSticker || snap.Transform != want {
		t.Errorf("snapshot = %+v, want transform %+v", snap, want)
	}
	if snap.State.StickerSource != emojiOne {
		t.Errorf("sticker = %v", snap.State.StickerSource)
	}

	events := h.sink.events
	last := events[len(events)-1]
	if last.Kind != SessionStickerMoved || last.Transform != want {
		t.Errorf("last event = %+v", last)
	}
}

func TestDispatchRejectedLeavesSession(t *testing.T) {
	h := newHarness(t)
	before := h.ctrl.Session().Snapshot()
	for _, a := range []Action{
		{Kind: ActionOpenPicker},
		{Kind: ActionDoubleTap},
		{Kind: ActionDrag, DX: 1},
		{Kind: ActionPickEmoji, Image: emojiOne},
		{Kind: ActionKind(200)},
	} {
		if err := h.ctrl.Dispatch(a); err == nil {
			t.Errorf("Dispatch(%v) should fail in NoImage", a.Kind)
		}
	}
	if h.ctrl.Session().Snapshot() != before {
		t.Error("rejected actions changed the session")
	}
	if h.changes != 0 || len(h.sink.kinds()) != 0 {
		t.Error("rejected actions should not notify or emit")
	}
}

func TestDispatchReset(t *testing.T) {
	h := newHarness(t)
	h.editing(t)
	h.dispatch(t, Action{Kind: ActionReset})

	snap := h.ctrl.Session().Snapshot()
	if snap.State != (SessionState{}) || snap.HasSticker {
		t.Errorf("snapshot after reset = %+v", snap)
	}
}

// --- Export ---

func TestExportSuccess(t *testing.T) {
	h := newHarness(t)
	h.editing(t)
	before := h.ctrl.Session().Snapshot()

	path, err := h.ctrl.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if path != "/library/sticker.png" {
		t.Errorf("path = %q", path)
	}
	if h.renderer.size != DefaultExportSize {
		t.Errorf("render size = %v, want %v", h.renderer.size, DefaultExportSize)
	}
	if len(h.library.saved) != 1 || string(h.library.saved[0]) != "png" {
		t.Errorf("saved = %q", h.library.saved)
	}
	if h.notices[len(h.notices)-1] != "Saved!" {
		t.Errorf("notices = %q", h.notices)
	}
	if h.ctrl.Session().Snapshot() != before {
		t.Error("export must not change the session")
	}
	events := h.sink.events
	if last := events[len(events)-1]; last.Kind != SessionExported || last.Path != path {
		t.Errorf("last event = %+v", last)
	}
}

func TestExportFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(h *harness)
		check  func(t *testing.T, err error)
		notice string
	}{
		{
			name:  "permission denied",
			setup: func(h *harness) { h.ctrl.perms = fakePerms{perm: PermissionDenied} },
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrPermissionDenied) {
					t.Errorf("err = %v, want ErrPermissionDenied", err)
				}
			},
			notice: noticePermissionDenied,
		},
		{
			name:  "render error",
			setup: func(h *harness) { h.renderer.err = errors.New("gpu lost") },
			check: func(t *testing.T, err error) {
				var re *RenderError
				if !errors.As(err, &re) {
					t.Errorf("err = %v, want *RenderError", err)
				}
			},
			notice: noticeExportFailed,
		},
		{
			name:  "io error",
			setup: func(h *harness) { h.library.err = errors.New("disk full") },
			check: func(t *testing.T, err error) {
				var ioe *IOError
				if !errors.As(err, &ioe) {
					t.Errorf("err = %v, want *IOError", err)
				}
			},
			notice: noticeExportFailed,
		},
		{
			name:  "not configured",
			setup: func(h *harness) { h.ctrl.library = nil },
			check: func(t *testing.T, err error) {
				var ioe *IOError
				if !errors.As(err, &ioe) {
					t.Errorf("err = %v, want *IOError", err)
				}
			},
			notice: noticeExportFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.editing(t)
			tt.setup(h)
			before := h.ctrl.Session().Snapshot()

			_, err := h.ctrl.Export(context.Background())
			tt.check(t, err)
			if len(h.notices) != 1 || h.notices[0] != tt.notice {
				t.Errorf("notices = %q, want [%q]", h.notices, tt.notice)
			}
			if h.ctrl.Session().Snapshot() != before {
				t.Error("failed export changed the session")
			}
			if k := h.sink.kinds(); k[len(k)-1] != SessionExportFailed {
				t.Errorf("last event = %v, want export_failed", k[len(k)-1])
			}
		})
	}
}

func TestExportDeniedSkipsRender(t *testing.T) {
	h := newHarness(t)
	h.ctrl.perms = fakePerms{perm: PermissionDenied}
	_ = h.ctrl.Dispatch(Action{Kind: ActionSave})
	if h.renderer.calls != 0 {
		t.Error("renderer should not run without permission")
	}
}

func TestActionKindString(t *testing.T) {
	if ActionDoubleTap.String() != "double_tap" || ActionKind(99).String() != "unknown" {
		t.Error("unexpected action names")
	}
	if SessionExportFailed.String() != "export_failed" || SessionEventKind(99).String() != "unknown" {
		t.Error("unexpected event names")
	}
}
