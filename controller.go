package sticker

import (
	"context"
	"errors"
	"image"

	"github.com/sirupsen/logrus"
)

// User-facing notices.
const (
	noticeNoImageSelected  = "You did not select any image."
	noticePickFailed       = "Could not open that image."
	noticePermissionDenied = "Permission to save photos was denied."
	noticeExportFailed     = "Could not save the image."
	noticeSaved            = "Saved!"
)

// DefaultExportSize matches the on-screen canvas of the default layout.
var DefaultExportSize = image.Pt(320, 440)

// ActionKind identifies a user action routed through Controller.Dispatch.
type ActionKind uint8

const (
	ActionChoosePhoto ActionKind = iota // ask the picker for a background
	ActionUsePhoto                      // confirm the background (placeholder if none)
	ActionOpenPicker                    // show the emoji picker
	ActionClosePicker                   // hide the emoji picker
	ActionPickEmoji                     // place Action.Image as the sticker
	ActionDoubleTap                     // toggle sticker size
	ActionDrag                          // move sticker by Action.DX, Action.DY
	ActionReset                         // start over
	ActionSave                          // export the canvas
)

var actionNames = [...]string{
	ActionChoosePhoto: "choose_photo",
	ActionUsePhoto:    "use_photo",
	ActionOpenPicker:  "open_picker",
	ActionClosePicker: "close_picker",
	ActionPickEmoji:   "pick_emoji",
	ActionDoubleTap:   "double_tap",
	ActionDrag:        "drag",
	ActionReset:       "reset",
	ActionSave:        "save",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return "unknown"
}

// Action is a single user request.
type Action struct {
	Kind   ActionKind
	Image  ImageRef
	DX, DY float64
}

// ControllerOptions wires a Controller to its collaborators. Nil capabilities
// make the corresponding actions fail with a logged error.
type ControllerOptions struct {
	Picker      ImagePicker
	Permissions PermissionRequester
	Library     MediaLibrary
	Renderer    ViewRenderer
	Notifier    Notifier
	Sink        EventSink
	Logger      *logrus.Entry
	StickerSize float64
	ExportSize  image.Point
}

type pickResult struct {
	gen uint64
	ref ImageRef
	err error
}

// Controller is the single owner of a Session. It turns actions and
// capability results into session transitions, and tells listeners after
// every change.
type Controller struct {
	session    *Session
	picker     ImagePicker
	perms      PermissionRequester
	library    MediaLibrary
	renderer   ViewRenderer
	notifier   Notifier
	sink       EventSink
	log        *logrus.Entry
	exportSize image.Point

	results   chan pickResult
	pending   bool
	gen       uint64 // identifies the in-flight request; stale results are dropped
	cancel    context.CancelFunc
	listeners []func(Snapshot)
}

// NewController creates a controller with a fresh session.
func NewController(opts ControllerOptions) *Controller {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	size := opts.ExportSize
	if size.X <= 0 || size.Y <= 0 {
		size = DefaultExportSize
	}
	return &Controller{
		session:    NewSession(opts.StickerSize),
		picker:     opts.Picker,
		perms:      opts.Permissions,
		library:    opts.Library,
		renderer:   opts.Renderer,
		notifier:   opts.Notifier,
		sink:       opts.Sink,
		log:        log.WithField("component", "controller"),
		exportSize: size,
		results:    make(chan pickResult, 4),
	}
}

// Session returns the controlled session. Callers must not mutate it
// directly; use Dispatch.
func (c *Controller) Session() *Session {
	return c.session
}

// SetNotifier replaces the notifier. Used when the view that shows notices
// is built after the controller.
func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

// SetRenderer replaces the view renderer.
func (c *Controller) SetRenderer(r ViewRenderer) {
	c.renderer = r
}

// SetEventSink replaces the event sink.
func (c *Controller) SetEventSink(sink EventSink) {
	c.sink = sink
}

// OnChange registers fn to be called with a fresh snapshot after every
// successful transition.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.listeners = append(c.listeners, fn)
}

// Pending reports whether an image request is in flight.
func (c *Controller) Pending() bool {
	return c.pending
}

// Dispatch applies a user action. Transition errors are returned and logged;
// the session is unchanged when an error is returned.
func (c *Controller) Dispatch(a Action) error {
	var err error
	var kind SessionEventKind
	s := c.session

	switch a.Kind {
	case ActionChoosePhoto:
		return c.RequestImage(context.Background())
	case ActionSave:
		_, err = c.Export(context.Background())
		return err
	case ActionUsePhoto:
		// Confirming wins over a request still in flight.
		if p := s.Phase(); p == PhaseNoImage || p == PhaseImageChosen {
			c.cancelPending()
		}
		if s.Phase() == PhaseNoImage {
			if err = s.ChooseImage(PlaceholderImage); err != nil {
				break
			}
			c.emit(SessionImageChosen, SessionEvent{Image: PlaceholderImage})
		}
		err = s.ConfirmUse()
		kind = SessionImageConfirmed
	case ActionOpenPicker:
		err = s.OpenPicker()
		kind = SessionPickerOpened
	case ActionClosePicker:
		err = s.ClosePicker()
		kind = SessionPickerClosed
	case ActionPickEmoji:
		err = s.PickEmoji(a.Image)
		kind = SessionEmojiPicked
	case ActionDoubleTap:
		err = s.DoubleTap()
		kind = SessionStickerResized
	case ActionDrag:
		err = s.Drag(a.DX, a.DY)
		kind = SessionStickerMoved
	case ActionReset:
		c.cancelPending()
		s.Reset()
		kind = SessionReset
	default:
		err = transitionError("unknown action", s.Phase())
	}

	if err != nil {
		c.log.WithError(err).WithField("action", a.Kind).Debug("action rejected")
		return err
	}

	// Drag events arrive every frame; keep them out of info logs.
	entry := c.log.WithFields(logrus.Fields{"event": kind, "phase": s.Phase()})
	if kind == SessionStickerMoved {
		entry.Trace("session updated")
	} else {
		entry.Info("session updated")
	}
	c.emit(kind, SessionEvent{Image: a.Image})
	c.changed()
	return nil
}

// PickImage asks the picker for an image and applies the result on the
// calling goroutine. Cancellation leaves the session unchanged and shows a
// notice.
func (c *Controller) PickImage(ctx context.Context) error {
	if c.picker == nil {
		return c.applyPick(pickResult{err: errors.New("sticker: no image picker configured")})
	}
	ref, err := c.picker.SelectImage(ctx)
	return c.applyPick(pickResult{ref: ref, err: err})
}

// RequestImage starts an asynchronous image request. The result is applied
// by a later Poll on the game loop. Returns ErrPickPending if a request is
// already in flight.
func (c *Controller) RequestImage(ctx context.Context) error {
	if c.pending {
		return ErrPickPending
	}
	if p := c.session.Phase(); p != PhaseNoImage && p != PhaseImageChosen {
		return transitionError("choose image", p)
	}
	if c.picker == nil {
		return c.applyPick(pickResult{err: errors.New("sticker: no image picker configured")})
	}

	ctx, cancel := context.WithCancel(ctx)
	c.gen++
	c.pending = true
	c.cancel = cancel
	gen, picker, results := c.gen, c.picker, c.results
	go func() {
		ref, err := picker.SelectImage(ctx)
		results <- pickResult{gen: gen, ref: ref, err: err}
	}()
	c.log.Debug("image requested")
	return nil
}

// Poll applies a completed image request, if any. Call once per frame.
func (c *Controller) Poll() {
	for {
		select {
		case res := <-c.results:
			if !c.pending || res.gen != c.gen {
				continue
			}
			c.pending = false
			c.cancel()
			c.cancel = nil
			_ = c.applyPick(res)
		default:
			return
		}
	}
}

// cancelPending abandons an in-flight image request. Its result, when it
// arrives, is dropped by Poll.
func (c *Controller) cancelPending() {
	if !c.pending {
		return
	}
	c.cancel()
	c.cancel = nil
	c.pending = false
	c.gen++
}

func (c *Controller) applyPick(res pickResult) error {
	switch {
	case errors.Is(res.err, ErrCancelled), errors.Is(res.err, context.Canceled):
		c.log.Info("image selection cancelled")
		c.notify(noticeNoImageSelected)
		c.emit(SessionPickCancelled, SessionEvent{Err: res.err})
		return res.err
	case res.err != nil:
		c.log.WithError(res.err).Warn("image selection failed")
		c.notify(noticePickFailed)
		c.emit(SessionPickFailed, SessionEvent{Err: res.err})
		return res.err
	}

	if err := c.session.ChooseImage(res.ref); err != nil {
		c.log.WithError(err).WithField("image", res.ref).Warn("picked image rejected")
		c.notify(noticePickFailed)
		c.emit(SessionPickFailed, SessionEvent{Err: err})
		return err
	}
	c.log.WithField("image", res.ref).Info("image chosen")
	c.emit(SessionImageChosen, SessionEvent{Image: res.ref})
	c.changed()
	return nil
}

// Export renders the canvas and saves it to the media library. Session state
// is never changed by an export.
func (c *Controller) Export(ctx context.Context) (string, error) {
	path, err := c.export(ctx)
	if err != nil {
		log := c.log.WithError(err)
		if errors.Is(err, ErrPermissionDenied) {
			log.Warn("export blocked")
			c.notify(noticePermissionDenied)
		} else {
			log.Error("export failed")
			c.notify(noticeExportFailed)
		}
		c.emit(SessionExportFailed, SessionEvent{Err: err})
		return "", err
	}
	c.log.WithField("path", path).Info("image exported")
	c.notify(noticeSaved)
	c.emit(SessionExported, SessionEvent{Path: path})
	return path, nil
}

func (c *Controller) export(ctx context.Context) (string, error) {
	if c.perms == nil || c.library == nil || c.renderer == nil {
		return "", &IOError{Err: errors.New("export is not configured")}
	}
	perm, err := c.perms.RequestStoragePermission(ctx)
	if err != nil {
		return "", &IOError{Err: err}
	}
	if perm != PermissionGranted {
		return "", ErrPermissionDenied
	}
	data, err := c.renderer.RenderViewToImage(ctx, c.exportSize)
	if err != nil {
		var re *RenderError
		if !errors.As(err, &re) {
			err = &RenderError{Err: err}
		}
		return "", err
	}
	path, err := c.library.SaveImage(ctx, data)
	if err != nil {
		var ioe *IOError
		if !errors.As(err, &ioe) {
			err = &IOError{Err: err}
		}
		return "", err
	}
	return path, nil
}

func (c *Controller) notify(msg string) {
	if c.notifier != nil {
		c.notifier.Notify(msg)
	}
}

func (c *Controller) emit(kind SessionEventKind, ev SessionEvent) {
	if c.sink == nil {
		return
	}
	ev.Kind = kind
	ev.Phase = c.session.Phase()
	ev.Transform, _ = c.session.Transform()
	c.sink.EmitEvent(ev)
}

func (c *Controller) changed() {
	snap := c.session.Snapshot()
	for _, fn := range c.listeners {
		fn(snap)
	}
}
