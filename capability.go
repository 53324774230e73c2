package sticker

import (
	"context"
	"image"
)

// ImagePicker asks the platform for a background image. Implementations
// return ErrCancelled when the user declines.
type ImagePicker interface {
	SelectImage(ctx context.Context) (ImageRef, error)
}

// Permission is the outcome of a permission request.
type Permission uint8

const (
	PermissionDenied Permission = iota
	PermissionGranted
)

func (p Permission) String() string {
	if p == PermissionGranted {
		return "granted"
	}
	return "denied"
}

// PermissionRequester asks for permission to write to the media library.
type PermissionRequester interface {
	RequestStoragePermission(ctx context.Context) (Permission, error)
}

// MediaLibrary stores exported images. SaveImage returns where the image
// ended up. Failures are reported as *IOError.
type MediaLibrary interface {
	SaveImage(ctx context.Context, png []byte) (string, error)
}

// ViewRenderer captures the editable canvas as an encoded PNG of the given
// size. Failures are reported as *RenderError.
type ViewRenderer interface {
	RenderViewToImage(ctx context.Context, size image.Point) ([]byte, error)
}

// Notifier shows a one-shot message to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f(msg).
func (f NotifierFunc) Notify(msg string) { f(msg) }

// SessionEventKind identifies what happened to the session.
type SessionEventKind uint8

const (
	SessionImageChosen SessionEventKind = iota
	SessionImageConfirmed
	SessionPickerOpened
	SessionPickerClosed
	SessionEmojiPicked
	SessionStickerResized
	SessionStickerMoved
	SessionReset
	SessionPickCancelled
	SessionPickFailed
	SessionExported
	SessionExportFailed
)

var sessionEventNames = [...]string{
	SessionImageChosen:    "image_chosen",
	SessionImageConfirmed: "image_confirmed",
	SessionPickerOpened:   "picker_opened",
	SessionPickerClosed:   "picker_closed",
	SessionEmojiPicked:    "emoji_picked",
	SessionStickerResized: "sticker_resized",
	SessionStickerMoved:   "sticker_moved",
	SessionReset:          "reset",
	SessionPickCancelled:  "pick_cancelled",
	SessionPickFailed:     "pick_failed",
	SessionExported:       "exported",
	SessionExportFailed:   "export_failed",
}

func (k SessionEventKind) String() string {
	if int(k) < len(sessionEventNames) {
		return sessionEventNames[k]
	}
	return "unknown"
}

// SessionEvent describes one completed controller operation.
type SessionEvent struct {
	Kind      SessionEventKind
	Phase     Phase // phase after the operation
	Image     ImageRef
	Transform StickerTransform
	Path      string // export destination, for SessionExported
	Err       error  // cause, for the failure kinds
}

// EventSink receives session events. The ecs package bridges it to Donburi.
type EventSink interface {
	EmitEvent(event SessionEvent)
}
