package sticker

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned by an ImagePicker when the user declines to pick.
	ErrCancelled = errors.New("sticker: selection cancelled")

	// ErrPermissionDenied is returned by Export when storage permission is refused.
	ErrPermissionDenied = errors.New("sticker: storage permission denied")

	// ErrInvalidTransition is returned when a session operation is not
	// allowed in the current phase. The session is left unchanged.
	ErrInvalidTransition = errors.New("sticker: invalid transition")

	// ErrNoSticker is returned by gesture operations when no sticker is placed.
	ErrNoSticker = errors.New("sticker: no sticker placed")

	// ErrInvalidImage is returned for a zero or unknown ImageRef.
	ErrInvalidImage = errors.New("sticker: invalid image reference")

	// ErrPickPending is returned when an image request is already in flight.
	ErrPickPending = errors.New("sticker: image selection already pending")
)

// RenderError reports a failed view snapshot.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("sticker: render view: %v", e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

// IOError reports a failed media library write.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sticker: save image: %v", e.Err)
	}
	return fmt.Sprintf("sticker: save image %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// transitionError wraps ErrInvalidTransition with the operation and phase.
func transitionError(op string, from Phase) error {
	return fmt.Errorf("%s from %s: %w", op, from, ErrInvalidTransition)
}
