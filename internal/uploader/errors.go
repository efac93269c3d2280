package uploader

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidFrameDimensions is returned when a frame does not match the
	// configured texture geometry.
	ErrInvalidFrameDimensions = errors.New("invalid frame dimensions")
	// ErrInvalidLUTSize is returned when a LUT buffer does not match the
	// table size the shader samples.
	ErrInvalidLUTSize = errors.New("invalid lut size")
	// ErrUploadFailure is returned when the graphics context rejects a transfer.
	ErrUploadFailure = errors.New("upload failure")
)

// UploadError describes a transfer rejected by the graphics context.
// It matches ErrUploadFailure and unwraps to the context's error.
type UploadError struct {
	Target string // texture being written, e.g. "Y plane" or "lut"
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Target, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUploadFailure }

// Status is the outcome of an uploader call.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidFrameDimensions
	StatusInvalidLUTSize
	StatusUploadFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidFrameDimensions:
		return "invalid frame dimensions"
	case StatusInvalidLUTSize:
		return "invalid lut size"
	case StatusUploadFailure:
		return "upload failure"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// StatusOf maps an error returned by LoadFrame or UpdateLUT to its Status.
// Errors from other sources report StatusUploadFailure.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrInvalidFrameDimensions):
		return StatusInvalidFrameDimensions
	case errors.Is(err, ErrInvalidLUTSize):
		return StatusInvalidLUTSize
	default:
		return StatusUploadFailure
	}
}
