package links

import "errors"

var (
	ErrNotFound         = errors.New("short url not found")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrGone             = errors.New("short url gone")
	ErrConflict         = errors.New("short code conflict")
)

// ValidationError carries a caller-facing message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// GoneError explains why a link can no longer be followed and matches ErrGone.
type GoneError struct {
	Reason string
}

func (e *GoneError) Error() string {
	return e.Reason
}

func (e *GoneError) Is(target error) bool {
	return target == ErrGone
}
