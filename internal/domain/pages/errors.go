package pages

import (
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrNotFound indicates the requested page, section or content does not exist.
	ErrNotFound = eris.New("not found")
	// ErrValidation indicates a malformed request or an update that changed nothing.
	ErrValidation = eris.New("validation failed")
	// ErrStorageUnavailable indicates the persistence layer could not be reached.
	ErrStorageUnavailable = eris.New("storage unavailable")
)

// Unavailable wraps a transport-level storage failure.
func Unavailable(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return eris.Wrapf(ErrStorageUnavailable, format+": %v", append(args, err)...)
}

func notFoundf(format string, args ...any) error {
	return eris.Wrapf(ErrNotFound, format, args...)
}

func invalidf(format string, args ...any) error {
	return eris.Wrapf(ErrValidation, format, args...)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return eris.Is(err, ErrNotFound) }

// IsValidation reports whether err is, or wraps, ErrValidation.
func IsValidation(err error) bool { return eris.Is(err, ErrValidation) }

// IsUnavailable reports whether err is, or wraps, ErrStorageUnavailable.
func IsUnavailable(err error) bool { return eris.Is(err, ErrStorageUnavailable) }

// Message returns the description of err without the sentinel suffix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrNotFound, ErrValidation, ErrStorageUnavailable} {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return msg
}
