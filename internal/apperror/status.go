package apperror

import (
	"errors"
	"fmt"
)

// Status is the result code every forum operation reports.
type Status uint8

const (
	StatusOK Status = iota
	StatusNotFound
	StatusAlreadyExists
	StatusNoEffect
	StatusInvalidParameters
	StatusValueTooShort
	StatusValueTooLong
	StatusNotAllowed
	StatusQuotaExceeded
	StatusCircularReferenceNotAllowed
	StatusNotUpdatedSinceLastCheck

	// StatusUnexpected marks errors outside the taxonomy. They are bugs or
	// infrastructure failures, never business outcomes.
	StatusUnexpected
)

var statusNames = [...]string{
	StatusOK:                          "OK",
	StatusNotFound:                    "NOT_FOUND",
	StatusAlreadyExists:               "ALREADY_EXISTS",
	StatusNoEffect:                    "NO_EFFECT",
	StatusInvalidParameters:           "INVALID_PARAMETERS",
	StatusValueTooShort:               "VALUE_TOO_SHORT",
	StatusValueTooLong:                "VALUE_TOO_LONG",
	StatusNotAllowed:                  "NOT_ALLOWED",
	StatusQuotaExceeded:               "QUOTA_EXCEEDED",
	StatusCircularReferenceNotAllowed: "CIRCULAR_REFERENCE_NOT_ALLOWED",
	StatusNotUpdatedSinceLastCheck:    "NOT_UPDATED_SINCE_LAST_CHECK",
	StatusUnexpected:                  "UNEXPECTED_ERROR",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("STATUS(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names MarshalText produces.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

var sentinels = []struct {
	err    error
	status Status
}{
	{ErrNotFound, StatusNotFound},
	{ErrAlreadyExists, StatusAlreadyExists},
	{ErrNoEffect, StatusNoEffect},
	{ErrInvalidParameters, StatusInvalidParameters},
	{ErrValueTooShort, StatusValueTooShort},
	{ErrValueTooLong, StatusValueTooLong},
	{ErrNotAllowed, StatusNotAllowed},
	{ErrQuotaExceeded, StatusQuotaExceeded},
	{ErrCircularReference, StatusCircularReferenceNotAllowed},
	{ErrNotUpdatedSinceLastCheck, StatusNotUpdatedSinceLastCheck},
}

// StatusOf maps err onto the status enum. A nil error is StatusOK.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return StatusUnexpected
}
