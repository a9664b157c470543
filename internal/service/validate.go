package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/authz"
	"github.com/sakif/forum/internal/collate"
	"github.com/sakif/forum/internal/config"
)

// VALIDATION ORDER:
// Every string goes through the same three steps and the first failure wins:
//   1. empty where a value is required      → INVALID_PARAMETERS
//   2. length in characters, not bytes      → VALUE_TOO_LONG / VALUE_TOO_SHORT
//   3. shape (surrounding spaces, characters) → INVALID_PARAMETERS

// checkName validates a display name: required, bounded, trimmed, no control
// characters.
func checkName(field, value string, b config.Bounds) error {
	if value == "" {
		return apperror.ValidationFailed(field, field+" is required")
	}
	if err := checkLength(field, value, b); err != nil {
		return err
	}
	if !collate.Trimmed(value) {
		return apperror.ValidationFailed(field, field+" must not start or end with whitespace")
	}
	if collate.HasControl(value) {
		return apperror.ValidationFailed(field, field+" must not contain control characters")
	}
	return nil
}

// userNamePattern allows letters and digits with one run of space, underscore
// or dash between them.
var userNamePattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}]+[ _-]*[\p{L}\p{M}\p{N}]+$`)

func checkUserName(field, value string, b config.Bounds) error {
	if err := checkName(field, value, b); err != nil {
		return err
	}
	if !userNamePattern.MatchString(value) {
		return apperror.ValidationFailed(field, field+" may only contain letters, digits and one run of space, _ or -")
	}
	return nil
}

// checkText validates free text. Line breaks and tabs are fine, other control
// characters are not. Empty text is only refused when b.Min > 0.
func checkText(field, value string, b config.Bounds) error {
	if value == "" {
		if b.Min > 0 {
			return apperror.ValidationFailed(field, field+" is required")
		}
		return nil
	}
	if err := checkLength(field, value, b); err != nil {
		return err
	}
	if strings.IndexFunc(value, isForbiddenControl) >= 0 {
		return apperror.ValidationFailed(field, field+" must not contain control characters")
	}
	return nil
}

// checkContent validates posted text: messages, comments and change reasons.
// On top of checkText it refuses surrounding whitespace.
func checkContent(field, value string, b config.Bounds) error {
	if err := checkText(field, value, b); err != nil {
		return err
	}
	if value != "" && !collate.Trimmed(value) {
		return apperror.ValidationFailed(field, field+" must not start or end with whitespace")
	}
	return nil
}

// checkAttachmentName is checkName for file names, which must not contain
// path separators.
func checkAttachmentName(field, value string, b config.Bounds) error {
	if err := checkName(field, value, b); err != nil {
		return err
	}
	if strings.ContainsAny(value, `/\`) {
		return apperror.ValidationFailed(field, field+" must not contain path separators")
	}
	return nil
}

func isForbiddenControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t'
}

func checkLength(field, value string, b config.Bounds) error {
	n := collate.Length(value)
	if n > b.Max {
		return apperror.TooLong(field, b.Max)
	}
	if n < b.Min {
		return apperror.TooShort(field, b.Min)
	}
	return nil
}

// allowed turns a negative decision into NOT_ALLOWED.
func allowed(d authz.Decision, action string) error {
	if d.Allowed {
		return nil
	}
	return apperror.Forbidden(fmt.Sprintf("not allowed to %s", action))
}
