// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"github.com/jmgilman/go/errors"
)

// validationError marks bad input. The steps treat it as a hard failure.
func validationError(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeInvalidInput, format, args...)
}

// reserveError marks a save that lost the race for its key. The steps treat
// it as informational.
func reserveError(key string) error {
	err := errors.Newf(errors.CodeAlreadyExists,
		"Unable to reserve cache with key %s, another job may be creating this cache.", key)
	return errors.WithContext(err, "key", key)
}

// IsValidationError reports whether err came from input validation.
func IsValidationError(err error) bool {
	return errors.GetCode(err) == errors.CodeInvalidInput
}

// IsReserveError reports whether err means the key is already taken.
func IsReserveError(err error) bool {
	return errors.GetCode(err) == errors.CodeAlreadyExists
}

// Message returns the human-readable part of err, without the code prefix
// the errors package adds.
func Message(err error) string {
	if pe, ok := err.(errors.PlatformError); ok {
		if cause := pe.Unwrap(); cause != nil {
			return pe.Message() + ": " + cause.Error()
		}
		return pe.Message()
	}
	return err.Error()
}
