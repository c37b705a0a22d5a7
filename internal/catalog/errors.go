// SPDX-License-Identifier: MIT

package catalog

import "errors"

var (
	// ErrInvalidRegistration is returned when a registration lacks id or title
	// or carries out-of-range values.
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrPersist is returned when the index file could not be written.
	// The in-memory catalog is left unchanged.
	ErrPersist = errors.New("persist catalog")
)
