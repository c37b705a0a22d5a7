// SPDX-License-Identifier: MIT

package httpx

import (
	"context"
	"errors"
	"net"
)

// IsTimeout reports whether err came from a deadline: a transport timeout
// (dial, TLS, response header) or an expired context.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
