// Package errorspkg holds errors shared by every layer.
package errorspkg

import "errors"

// ErrInternal replaces any error that must not reach the client.
// The original error is logged where it is replaced.
var ErrInternal = errors.New("internal error")
