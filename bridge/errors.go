// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import "fmt"

// BindError occurs when a Server fails to acquire its listening socket.
type BindError struct {
	Addr  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("bridge: failed to bind %s: %s", e.Addr, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *BindError) Unwrap() error {
	return e.Cause
}

// URLConstructionError is the panic value used by [Server.Register] when
// the advertised host can not be turned into a valid URL. It indicates a
// misconfigured Server rather than a failure of an individual call.
type URLConstructionError struct {
	Host  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e URLConstructionError) Error() string {
	return fmt.Sprintf("bridge: HTTP url could not be parsed for host %q: %s", e.Host, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e URLConstructionError) Unwrap() error {
	return e.Cause
}
