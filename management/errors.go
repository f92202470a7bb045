// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package management

import "fmt"

// RemoteError is returned when the agent reports a failed MBean call or
// answers with a non-200 HTTP status.
type RemoteError struct {
	Status    int
	ErrorType string
	Message   string
}

// Error implements the [builtin.error] interface.
func (e *RemoteError) Error() string {
	if e.ErrorType == "" {
		return fmt.Sprintf("management: remote call failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("management: remote call failed with status %d: %s: %s", e.Status, e.ErrorType, e.Message)
}

// CallError wraps any failure of a single MBean operation.
type CallError struct {
	MBean     string
	Operation string
	Cause     error
}

// Error implements the [builtin.error] interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("management: %s on %s: %s", e.Operation, e.MBean, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *CallError) Unwrap() error {
	return e.Cause
}
