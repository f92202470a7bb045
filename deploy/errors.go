// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package deploy

import "fmt"

// MalformedArtifactError is returned when an artifact is not a readable
// bundle archive or its manifest lacks required headers.
type MalformedArtifactError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e *MalformedArtifactError) Error() string {
	return fmt.Sprintf("deploy: malformed artifact: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *MalformedArtifactError) Unwrap() error {
	return e.Cause
}

// MissingEntryError is the Cause of a [MalformedArtifactError] when
// the archive has no entry with the given name.
type MissingEntryError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e MissingEntryError) Error() string {
	return "archive has no entry: " + e.Name
}

// MissingHeaderError is the Cause of a [MalformedArtifactError] when a
// required manifest header is absent.
type MissingHeaderError struct {
	Header string
}

// Error implements the [builtin.error] interface.
func (e MissingHeaderError) Error() string {
	return "manifest is missing header: " + e.Header
}

// DeploymentError reports a failed deploy, install or undeploy of a single
// artifact. Bind failures of the bridge and remote management failures are
// both surfaced this way.
type DeploymentError struct {
	Op       string
	Artifact string
	Cause    error
}

// Error implements the [builtin.error] interface.
func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deploy: cannot %s %s: %s", e.Op, e.Artifact, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *DeploymentError) Unwrap() error {
	return e.Cause
}
