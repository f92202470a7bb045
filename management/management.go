// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package management talks to the remote OSGi framework which installs
// and uninstalls bundles.
package management

import "context"

// Bundle states as reported by the OSGi BundleStateMBean.
const (
	StateInstalled   = "INSTALLED"
	StateResolved    = "RESOLVED"
	StateStarting    = "STARTING"
	StateActive      = "ACTIVE"
	StateStopping    = "STOPPING"
	StateUninstalled = "UNINSTALLED"
	StateUnknown     = "UNKNOWN"
)

// Facade is the set of remote bundle management operations a deployer
// depends on.
type Facade interface {
	// InstallBundleFromURL asks the framework to fetch url and install it
	// under the given location. The new bundle id is returned.
	InstallBundleFromURL(ctx context.Context, location, url string) (int64, error)

	SymbolicName(ctx context.Context, id int64) (string, error)
	Version(ctx context.Context, id int64) (string, error)

	// State returns one of the State constants.
	State(ctx context.Context, id int64) (string, error)

	Uninstall(ctx context.Context, id int64) error
}
