// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package bundlebridge hands local OSGi bundle archives to remote
// frameworks which can only install from an HTTP URL.
//
// The heavy lifting lives in sub-packages:
//
//   - bridge: an ephemeral, token addressed HTTP/1.0 server for local byte streams
//   - deploy: installs bundles through a bridge and tears it down afterwards
//   - management: the remote framework's management API, spoken over Jolokia
//
// This package ties configuration and application building together:
//
//	err := bundlebridge.Run(
//	    ctx,
//	    bundlebridge.AppBuilderFunc[Config](build),
//	    config.FromYaml(bytes.NewReader(defaults)),
//	)
package bundlebridge
