// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package bridge provides an ephemeral HTTP server for handing local byte
// streams to remote processes which can only consume an HTTP URL.
//
// A [Server] binds a single listening socket. Every [Source] registered
// with it is addressed by a random token embedded in the returned URL:
//
//	srv, err := bridge.New(net.IPv4(127, 0, 0, 1), 0)
//	if err != nil {
//	    return err
//	}
//	defer srv.Shutdown()
//
//	u := srv.Register(bridge.Bytes([]byte("hello")))
//	srv.Start()
//
//	// hand u.String() to the remote peer
//
// # Wire Protocol
//
// The server speaks a minimal subset of HTTP/1.0. Only the request line is
// read, ending at the first LF, CR or CRLF, and only "GET /<token>" is
// meaningful. Responses carry no headers
// and the connection is closed once the body has been written, so peers
// must read until EOF.
//
//   - 200 OK: the token is registered, the Source bytes follow verbatim
//   - 404 Not Found: unknown token or malformed request line
//   - 500 Server Error: the Source could not be opened
//
// # Shutdown
//
// [Server.Shutdown] closes the listener and force closes every connection
// still in flight. A connection accepted while Shutdown is running is
// either part of that drain or closed before anything is written to it.
package bridge
