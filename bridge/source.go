// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import (
	"bytes"
	"io"
	"io/fs"
)

// Source is a reopenable origin of bytes. A Server does not open a Source
// until a peer actually requests it, and may open it more than once.
type Source interface {
	Open() (io.ReadCloser, error)
}

// SourceFunc is a functional implementation of the Source interface.
type SourceFunc func() (io.ReadCloser, error)

// Open implements the Source interface.
func (f SourceFunc) Open() (io.ReadCloser, error) {
	return f()
}

// Bytes returns a Source which serves a copy of b every time it is opened.
func Bytes(b []byte) Source {
	buf := make([]byte, len(b))
	copy(buf, b)
	return SourceFunc(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	})
}

// File returns a Source which opens the file at path in fsys.
func File(fsys fs.FS, path string) Source {
	return SourceFunc(func() (io.ReadCloser, error) {
		return fsys.Open(path)
	})
}
