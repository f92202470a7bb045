// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package deploy

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/z5labs/bundlebridge/bridge"

	"github.com/stretchr/testify/assert"
)

func TestReadManifest(t *testing.T) {
	t.Run("will parse the main section", func(t *testing.T) {
		t.Run("if headers span continuation lines", func(t *testing.T) {
			manifest := "Manifest-Version: 1.0\n" +
				"Bundle-SymbolicName: com.example.very.long.bundle.na\n" +
				" me;singleton:=true\n" +
				"Bundle-Version: 2.0.0\n" +
				"\n" +
				"Name: com/example/Activator.class\n" +
				"Bundle-Version: 9.9.9\n"

			m, err := ReadManifest(bridge.Bytes(bundleArchive(t, manifest)))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "com.example.very.long.bundle.name", m.SymbolicName()) {
				return
			}
			if !assert.Equal(t, "2.0.0", m.Version()) {
				return
			}
			if !assert.Equal(t, "1.0", m.Get("Manifest-Version")) {
				return
			}
		})

		t.Run("if lines end with CRLF", func(t *testing.T) {
			m, err := ReadManifest(bridge.Bytes(bundleArchive(t, exampleManifest)))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "com.example.bundle", m.SymbolicName()) {
				return
			}
			if !assert.Equal(t, "1.2.3", m.Version()) {
				return
			}
		})

		t.Run("if header names differ in case", func(t *testing.T) {
			manifest := "manifest-version: 1.0\n" +
				"bundle-symbolicname: com.example.lower;singleton:=true\n" +
				"BUNDLE-VERSION: 4.5.6\n"

			m, err := ReadManifest(bridge.Bytes(bundleArchive(t, manifest)))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "com.example.lower", m.SymbolicName()) {
				return
			}
			if !assert.Equal(t, "4.5.6", m.Version()) {
				return
			}
			if !assert.Equal(t, "1.0", m.Get("Manifest-Version")) {
				return
			}
		})
	})

	t.Run("will default the version", func(t *testing.T) {
		t.Run("if Bundle-Version is absent", func(t *testing.T) {
			m, err := ReadManifest(bridge.Bytes(bundleArchive(t, "Bundle-SymbolicName: a.b\n")))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "0.0.0", m.Version()) {
				return
			}
		})
	})

	t.Run("will return a MalformedArtifactError", func(t *testing.T) {
		t.Run("if the archive has no manifest", func(t *testing.T) {
			_, err := ReadManifest(bridge.Bytes(bundleArchive(t, "")))

			var merr *MalformedArtifactError
			if !assert.ErrorAs(t, err, &merr) {
				return
			}
			var eerr MissingEntryError
			if !assert.ErrorAs(t, err, &eerr) {
				return
			}
			if !assert.Equal(t, ManifestPath, eerr.Name) {
				return
			}
		})

		t.Run("if the manifest has no symbolic name", func(t *testing.T) {
			_, err := ReadManifest(bridge.Bytes(bundleArchive(t, "Manifest-Version: 1.0\n")))

			var herr MissingHeaderError
			if !assert.ErrorAs(t, err, &herr) {
				return
			}
			if !assert.Equal(t, HeaderSymbolicName, herr.Header) {
				return
			}
		})

		t.Run("if a header line has no separator", func(t *testing.T) {
			_, err := ReadManifest(bridge.Bytes(bundleArchive(t, "Bundle-SymbolicName: a.b\ngarbage\n")))

			var merr *MalformedArtifactError
			if !assert.ErrorAs(t, err, &merr) {
				return
			}
		})

		t.Run("if the source can not be opened", func(t *testing.T) {
			openErr := errors.New("permission denied")
			_, err := ReadManifest(bridge.SourceFunc(func() (io.ReadCloser, error) {
				return nil, openErr
			}))

			var merr *MalformedArtifactError
			if !assert.ErrorAs(t, err, &merr) {
				return
			}
			if !assert.ErrorIs(t, err, openErr) {
				return
			}
		})

		t.Run("if the source is not a zip archive", func(t *testing.T) {
			_, err := ReadManifest(bridge.SourceFunc(func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("plain text")), nil
			}))

			var merr *MalformedArtifactError
			if !assert.ErrorAs(t, err, &merr) {
				return
			}
		})
	})
}
