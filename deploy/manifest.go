// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package deploy

import (
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/z5labs/bundlebridge/bridge"
	"github.com/z5labs/bundlebridge/internal/try"
)

// ManifestPath is the archive entry holding the bundle headers.
const ManifestPath = "META-INF/MANIFEST.MF"

// Manifest headers used for bundle identity.
const (
	HeaderSymbolicName = "Bundle-SymbolicName"
	HeaderVersion      = "Bundle-Version"
)

// Manifest holds the main section attributes of a JAR manifest. Header
// names are case-insensitive and stored in their lower case form.
type Manifest map[string]string

func headerKey(name string) string {
	return strings.ToLower(name)
}

// Get returns the value of the named header, ignoring case.
func (m Manifest) Get(name string) string {
	return m[headerKey(name)]
}

// SymbolicName returns the Bundle-SymbolicName without any directives
// or attributes, e.g. "com.example;singleton:=true" yields "com.example".
func (m Manifest) SymbolicName() string {
	name, _, _ := strings.Cut(m.Get(HeaderSymbolicName), ";")
	return strings.TrimSpace(name)
}

// Version returns the Bundle-Version, defaulting to "0.0.0".
func (m Manifest) Version() string {
	v := strings.TrimSpace(m.Get(HeaderVersion))
	if v == "" {
		return "0.0.0"
	}
	return v
}

// ReadManifest opens the bundle archive provided by src and parses its
// manifest. Any failure is returned as a *MalformedArtifactError.
func ReadManifest(src bridge.Source) (Manifest, error) {
	m, err := readManifest(src)
	if err != nil {
		return nil, &MalformedArtifactError{Cause: err}
	}
	if m.SymbolicName() == "" {
		return nil, &MalformedArtifactError{Cause: MissingHeaderError{Header: HeaderSymbolicName}}
	}
	return m, nil
}

func readManifest(src bridge.Source) (m Manifest, err error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer try.Close(&err, rc)

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, err
	}

	f, err := zr.Open(ManifestPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, MissingEntryError{Name: ManifestPath}
	}
	if err != nil {
		return nil, err
	}
	defer try.Close(&err, f)

	return parseManifest(f)
}

// parseManifest reads the main section, which ends at the first blank
// line. A line starting with a single space continues the previous value.
func parseManifest(r io.Reader) (Manifest, error) {
	m := make(Manifest)
	sc := bufio.NewScanner(r)

	var name string
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, " ") {
			if name == "" {
				return nil, errors.New("manifest continuation line without a header")
			}
			m[name] += line[1:]
			continue
		}

		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errors.New("invalid manifest header: " + line)
		}
		name = headerKey(k)
		m[name] = strings.TrimPrefix(v, " ")
	}
	return m, sc.Err()
}
