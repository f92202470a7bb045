// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/z5labs/bundlebridge/pkg/config"

	"github.com/stretchr/testify/assert"
)

type agentRequest struct {
	Type      string `json:"type"`
	MBean     string `json:"mbean"`
	Operation string `json:"operation"`
	Arguments []any  `json:"arguments"`
}

// fakeAgent answers Jolokia requests and, like a real framework, fetches
// the bundle when asked to install from an http URL.
type fakeAgent struct {
	mu       sync.Mutex
	state    string
	requests []agentRequest
	fetched  []byte
}

func (a *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	var value any
	switch req.Operation {
	case "installBundleFromURL":
		u, _ := req.Arguments[1].(string)
		if strings.HasPrefix(u, "http://") {
			resp, err := http.Get(u)
			if err != nil {
				json.NewEncoder(w).Encode(map[string]any{"status": 500, "error": err.Error()})
				return
			}
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			a.mu.Lock()
			a.fetched = b
			a.mu.Unlock()
		}
		value = 11
	case "getSymbolicName":
		value = "com.example.bundle"
	case "getVersion":
		value = "1.2.3"
	case "getState":
		value = a.state
	}
	json.NewEncoder(w).Encode(map[string]any{"status": 200, "value": value})
}

func (a *fakeAgent) operations() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ops := make([]string, len(a.requests))
	for i, req := range a.requests {
		ops[i] = req.Operation
	}
	return ops
}

func newAgent(t *testing.T, state string) *fakeAgent {
	agent := &fakeAgent{state: state}
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	t.Setenv("JOLOKIA_URL", srv.URL)
	t.Setenv("BUNDLEBRIDGE_LOG_LEVEL", "ERROR")
	return agent
}

func writeBundle(t *testing.T) (string, []byte) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("META-INF/MANIFEST.MF")
	if err != nil {
		t.Fatal(err)
	}
	_, err = io.WriteString(w, "Manifest-Version: 1.0\r\nBundle-SymbolicName: com.example.bundle\r\nBundle-Version: 1.2.3\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	err = zw.Close()
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "example.jar")
	err = os.WriteFile(path, buf.Bytes(), 0o600)
	if err != nil {
		t.Fatal(err)
	}
	return path, buf.Bytes()
}

func freePort(t *testing.T) string {
	t.Helper()

	ls, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ls.Close()
	return strconv.Itoa(ls.Addr().(*net.TCPAddr).Port)
}

func execute(ctx context.Context, out io.Writer, args ...string) error {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}

func TestConfigSources(t *testing.T) {
	t.Run("will use the embedded defaults", func(t *testing.T) {
		t.Run("if no config file is given", func(t *testing.T) {
			for _, name := range []string{"BUNDLEBRIDGE_ENABLED", "BUNDLEBRIDGE_PORT", "BUNDLEBRIDGE_LOG_LEVEL", "BUNDLEBRIDGE_OTEL_EXPORTER", "JOLOKIA_URL"} {
				t.Setenv(name, "")
			}

			m, err := config.Read(configSources("")...)
			if !assert.Nil(t, err) {
				return
			}

			var cfg Config
			err = m.Unmarshal(&cfg)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.False(t, cfg.Enabled) {
				return
			}
			if !assert.Equal(t, 9000, cfg.Bridge.Port) {
				return
			}
			if !assert.Equal(t, slog.LevelInfo, cfg.Logging.Level) {
				return
			}
			if !assert.Equal(t, "http://localhost:8080/jolokia", cfg.Jolokia.URL) {
				return
			}
			if !assert.Equal(t, 30*time.Second, cfg.Jolokia.Timeout) {
				return
			}
			if !assert.Equal(t, 3, cfg.Jolokia.Retries) {
				return
			}
			if !assert.Equal(t, "none", cfg.OTel.Exporter) {
				return
			}
		})
	})

	t.Run("will override the defaults", func(t *testing.T) {
		t.Run("with values from the config file", func(t *testing.T) {
			t.Setenv("BUNDLEBRIDGE_ENABLED", "true")
			t.Setenv("TEST_JOLOKIA_USER", "admin")

			path := filepath.Join(t.TempDir(), "config.yaml")
			err := os.WriteFile(path, []byte("bridge:\n  port: 9100\njolokia:\n  username: {{env \"TEST_JOLOKIA_USER\"}}\n"), 0o600)
			if !assert.Nil(t, err) {
				return
			}

			m, err := config.Read(configSources(path)...)
			if !assert.Nil(t, err) {
				return
			}

			var cfg Config
			err = m.Unmarshal(&cfg)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, cfg.Enabled) {
				return
			}
			if !assert.Equal(t, 9100, cfg.Bridge.Port) {
				return
			}
			if !assert.Equal(t, "admin", cfg.Jolokia.Username) {
				return
			}
		})
	})
}

func TestInstallCommand(t *testing.T) {
	t.Run("will serve the bundle over the bridge", func(t *testing.T) {
		t.Run("if bridging is enabled", func(t *testing.T) {
			agent := newAgent(t, "")
			t.Setenv("BUNDLEBRIDGE_ENABLED", "true")
			t.Setenv("BUNDLEBRIDGE_ADDRESS", "127.0.0.1")
			t.Setenv("BUNDLEBRIDGE_ADVERTISE", "127.0.0.1")
			t.Setenv("BUNDLEBRIDGE_PORT", freePort(t))

			path, archive := writeBundle(t)

			var out bytes.Buffer
			err := execute(context.Background(), &out, "install", path)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "11 com.example.bundle 1.2.3\n", out.String()) {
				return
			}
			if !assert.Equal(t, archive, agent.fetched) {
				return
			}
		})
	})

	t.Run("will pass a file url to the framework", func(t *testing.T) {
		t.Run("if bridging is disabled", func(t *testing.T) {
			agent := newAgent(t, "")
			t.Setenv("BUNDLEBRIDGE_ENABLED", "false")

			path, _ := writeBundle(t)

			var out bytes.Buffer
			err := execute(context.Background(), &out, "install", path)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "11 com.example.bundle 1.2.3\n", out.String()) {
				return
			}
			if !assert.Nil(t, agent.fetched) {
				return
			}
			if !assert.Equal(t, "file://"+filepath.ToSlash(path), agent.requests[0].Arguments[1]) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the file does not exist", func(t *testing.T) {
			agent := newAgent(t, "")

			err := execute(context.Background(), io.Discard, "install", filepath.Join(t.TempDir(), "missing.jar"))
			if !assert.Error(t, err) {
				return
			}
			if !assert.Empty(t, agent.operations()) {
				return
			}
		})
	})
}

func TestUninstallCommand(t *testing.T) {
	t.Run("will uninstall the bundle", func(t *testing.T) {
		t.Run("if it is still active", func(t *testing.T) {
			agent := newAgent(t, "ACTIVE")

			err := execute(context.Background(), io.Discard, "uninstall", "7")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"getState", "uninstallBundle"}, agent.operations()) {
				return
			}
		})
	})

	t.Run("will not uninstall the bundle", func(t *testing.T) {
		t.Run("if it is already uninstalled", func(t *testing.T) {
			agent := newAgent(t, "UNINSTALLED")

			err := execute(context.Background(), io.Discard, "uninstall", "7")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"getState"}, agent.operations()) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the id is not a number", func(t *testing.T) {
			agent := newAgent(t, "ACTIVE")

			err := execute(context.Background(), io.Discard, "uninstall", "abc")
			if !assert.Error(t, err) {
				return
			}
			if !assert.Empty(t, agent.operations()) {
				return
			}
		})
	})
}

func TestServeCommand(t *testing.T) {
	t.Run("will serve every file until cancelled", func(t *testing.T) {
		t.Setenv("BUNDLEBRIDGE_LOG_LEVEL", "ERROR")
		t.Setenv("BUNDLEBRIDGE_ADDRESS", "127.0.0.1")
		t.Setenv("BUNDLEBRIDGE_ADVERTISE", "127.0.0.1")
		t.Setenv("BUNDLEBRIDGE_PORT", "0")

		path, archive := writeBundle(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pr, pw := io.Pipe()
		errCh := make(chan error, 1)
		go func() {
			defer pw.Close()
			errCh <- execute(ctx, pw, "serve", path)
		}()

		line, err := bufio.NewReader(pr).ReadString('\n')
		if !assert.Nil(t, err) {
			return
		}

		resp, err := http.Get(strings.TrimSpace(line))
		if !assert.Nil(t, err) {
			return
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
			return
		}
		if !assert.Equal(t, archive, body) {
			return
		}

		cancel()
		select {
		case err := <-errCh:
			if !assert.Nil(t, err) {
				return
			}
		case <-time.After(5 * time.Second):
			t.Error("serve did not return after cancellation")
		}
	})
}
