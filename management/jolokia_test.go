// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package management

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAgent struct {
	requests []jolokiaRequest
	username string
	password string
	respond  func(jolokiaRequest) any
}

func (a *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.username, a.password, _ = r.BasicAuth()

	var req jolokiaRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.requests = append(a.requests, req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.respond(req))
}

func value(v any) func(jolokiaRequest) any {
	return func(jolokiaRequest) any {
		return map[string]any{
			"status": 200,
			"value":  v,
		}
	}
}

func newAgent(t *testing.T, respond func(jolokiaRequest) any) (*fakeAgent, string) {
	agent := &fakeAgent{respond: respond}
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)
	return agent, srv.URL
}

func TestJolokia_InstallBundleFromURL(t *testing.T) {
	t.Run("will return the bundle id", func(t *testing.T) {
		t.Run("if the agent reports success", func(t *testing.T) {
			agent, endpoint := newAgent(t, value(42))

			j := NewJolokia(endpoint, BasicAuth("admin", "secret"))
			id, err := j.InstallBundleFromURL(context.Background(), "bundle.jar", "http://10.0.0.1:9000/abc")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, int64(42), id) {
				return
			}
			if !assert.Len(t, agent.requests, 1) {
				return
			}

			req := agent.requests[0]
			if !assert.Equal(t, "exec", req.Type) {
				return
			}
			if !assert.Equal(t, DefaultFrameworkMBean, req.MBean) {
				return
			}
			if !assert.Equal(t, "installBundleFromURL", req.Operation) {
				return
			}
			if !assert.Equal(t, []any{"bundle.jar", "http://10.0.0.1:9000/abc"}, req.Arguments) {
				return
			}
			if !assert.Equal(t, "admin", agent.username) {
				return
			}
			if !assert.Equal(t, "secret", agent.password) {
				return
			}
		})
	})

	t.Run("will return a RemoteError", func(t *testing.T) {
		t.Run("if the agent reports a failed operation", func(t *testing.T) {
			_, endpoint := newAgent(t, func(jolokiaRequest) any {
				return map[string]any{
					"status":     500,
					"error_type": "org.osgi.framework.BundleException",
					"error":      "could not fetch bundle",
				}
			})

			j := NewJolokia(endpoint)
			_, err := j.InstallBundleFromURL(context.Background(), "bundle.jar", "http://10.0.0.1:9000/abc")

			var cerr *CallError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.Equal(t, "installBundleFromURL", cerr.Operation) {
				return
			}

			var rerr *RemoteError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.Equal(t, 500, rerr.Status) {
				return
			}
			if !assert.Equal(t, "org.osgi.framework.BundleException", rerr.ErrorType) {
				return
			}
			if !assert.Equal(t, "could not fetch bundle", rerr.Message) {
				return
			}
		})

		t.Run("if the agent responds with a non-200 http status", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer srv.Close()

			j := NewJolokia(srv.URL)
			_, err := j.InstallBundleFromURL(context.Background(), "bundle.jar", "http://10.0.0.1:9000/abc")

			var rerr *RemoteError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.Equal(t, http.StatusUnauthorized, rerr.Status) {
				return
			}
		})
	})

	t.Run("will return a CallError", func(t *testing.T) {
		t.Run("if the agent is unreachable", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			endpoint := srv.URL
			srv.Close()

			j := NewJolokia(endpoint)
			_, err := j.InstallBundleFromURL(context.Background(), "bundle.jar", "http://10.0.0.1:9000/abc")

			var cerr *CallError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.Equal(t, DefaultFrameworkMBean, cerr.MBean) {
				return
			}
		})
	})
}

func TestJolokia_BundleState(t *testing.T) {
	t.Run("will query the bundle state mbean", func(t *testing.T) {
		t.Run("for the symbolic name, version and state", func(t *testing.T) {
			agent, endpoint := newAgent(t, func(req jolokiaRequest) any {
				values := map[string]string{
					"getSymbolicName": "com.example.bundle",
					"getVersion":      "1.0.0",
					"getState":        StateActive,
				}
				return map[string]any{
					"status": 200,
					"value":  values[req.Operation],
				}
			})

			j := NewJolokia(endpoint, BundleStateMBean("osgi.core:type=bundleState,version=1.7,uuid=x"))
			ctx := context.Background()

			name, err := j.SymbolicName(ctx, 7)
			if !assert.Nil(t, err) {
				return
			}
			version, err := j.Version(ctx, 7)
			if !assert.Nil(t, err) {
				return
			}
			state, err := j.State(ctx, 7)
			if !assert.Nil(t, err) {
				return
			}

			if !assert.Equal(t, "com.example.bundle", name) {
				return
			}
			if !assert.Equal(t, "1.0.0", version) {
				return
			}
			if !assert.Equal(t, StateActive, state) {
				return
			}
			for _, req := range agent.requests {
				if !assert.Equal(t, "osgi.core:type=bundleState,version=1.7,uuid=x", req.MBean) {
					return
				}
				// JSON numbers decode as float64
				if !assert.Equal(t, []any{float64(7)}, req.Arguments) {
					return
				}
			}
		})
	})
}

func TestJolokia_Uninstall(t *testing.T) {
	t.Run("will exec uninstallBundle", func(t *testing.T) {
		t.Run("on the framework mbean", func(t *testing.T) {
			agent, endpoint := newAgent(t, value(nil))

			j := NewJolokia(endpoint)
			err := j.Uninstall(context.Background(), 3)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Len(t, agent.requests, 1) {
				return
			}
			if !assert.Equal(t, "uninstallBundle", agent.requests[0].Operation) {
				return
			}
			if !assert.Equal(t, DefaultFrameworkMBean, agent.requests[0].MBean) {
				return
			}
		})
	})
}
