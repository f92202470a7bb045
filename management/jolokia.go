// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package management

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/z5labs/bundlebridge/http/httpclient"
	"github.com/z5labs/bundlebridge/internal/try"
	"github.com/z5labs/bundlebridge/pkg/noop"
	"github.com/z5labs/bundlebridge/pkg/slogfield"
)

// Default OSGi Enterprise JMX MBean names.
const (
	DefaultFrameworkMBean   = "osgi.core:type=framework,version=1.7"
	DefaultBundleStateMBean = "osgi.core:type=bundleState,version=1.7"
)

type jolokiaOptions struct {
	client           *http.Client
	username         string
	password         string
	frameworkMBean   string
	bundleStateMBean string
	logHandler       slog.Handler
}

// JolokiaOption configures a Jolokia client.
type JolokiaOption func(*jolokiaOptions)

// HTTPClient sets the http.Client requests are sent with.
func HTTPClient(c *http.Client) JolokiaOption {
	return func(o *jolokiaOptions) {
		o.client = c
	}
}

// BasicAuth authenticates every request with the given credentials.
func BasicAuth(username, password string) JolokiaOption {
	return func(o *jolokiaOptions) {
		o.username = username
		o.password = password
	}
}

// FrameworkMBean overrides the object name of the FrameworkMBean.
func FrameworkMBean(name string) JolokiaOption {
	return func(o *jolokiaOptions) {
		o.frameworkMBean = name
	}
}

// BundleStateMBean overrides the object name of the BundleStateMBean.
func BundleStateMBean(name string) JolokiaOption {
	return func(o *jolokiaOptions) {
		o.bundleStateMBean = name
	}
}

// JolokiaLogHandler configures the slog.Handler used by the client.
func JolokiaLogHandler(h slog.Handler) JolokiaOption {
	return func(o *jolokiaOptions) {
		o.logHandler = h
	}
}

// Jolokia implements [Facade] over the Jolokia JMX-HTTP bridge.
type Jolokia struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger

	username string
	password string

	frameworkMBean   string
	bundleStateMBean string
}

// NewJolokia returns a client which posts requests to the agent at endpoint,
// e.g. http://localhost:8080/jolokia.
func NewJolokia(endpoint string, opts ...JolokiaOption) *Jolokia {
	o := &jolokiaOptions{
		frameworkMBean:   DefaultFrameworkMBean,
		bundleStateMBean: DefaultBundleStateMBean,
		logHandler:       noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = httpclient.New(
			httpclient.Name("jolokia"),
			httpclient.LogHandler(o.logHandler),
		)
	}

	return &Jolokia{
		endpoint:         endpoint,
		client:           o.client,
		log:              slog.New(o.logHandler),
		username:         o.username,
		password:         o.password,
		frameworkMBean:   o.frameworkMBean,
		bundleStateMBean: o.bundleStateMBean,
	}
}

type jolokiaRequest struct {
	Type      string `json:"type"`
	MBean     string `json:"mbean"`
	Operation string `json:"operation,omitempty"`
	Arguments []any  `json:"arguments,omitempty"`
}

type jolokiaResponse struct {
	Status    int             `json:"status"`
	Value     json.RawMessage `json:"value"`
	ErrorType string          `json:"error_type"`
	Error     string          `json:"error"`
}

// InstallBundleFromURL implements the [Facade] interface.
func (j *Jolokia) InstallBundleFromURL(ctx context.Context, location, url string) (int64, error) {
	var id int64
	err := j.exec(ctx, j.frameworkMBean, "installBundleFromURL", []any{location, url}, &id)
	if err != nil {
		return 0, err
	}
	j.log.InfoContext(ctx, "bundle installed", slogfield.BundleID(id), slogfield.String("location", location))
	return id, nil
}

// SymbolicName implements the [Facade] interface.
func (j *Jolokia) SymbolicName(ctx context.Context, id int64) (string, error) {
	var name string
	err := j.exec(ctx, j.bundleStateMBean, "getSymbolicName", []any{id}, &name)
	return name, err
}

// Version implements the [Facade] interface.
func (j *Jolokia) Version(ctx context.Context, id int64) (string, error) {
	var version string
	err := j.exec(ctx, j.bundleStateMBean, "getVersion", []any{id}, &version)
	return version, err
}

// State implements the [Facade] interface.
func (j *Jolokia) State(ctx context.Context, id int64) (string, error) {
	var state string
	err := j.exec(ctx, j.bundleStateMBean, "getState", []any{id}, &state)
	return state, err
}

// Uninstall implements the [Facade] interface.
func (j *Jolokia) Uninstall(ctx context.Context, id int64) error {
	err := j.exec(ctx, j.frameworkMBean, "uninstallBundle", []any{id}, nil)
	if err != nil {
		return err
	}
	j.log.InfoContext(ctx, "bundle uninstalled", slogfield.BundleID(id))
	return nil
}

func (j *Jolokia) exec(ctx context.Context, mbean, operation string, args []any, value any) error {
	err := j.do(ctx, jolokiaRequest{
		Type:      "exec",
		MBean:     mbean,
		Operation: operation,
		Arguments: args,
	}, value)
	if err != nil {
		return &CallError{MBean: mbean, Operation: operation, Cause: err}
	}
	return nil
}

func (j *Jolokia) do(ctx context.Context, jreq jolokiaRequest, value any) (err error) {
	b, err := json.Marshal(jreq)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if j.username != "" {
		req.SetBasicAuth(j.username, j.password)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer try.Close(&err, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Status: resp.StatusCode, Message: resp.Status}
	}

	var jresp jolokiaResponse
	err = json.NewDecoder(resp.Body).Decode(&jresp)
	if err != nil {
		return err
	}
	if jresp.Status != http.StatusOK {
		return &RemoteError{
			Status:    jresp.Status,
			ErrorType: jresp.ErrorType,
			Message:   jresp.Error,
		}
	}
	if value == nil || len(jresp.Value) == 0 {
		return nil
	}
	return json.Unmarshal(jresp.Value, value)
}
