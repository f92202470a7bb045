// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	_ "embed"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/z5labs/bundlebridge/deploy"
	"github.com/z5labs/bundlebridge/http/httpclient"
	"github.com/z5labs/bundlebridge/management"
	"github.com/z5labs/bundlebridge/pkg/config"
	"github.com/z5labs/bundlebridge/pkg/config/configtmpl"
	"github.com/z5labs/bundlebridge/pkg/maskslog"
	"github.com/z5labs/bundlebridge/pkg/otelconfig"
	"github.com/z5labs/bundlebridge/pkg/otelslog"

	"go.opentelemetry.io/otel/trace"
)

const serviceName = "bundlebridge"

//go:embed config.yaml
var defaultConfig []byte

// Config is the full configuration of every command.
type Config struct {
	// Enabled selects the bridged deployer over the direct one.
	Enabled bool `config:"enabled"`

	Logging struct {
		Level slog.Level `config:"level"`
	} `config:"logging"`

	Bridge struct {
		Address   string `config:"address"`
		Port      int    `config:"port"`
		Advertise string `config:"advertise"`
	} `config:"bridge"`

	Jolokia struct {
		URL      string        `config:"url"`
		Username string        `config:"username"`
		Password string        `config:"password"`
		Timeout  time.Duration `config:"timeout"`
		Retries  int           `config:"retries"`
	} `config:"jolokia"`

	OTel otelconfig.Config `config:"otel"`
}

// InitTracerProvider implements the appbuilder.TracerProviderInitializer interface.
func (cfg Config) InitTracerProvider(ctx context.Context) (trace.TracerProvider, error) {
	// stdout is reserved for command output
	if cfg.OTel.Exporter == "local" {
		return otelconfig.Local(
			otelconfig.ServiceName(serviceName),
			otelconfig.LocalWriter(os.Stderr),
		).Init(ctx)
	}

	initializer, err := otelconfig.FromConfig(serviceName, cfg.OTel)
	if err != nil {
		return nil, err
	}
	return initializer.Init(ctx)
}

func configSources(path string) []config.Source {
	srcs := []config.Source{
		config.FromYaml(config.RenderTextTemplate(
			bytes.NewReader(defaultConfig),
			config.TemplateFuncs(configtmpl.Funcs()),
		)),
	}
	if path == "" {
		return srcs
	}

	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return append(srcs, config.FromYaml(config.RenderTextTemplate(
		config.NewFileReader(os.DirFS(dir), name),
		config.TemplateFuncs(configtmpl.Funcs()),
	)))
}

func logHandler(cfg Config) slog.Handler {
	return otelslog.NewHandler(maskslog.NewHandler(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.Logging.Level,
		}),
		// enough of a bridge token to correlate log lines
		maskslog.Attr("token", maskslog.Truncate(8)),
	))
}

func bindAddr(cfg Config) (net.IP, error) {
	if cfg.Bridge.Address == "" {
		return deploy.ExternalIPv4()
	}
	ip := net.ParseIP(cfg.Bridge.Address)
	if ip == nil {
		return nil, InvalidAddressError{Address: cfg.Bridge.Address}
	}
	return ip, nil
}

func newFacade(cfg Config, h slog.Handler) *management.Jolokia {
	client := httpclient.New(
		httpclient.Name("jolokia"),
		httpclient.LogHandler(h),
		httpclient.Timeout(cfg.Jolokia.Timeout),
		httpclient.Retry(cfg.Jolokia.Retries, 500*time.Millisecond, 5*time.Second),
		httpclient.TripAfter(5),
		httpclient.OpenStateTimeout(30*time.Second),
	)

	opts := []management.JolokiaOption{
		management.HTTPClient(client),
		management.JolokiaLogHandler(h),
	}
	if cfg.Jolokia.Username != "" {
		opts = append(opts, management.BasicAuth(cfg.Jolokia.Username, cfg.Jolokia.Password))
	}
	return management.NewJolokia(cfg.Jolokia.URL, opts...)
}

// InvalidAddressError is returned when the configured bridge address is not an IP.
type InvalidAddressError struct {
	Address string
}

// Error implements the [builtin.error] interface.
func (e InvalidAddressError) Error() string {
	return "invalid bridge address: " + e.Address
}
