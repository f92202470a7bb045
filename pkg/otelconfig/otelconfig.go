// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig provides trace.TracerProvider initializers for the
// exporters bundlebridge supports.
package otelconfig

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Common holds the settings every Initializer shares.
type Common struct {
	ServiceName string `config:"serviceName"`
}

// CommonOption
type CommonOption interface {
	GoogleCloudOption
	LocalOption
	OTLPOption
}

type commonOptionFunc func(*Common)

func (f commonOptionFunc) ApplyGCP(cfg *GoogleCloudConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(&cfg.Common)
}

// ServiceName sets the service.name resource attribute.
func ServiceName(name string) CommonOption {
	return commonOptionFunc(func(c *Common) {
		c.ServiceName = name
	})
}

// Initializer
type Initializer interface {
	Init(context.Context) (trace.TracerProvider, error)
}

// Noop is an Initializer for a TracerProvider which records nothing.
var Noop Initializer = noopInitializer{}

type noopInitializer struct{}

func (noopInitializer) Init(_ context.Context) (trace.TracerProvider, error) {
	return noop.NewTracerProvider(), nil
}

// LocalConfig is the config for the Local Initializer.
type LocalConfig struct {
	Common

	Out io.Writer
}

// LocalOption
type LocalOption interface {
	ApplyLocal(*LocalConfig)
}

type localOptionFunc func(*LocalConfig)

func (f localOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(cfg)
}

// LocalWriter sets where the Local Initializer writes spans to.
//
// Default is os.Stdout.
func LocalWriter(w io.Writer) LocalOption {
	return localOptionFunc(func(lc *LocalConfig) {
		lc.Out = w
	})
}

// Local returns an Initializer which pretty prints spans.
func Local(opts ...LocalOption) Initializer {
	cfg := LocalConfig{
		Out: os.Stdout,
	}
	for _, opt := range opts {
		opt.ApplyLocal(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg LocalConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	res, err := serviceResource(ctx, cfg.Common)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

func serviceResource(ctx context.Context, c Common) (*resource.Resource, error) {
	return resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(c.ServiceName),
		),
	)
}

// UnknownExporterError occurs when [FromName] is given an exporter
// name it does not support.
type UnknownExporterError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown otel exporter: %q", e.Name)
}

// Config selects and configures an exporter by name.
type Config struct {
	Exporter  string `config:"exporter"`
	Target    string `config:"target"`
	ProjectId string `config:"projectId"`
}

// FromConfig returns the Initializer named by cfg.Exporter. Supported
// names are "none" (or empty), "local", "otlp" and "gcp".
func FromConfig(serviceName string, cfg Config) (Initializer, error) {
	switch cfg.Exporter {
	case "", "none":
		return Noop, nil
	case "local":
		return Local(ServiceName(serviceName)), nil
	case "otlp":
		return OTLP(ServiceName(serviceName), OTLPTarget(cfg.Target)), nil
	case "gcp":
		return GoogleCloud(ServiceName(serviceName), GoogleCloudProjectId(cfg.ProjectId)), nil
	default:
		return nil, UnknownExporterError{Name: cfg.Exporter}
	}
}
