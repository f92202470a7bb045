// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package deploy

import (
	"context"
	"log/slog"
	"net"

	"github.com/z5labs/bundlebridge/bridge"
	"github.com/z5labs/bundlebridge/management"
	"github.com/z5labs/bundlebridge/pkg/slogfield"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPort is the bridge port used when Bridged.Port is zero.
const DefaultPort = 9000

// Bridged deploys artifacts by serving them over a bridge.Server for the
// duration of each install. A Bridged must not be copied after first use.
type Bridged struct {
	Facade management.Facade

	// BindAddr is the address the bridge listens on. If nil, the first
	// external IPv4 address of this host is used.
	BindAddr net.IP

	// Port is the bridge port. Zero means DefaultPort.
	Port int

	// Advertise overrides the host name put in bridge URLs.
	Advertise string

	LogHandler slog.Handler

	registry
}

// Deploy installs the artifact and records its handle by the symbolic
// name declared in the artifact manifest.
func (b *Bridged) Deploy(ctx context.Context, a Artifact) (BundleHandle, error) {
	spanCtx, span := tracer().Start(ctx, "Bridged.Deploy", trace.WithAttributes(
		attribute.String("artifact.name", a.Name),
	))
	defer span.End()

	m, err := ReadManifest(a.Source)
	if err != nil {
		err = &DeploymentError{Op: "deploy", Artifact: a.Name, Cause: err}
		recordError(span, err)
		return BundleHandle{}, err
	}

	h, err := b.Install(spanCtx, a.Name, a.Source)
	if err != nil {
		recordError(span, err)
		return BundleHandle{}, err
	}

	b.put(m.SymbolicName(), h)
	return h, nil
}

// Install runs a single bridge session. The bridge is shut down before
// Install returns, whether the remote install succeeded or not.
func (b *Bridged) Install(ctx context.Context, location string, src bridge.Source) (BundleHandle, error) {
	spanCtx, span := tracer().Start(ctx, "Bridged.Install", trace.WithAttributes(
		attribute.String("bundle.location", location),
	))
	defer span.End()

	h, err := b.install(spanCtx, location, src)
	if err != nil {
		err = &DeploymentError{Op: "install", Artifact: location, Cause: err}
		recordError(span, err)
		return BundleHandle{}, err
	}
	return h, nil
}

func (b *Bridged) install(ctx context.Context, location string, src bridge.Source) (BundleHandle, error) {
	log := logger(b.LogHandler)

	addr := b.BindAddr
	if addr == nil {
		var err error
		addr, err = ExternalIPv4()
		if err != nil {
			return BundleHandle{}, err
		}
	}
	port := b.Port
	if port == 0 {
		port = DefaultPort
	}

	opts := []bridge.Option{bridge.LogHandler(log.Handler())}
	if b.Advertise != "" {
		opts = append(opts, bridge.Hostname(b.Advertise))
	}
	srv, err := bridge.New(addr, port, opts...)
	if err != nil {
		return BundleHandle{}, err
	}
	defer srv.Shutdown()

	u := srv.Register(src)
	srv.Start()

	log.InfoContext(ctx, "installing bundle", slogfield.String("location", location), slogfield.String("url", u.String()))
	return install(ctx, b.Facade, location, u.String())
}

// Undeploy uninstalls the bundle previously deployed from a.
func (b *Bridged) Undeploy(ctx context.Context, a Artifact) error {
	return undeploy(ctx, logger(b.LogHandler), b.Facade, &b.registry, a)
}

// UndeployName uninstalls the bundle recorded under symbolicName. It is a
// no-op if nothing was deployed under that name. Uninstall failures are
// logged rather than returned.
func (b *Bridged) UndeployName(ctx context.Context, symbolicName string) {
	undeployName(ctx, logger(b.LogHandler), b.Facade, &b.registry, symbolicName)
}
