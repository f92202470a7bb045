// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package deploy installs bundle archives into a remote OSGi framework.
//
// The framework can only install from a URL. [Bridged] stands up a
// short lived [bridge.Server] for each install so a purely local archive
// can be fetched by the remote side. [Direct] passes a location the
// framework can already reach.
package deploy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/z5labs/bundlebridge/bridge"
	"github.com/z5labs/bundlebridge/management"
	"github.com/z5labs/bundlebridge/pkg/noop"
	"github.com/z5labs/bundlebridge/pkg/otelslog"
	"github.com/z5labs/bundlebridge/pkg/slogfield"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Artifact is a bundle archive to be deployed.
type Artifact struct {
	// Name is used as the install location.
	Name string

	// Source provides the zip encoded bundle.
	Source bridge.Source

	// Location is a URL the remote framework can fetch the archive from.
	// Only used by [Direct].
	Location string
}

// BundleHandle identifies a bundle installed in the remote framework.
type BundleHandle struct {
	ID           int64
	SymbolicName string
	Version      string
}

// Deployer installs and removes artifacts.
type Deployer interface {
	Deploy(context.Context, Artifact) (BundleHandle, error)
	Undeploy(context.Context, Artifact) error
}

// Select returns bridged when enabled is true and direct otherwise.
func Select(enabled bool, bridged, direct Deployer) Deployer {
	if enabled {
		return bridged
	}
	return direct
}

// registry records deployed bundles by the symbolic name declared in
// their manifest. The handle reported by the framework is kept unchanged.
type registry struct {
	mu      sync.Mutex
	handles map[string]BundleHandle
}

func (r *registry) put(symbolicName string, h BundleHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles == nil {
		r.handles = make(map[string]BundleHandle)
	}
	r.handles[symbolicName] = h
}

func (r *registry) remove(symbolicName string) (BundleHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[symbolicName]
	delete(r.handles, symbolicName)
	return h, ok
}

// Lookup returns the handle recorded for symbolicName by a previous Deploy.
func (r *registry) Lookup(symbolicName string) (BundleHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[symbolicName]
	return h, ok
}

func logger(h slog.Handler) *slog.Logger {
	if h == nil {
		h = noop.LogHandler{}
	}
	return otelslog.New(h)
}

func tracer() trace.Tracer {
	return otel.Tracer("deploy")
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// install asks the framework to fetch url and resolves the identity of
// the resulting bundle.
func install(ctx context.Context, facade management.Facade, location, url string) (BundleHandle, error) {
	id, err := facade.InstallBundleFromURL(ctx, location, url)
	if err != nil {
		return BundleHandle{}, err
	}
	symbolicName, err := facade.SymbolicName(ctx, id)
	if err != nil {
		return BundleHandle{}, err
	}
	version, err := facade.Version(ctx, id)
	if err != nil {
		return BundleHandle{}, err
	}
	return BundleHandle{
		ID:           id,
		SymbolicName: symbolicName,
		Version:      version,
	}, nil
}

// Uninstall removes the bundle from the framework unless it is already
// uninstalled. A failure to query the bundle state is taken to mean the
// bundle no longer exists, so only the uninstall call itself can fail.
func Uninstall(ctx context.Context, facade management.Facade, h BundleHandle) error {
	spanCtx, span := tracer().Start(ctx, "Uninstall", trace.WithAttributes(
		attribute.Int64("bundle.id", h.ID),
		attribute.String("bundle.symbolic_name", h.SymbolicName),
	))
	defer span.End()

	state, err := facade.State(spanCtx, h.ID)
	if err != nil {
		span.AddEvent("bundle state unavailable")
		return nil
	}
	if state == "" || state == management.StateUninstalled {
		return nil
	}

	err = facade.Uninstall(spanCtx, h.ID)
	recordError(span, err)
	return err
}

// undeployName is shared by both deployers.
func undeployName(ctx context.Context, log *slog.Logger, facade management.Facade, r *registry, symbolicName string) {
	h, ok := r.remove(symbolicName)
	if !ok {
		return
	}

	err := Uninstall(ctx, facade, h)
	if err != nil {
		log.ErrorContext(
			ctx,
			"cannot undeploy bundle",
			slogfield.SymbolicName(symbolicName),
			slogfield.BundleID(h.ID),
			slogfield.Error(err),
		)
	}
}

func undeploy(ctx context.Context, log *slog.Logger, facade management.Facade, r *registry, a Artifact) error {
	m, err := ReadManifest(a.Source)
	if err != nil {
		return &DeploymentError{Op: "undeploy", Artifact: a.Name, Cause: err}
	}
	undeployName(ctx, log, facade, r, m.SymbolicName())
	return nil
}
