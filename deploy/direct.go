// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package deploy

import (
	"context"
	"log/slog"

	"github.com/z5labs/bundlebridge/management"
	"github.com/z5labs/bundlebridge/pkg/slogfield"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Direct deploys artifacts by handing their Location straight to the
// remote framework. A Direct must not be copied after first use.
type Direct struct {
	Facade     management.Facade
	LogHandler slog.Handler

	registry
}

// Deploy installs the artifact from a.Location, falling back to a.Name
// when no location is set.
func (d *Direct) Deploy(ctx context.Context, a Artifact) (BundleHandle, error) {
	spanCtx, span := tracer().Start(ctx, "Direct.Deploy", trace.WithAttributes(
		attribute.String("artifact.name", a.Name),
	))
	defer span.End()

	m, err := ReadManifest(a.Source)
	if err != nil {
		err = &DeploymentError{Op: "deploy", Artifact: a.Name, Cause: err}
		recordError(span, err)
		return BundleHandle{}, err
	}

	location := a.Location
	if location == "" {
		location = a.Name
	}
	logger(d.LogHandler).InfoContext(spanCtx, "installing bundle", slogfield.String("location", location))

	h, err := install(spanCtx, d.Facade, a.Name, location)
	if err != nil {
		err = &DeploymentError{Op: "install", Artifact: a.Name, Cause: err}
		recordError(span, err)
		return BundleHandle{}, err
	}

	d.put(m.SymbolicName(), h)
	return h, nil
}

// Undeploy uninstalls the bundle previously deployed from a.
func (d *Direct) Undeploy(ctx context.Context, a Artifact) error {
	return undeploy(ctx, logger(d.LogHandler), d.Facade, &d.registry, a)
}

// UndeployName uninstalls the bundle recorded under symbolicName.
func (d *Direct) UndeployName(ctx context.Context, symbolicName string) {
	undeployName(ctx, logger(d.LogHandler), d.Facade, &d.registry, symbolicName)
}
