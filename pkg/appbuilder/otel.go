// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package appbuilder

import (
	"context"

	"github.com/z5labs/bundlebridge"
	"github.com/z5labs/bundlebridge/pkg/app"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracerProviderInitializer is implemented by config types which know
// how to build a trace.TracerProvider.
type TracerProviderInitializer interface {
	InitTracerProvider(context.Context) (trace.TracerProvider, error)
}

// OTel installs the config's trace.TracerProvider, along with a W3C trace
// context and baggage propagator, as the globals before building the App.
// The returned App shuts the provider down once it finishes running so
// buffered spans are flushed.
func OTel[T TracerProviderInitializer](builder bundlebridge.AppBuilder[T]) bundlebridge.AppBuilder[T] {
	return bundlebridge.AppBuilderFunc[T](func(ctx context.Context, cfg T) (bundlebridge.App, error) {
		tp, err := cfg.InitTracerProvider(ctx)
		if err != nil {
			return nil, err
		}
		if tp != nil {
			otel.SetTracerProvider(tp)
		}
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

		base, err := builder.Build(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return app.WithLifecycleHooks(base, app.Lifecycle{
			PostRun: app.LifecycleHookFunc(func(ctx context.Context) error {
				stp, ok := tp.(interface {
					Shutdown(context.Context) error
				})
				if !ok {
					return nil
				}
				return stp.Shutdown(context.Background())
			}),
		}), nil
	})
}
