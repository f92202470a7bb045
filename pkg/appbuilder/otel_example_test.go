// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package appbuilder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/z5labs/bundlebridge"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type stdoutTraceConfig struct {
	buf bytes.Buffer
}

func (cfg *stdoutTraceConfig) InitTracerProvider(ctx context.Context) (trace.TracerProvider, error) {
	// NOTE: this is only for example purposes. DO NOT USE IN PRODUCTION!!!
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(&cfg.buf),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exp)),
	)
	return tp, nil
}

func ExampleOTel() {
	builder := bundlebridge.AppBuilderFunc[*stdoutTraceConfig](func(ctx context.Context, cfg *stdoutTraceConfig) (bundlebridge.App, error) {
		app := bundlebridge.AppFunc(func(ctx context.Context) error {
			_, span := otel.Tracer("app").Start(ctx, "run")
			defer span.End()
			return nil
		})
		return app, nil
	})

	cfg := &stdoutTraceConfig{}
	app, err := OTel[*stdoutTraceConfig](builder).Build(context.Background(), cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	// the provider is shut down, and the span flushed, once Run returns
	err = app.Run(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}

	var m map[string]any
	err = json.Unmarshal(cfg.buf.Bytes(), &m)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(m["Name"])
	// Output: run
}
