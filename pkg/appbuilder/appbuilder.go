// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package appbuilder provides decorators for [bundlebridge.AppBuilder]s.
package appbuilder

import (
	"context"

	"github.com/z5labs/bundlebridge"
	"github.com/z5labs/bundlebridge/internal/try"
)

// Recover will wrap the give [bundlebridge.AppBuilder] with panic recovery.
// A recovered panic is returned as a [try.PanicError].
func Recover[T any](builder bundlebridge.AppBuilder[T]) bundlebridge.AppBuilder[T] {
	return bundlebridge.AppBuilderFunc[T](func(ctx context.Context, cfg T) (_ bundlebridge.App, err error) {
		defer try.Recover(&err)

		return builder.Build(ctx, cfg)
	})
}
