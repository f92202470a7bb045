// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/z5labs/bundlebridge"
	"github.com/z5labs/bundlebridge/bridge"
	"github.com/z5labs/bundlebridge/pkg/app"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve FILE...",
		Short: "Serve local files over an ephemeral bridge until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, cfg Config) (bundlebridge.App, error) {
				srcs, err := fileSources(ctx, args)
				if err != nil {
					return nil, err
				}

				addr, err := bindAddr(cfg)
				if err != nil {
					return nil, err
				}

				opts := []bridge.Option{bridge.LogHandler(logHandler(cfg))}
				if cfg.Bridge.Advertise != "" {
					opts = append(opts, bridge.Hostname(cfg.Bridge.Advertise))
				}
				srv, err := bridge.New(addr, cfg.Bridge.Port, opts...)
				if err != nil {
					return nil, err
				}

				urls := make([]*url.URL, len(srcs))
				for i, src := range srcs {
					urls[i] = srv.Register(src)
				}

				serve := bundlebridge.AppFunc(func(ctx context.Context) error {
					defer srv.Shutdown()

					srv.Start()
					for _, u := range urls {
						fmt.Fprintln(cmd.OutOrStdout(), u)
					}

					<-ctx.Done()
					return nil
				})
				return app.WithSignalNotifications(serve, os.Interrupt), nil
			})
		},
	}
}

// fileSources checks that every path can be read before anything is
// served, so a typo fails the command instead of producing a 500 later.
func fileSources(ctx context.Context, paths []string) ([]bridge.Source, error) {
	srcs := make([]bridge.Source, len(paths))

	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			src, err := fileSource(path)
			if err != nil {
				return err
			}
			srcs[i] = src
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return srcs, nil
}

func fileSource(path string) (bridge.Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	f.Close()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, NotAFileError{Path: path}
	}

	dir, name := filepath.Split(abs)
	return bridge.File(os.DirFS(dir), name), nil
}

// NotAFileError is returned when a path to serve names a directory.
type NotAFileError struct {
	Path string
}

// Error implements the [builtin.error] interface.
func (e NotAFileError) Error() string {
	return "not a regular file: " + e.Path
}
