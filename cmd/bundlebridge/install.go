// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/z5labs/bundlebridge"
	"github.com/z5labs/bundlebridge/deploy"

	"github.com/spf13/cobra"
)

func newInstallCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "install FILE",
		Short: "Install a bundle archive into the remote framework",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, cfg Config) (bundlebridge.App, error) {
				src, err := fileSource(args[0])
				if err != nil {
					return nil, err
				}
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return nil, err
				}

				h := logHandler(cfg)
				facade := newFacade(cfg, h)

				direct := &deploy.Direct{
					Facade:     facade,
					LogHandler: h,
				}
				bridged := &deploy.Bridged{
					Facade:     facade,
					Port:       cfg.Bridge.Port,
					Advertise:  cfg.Bridge.Advertise,
					LogHandler: h,
				}
				if cfg.Bridge.Address != "" {
					bridged.BindAddr, err = bindAddr(cfg)
					if err != nil {
						return nil, err
					}
				}
				d := deploy.Select(cfg.Enabled, bridged, direct)

				artifact := deploy.Artifact{
					Name:     filepath.Base(abs),
					Source:   src,
					Location: (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
				}

				return bundlebridge.AppFunc(func(ctx context.Context) error {
					bh, err := d.Deploy(ctx, artifact)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), bh.ID, bh.SymbolicName, bh.Version)
					return err
				}), nil
			})
		},
	}
}

func newUninstallCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall ID",
		Short: "Uninstall a bundle from the remote framework unless it is already gone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}

			return run(cmd, func(ctx context.Context, cfg Config) (bundlebridge.App, error) {
				facade := newFacade(cfg, logHandler(cfg))

				return bundlebridge.AppFunc(func(ctx context.Context) error {
					return deploy.Uninstall(ctx, facade, deploy.BundleHandle{ID: id})
				}), nil
			})
		},
	}
}
