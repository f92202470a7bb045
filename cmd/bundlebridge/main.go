// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command bundlebridge installs local OSGi bundles into a remote framework
// which can only fetch bundles by URL.
package main

import (
	"context"
	"os"

	"github.com/z5labs/bundlebridge"
	"github.com/z5labs/bundlebridge/pkg/appbuilder"

	"github.com/spf13/cobra"
)

func main() {
	err := newRootCommand().ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "bundlebridge",
		Short:        "Bridge local bundle archives to a remote OSGi framework",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "yaml config file overriding the defaults")

	run := func(cmd *cobra.Command, builder bundlebridge.AppBuilderFunc[Config]) error {
		return bundlebridge.Run(
			cmd.Context(),
			appbuilder.Recover(appbuilder.OTel[Config](builder)),
			configSources(configPath)...,
		)
	}

	cmd.AddCommand(
		newServeCommand(run),
		newInstallCommand(run),
		newUninstallCommand(run),
	)
	return cmd
}

type runFunc func(*cobra.Command, bundlebridge.AppBuilderFunc[Config]) error
