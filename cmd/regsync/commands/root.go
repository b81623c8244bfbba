// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/cmd/regsync/commands/configcmd"
	"github.com/hashgraph/regsync/cmd/regsync/commands/migrate"
	"github.com/hashgraph/regsync/cmd/regsync/commands/version"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/doctor"
	"github.com/hashgraph/regsync/internal/nio"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// examples:
// ./regsync migrate init --dir ./migration --module example.com/app
// ./regsync migrate generate create_users
// ./regsync migrate sync --watch
// ./regsync migrate up -n 1 --config ./regsync.yaml

// rootCmd represents the base command when called without any subcommands
var (
	// Used for flags.
	flagConfig       string
	flagVersion      bool
	flagOutputFormat string

	rootCmd = &cobra.Command{
		Use:   "regsync",
		Short: "Keep a Go migration registry in sync with its migration units",
		Long:  "regsync - generate migration units and keep the registry file that enumerates them up to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagVersion {
				version.PrintVersion(cmd, flagOutputFormat)
				return nil
			}

			return cmd.Help()
		},
	}
)

func init() {
	common.FlagConfig.SetVarP(rootCmd, &flagConfig, false)
	common.FlagOutput.SetVarP(rootCmd, &flagOutputFormat, false)

	// support '--version', '-v' to show version information
	rootCmd.PersistentFlags().BoolVarP(&flagVersion, "version", "v", false, "Show version")

	// disable command sorting to keep the order of commands as added
	cobra.EnableCommandSorting = false

	// add subcommands
	rootCmd.AddCommand(migrate.GetCmd())
	rootCmd.AddCommand(configcmd.GetCmd())
	rootCmd.AddCommand(version.GetCmd())
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errorx.IllegalArgument.New("context is required")
	}

	cobra.OnInitialize(func() {
		initConfig(ctx)
	})

	streams := nio.OSStreams()
	rootCmd.SetIn(streams.In)
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.ErrOut)

	// execute the root command
	_, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		// decorate only, so the diagnosis still sees the original error type
		return errorx.Decorate(err, "failed to execute command")
	}

	return nil
}

func initConfig(ctx context.Context) {
	var err error
	err = config.Initialize(flagConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	logConfig := config.Get().Log
	err = logx.Initialize(logConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}
}
