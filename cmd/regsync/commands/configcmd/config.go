// SPDX-License-Identifier: Apache-2.0

package configcmd

import (
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/version"
	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		RunE:  common.DefaultRunE,
	}

	showCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: "Print the configuration after the config file and REGSYNC_* environment variables are applied. " +
			"The output can be saved and passed back with --config.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := common.FlagOutput.Value(cmd, nil)
			if err != nil {
				return err
			}
			if format == "" {
				format = version.FormatYAML
			}

			out, err := version.Encode(config.Get(), format)
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(showCmd)
}

func GetCmd() *cobra.Command {
	return configCmd
}
