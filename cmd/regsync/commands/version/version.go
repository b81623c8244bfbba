// SPDX-License-Identifier: Apache-2.0

package version

import (
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/doctor"
	"github.com/hashgraph/regsync/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Long:  "Show the current version of the application",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		format, err := common.FlagOutput.Value(cmd, nil)
		if err != nil {
			doctor.CheckErr(cmd.Context(), err)
		}
		PrintVersion(cmd, format)
	},
}

func GetCmd() *cobra.Command {
	return versionCmd
}

// PrintVersion prints the build information in format, yaml when format is empty.
func PrintVersion(cmd *cobra.Command, format string) {
	if format == "" {
		format = version.FormatYAML
	}

	output, err := version.Get().Format(format)
	if err != nil {
		doctor.CheckErr(cmd.Context(), err)
	}
	cmd.Print(output)
}
