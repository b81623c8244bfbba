// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	initRunOpts   common.RunOptions
	flagModule    string
	flagForceInit bool

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Set up a migrations directory",
		Long: "Write the registry file, a first migration unit and a README into the migrations directory. " +
			"With --module a go.mod is created when the directory is not inside a Go module yet.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := common.NewMigrationRun()
			report, err := common.RunWorkflow(cmd.Context(), run, workflows.InitMigrationsWorkflow(run, workflows.InitOptions{
				ModulePath: flagModule,
				Force:      flagForceInit,
			}), initRunOpts)
			common.CheckWorkflowErr(cmd.Context(), report, err)

			cmd.Printf("Initialized migrations in %s\n", run.UnitsDir())
			cmd.Printf("  registry: %s\n", run.RegistryPath)
			for _, id := range run.Identifiers() {
				cmd.Printf("  unit:     %s\n", id)
			}
			return nil
		},
	}
)

func init() {
	common.FlagModule.SetVar(initCmd, &flagModule, false)
	common.FlagForce.SetVar(initCmd, &flagForceInit, false)
	common.AddRunFlags(initCmd, &initRunOpts)
}
