// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/workflows"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

var (
	restoreRunOpts common.RunOptions
	flagYes        bool

	// confirm asks the user before the registry is overwritten; tests replace it
	confirm = func(title string) (bool, error) {
		ok := false
		err := huh.NewConfirm().
			Title(title).
			Affirmative("Restore").
			Negative("Cancel").
			Value(&ok).
			Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return ok, err
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Put the registry backup back in place",
		Long:  "Replace the registry file with the backup written by the last generate or sync.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := common.NewMigrationRun()

			if !flagYes {
				ok, err := confirm(fmt.Sprintf("Replace %s with %s?", run.RegistryPath, run.BackupPath()))
				if err != nil {
					return errorx.IllegalState.Wrap(err, "cannot ask for confirmation, use --%s", common.FlagYes.Name)
				}
				if !ok {
					cmd.Println("Restore cancelled")
					return nil
				}
			}

			report, err := common.RunWorkflow(cmd.Context(), run, workflows.RestoreRegistryWorkflow(run), restoreRunOpts)
			common.CheckWorkflowErr(cmd.Context(), report, err)

			cmd.Printf("Restored %s from %s\n", run.RegistryPath, run.BackupPath())
			return nil
		},
	}

	cleanRunOpts common.RunOptions

	cleanCmd = &cobra.Command{
		Use:   "clean",
		Short: "Delete the registry backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := common.NewMigrationRun()
			report, err := common.RunWorkflow(cmd.Context(), run, workflows.CleanBackupWorkflow(run), cleanRunOpts)
			common.CheckWorkflowErr(cmd.Context(), report, err)

			cmd.Printf("Removed backups of %s\n", run.RegistryPath)
			return nil
		},
	}
)

func init() {
	common.FlagYes.SetVar(restoreCmd, &flagYes, false)
	common.AddRunFlags(restoreCmd, &restoreRunOpts)
	common.AddRunFlags(cleanCmd, &cleanRunOpts)
}
