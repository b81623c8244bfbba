// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/workflows"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

var (
	generateRunOpts common.RunOptions
	flagUTC         bool
	flagLocalTime   bool
	flagDryRun      bool

	// clock stamps new identifiers; tests replace it
	clock registry.Clock = registry.SystemClock{}

	generateCmd = &cobra.Command{
		Use:   "generate NAME",
		Short: "Create a migration unit and register it",
		Long: "Create the unit m<YYYYMMDD>_<HHMMSS>_NAME in the migrations directory, add its import to the registry " +
			"and regenerate the enumeration. The registry is checked before the unit is written.",
		Example: "  regsync migrate generate create_users\n  regsync migrate generate add_index --local-time --dry-run",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := registry.ValidateName(name); err != nil {
				return err
			}

			utc, err := resolveUTC(config.Get().Migrate.UTC)
			if err != nil {
				return err
			}

			run := common.NewMigrationRun()
			run.DryRun = flagDryRun
			report, err := common.RunWorkflow(cmd.Context(), run, workflows.GenerateMigrationWorkflow(run, workflows.GenerateOptions{
				Name:   name,
				Clock:  clock,
				UTC:    utc,
				Dedupe: config.Get().Migrate.Dedupe,
			}), generateRunOpts)
			common.CheckWorkflowErr(cmd.Context(), report, err)

			if run.DryRun {
				cmd.Print(string(run.Rendered))
				return nil
			}

			for _, u := range run.Units {
				cmd.Printf("Created migration %s\n", registry.UnitPath(run.Dir, u.Identifier))
			}
			if run.Result != nil && run.Result.BackupPath != "" {
				cmd.Printf("Updated %s (backup %s)\n", run.Result.Path, run.Result.BackupPath)
			}
			return nil
		},
	}
)

func init() {
	common.FlagUTC.SetVar(generateCmd, &flagUTC, false)
	common.FlagLocalTime.SetVar(generateCmd, &flagLocalTime, false)
	common.FlagDryRun.SetVar(generateCmd, &flagDryRun, false)
	common.AddRunFlags(generateCmd, &generateRunOpts)
}

// resolveUTC picks the time zone of the identifier: the flag when one is given, otherwise the configured default.
func resolveUTC(def bool) (bool, error) {
	switch {
	case flagUTC && flagLocalTime:
		return false, errorx.IllegalArgument.New("only one of --%s and --%s can be set",
			common.FlagUTC.Name, common.FlagLocalTime.Name)
	case flagUTC:
		return true, nil
	case flagLocalTime:
		return false, nil
	}
	return def, nil
}
