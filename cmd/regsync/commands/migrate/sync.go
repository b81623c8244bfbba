// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/doctor"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/watcher"
	"github.com/hashgraph/regsync/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	syncRunOpts    common.RunOptions
	flagWatch      bool
	flagSyncDryRun bool

	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Register the migration units missing from the registry",
		Long: "Add an import and an enumeration entry for every unit directory the registry does not declare yet. " +
			"With --watch the command keeps running and syncs whenever a unit directory appears.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := syncOnce(cmd)
			common.CheckWorkflowErr(cmd.Context(), report, err)
			if !flagWatch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watcher.New(config.Get().Migrate.Dir,
				func(ctx context.Context, added []registry.Identifier) {
					logx.As().Info().Strs("units", identifiers(added)).Msg("Syncing new migration units")
					// a failed sync is reported and the next change is retried
					if report, err := syncOnce(cmd); err != nil {
						doctor.Print(cmd.ErrOrStderr(), doctor.Diagnose(ctx, err), doctor.GetInstructionsFromReport(report))
					}
				},
				watcher.WithDebounce(config.Get().Migrate.WatchDebounce),
				watcher.WithLogger(logx.As()),
			)
			return w.Run(ctx)
		},
	}
)

func init() {
	common.FlagWatch.SetVar(syncCmd, &flagWatch, false)
	common.FlagDryRun.SetVar(syncCmd, &flagSyncDryRun, false)
	common.AddRunFlags(syncCmd, &syncRunOpts)
}

// syncOnce runs the sync workflow with a fresh run and prints what changed.
func syncOnce(cmd *cobra.Command) (*automa.Report, error) {
	run := common.NewMigrationRun()
	run.DryRun = flagSyncDryRun
	report, err := common.RunWorkflow(cmd.Context(), run, workflows.SyncMigrationsWorkflow(run), syncRunOpts)
	if err != nil {
		return report, err
	}

	if run.DryRun {
		cmd.Print(string(run.Rendered))
		return report, nil
	}

	for _, id := range run.Identifiers() {
		cmd.Printf("Registered %s\n", id)
	}
	if run.Result != nil && !run.Result.Changed {
		cmd.Printf("%s is up to date\n", run.RegistryPath)
	}
	return report, nil
}

func identifiers(ids []registry.Identifier) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
