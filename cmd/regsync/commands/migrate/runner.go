// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/exc"
	"github.com/hashgraph/regsync/internal/nio"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/spf13/cobra"
)

var runnerShort = map[string]string{
	exc.Up:      "Apply pending migrations",
	exc.Down:    "Roll back applied migrations",
	exc.Fresh:   "Drop all tables and apply every migration",
	exc.Refresh: "Roll back every migration and apply them again",
	exc.Reset:   "Roll back every applied migration",
	exc.Status:  "Show which migrations are applied",
}

// runnerCmds returns one command per migrator subcommand. Each runs the configured migrator program in the
// migrations directory and streams its output.
func runnerCmds() []*cobra.Command {
	var cmds []*cobra.Command
	for _, sub := range []string{exc.Up, exc.Down, exc.Fresh, exc.Refresh, exc.Reset, exc.Status} {
		cmds = append(cmds, newRunnerCmd(sub))
	}
	return cmds
}

func newRunnerCmd(sub string) *cobra.Command {
	req := exc.RunnerRequest{Subcommand: sub}

	cmd := &cobra.Command{
		Use:   sub,
		Short: runnerShort[sub],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			streams := nio.StdStreams{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), ErrOut: cmd.ErrOrStderr()}
			dir := registry.ResolveDir(config.Get().Migrate.Dir)
			return exc.RunMigrator(cmd.Context(), config.Get().Runner, dir, req, streams, *logx.As())
		},
	}

	if sub == exc.Up || sub == exc.Down {
		common.FlagNum.SetVar(cmd, &req.Num, false)
	}
	common.FlagVerbose.SetVar(cmd, &req.Verbose, false)

	return cmd
}
