// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"time"

	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

var (
	flagDir         string
	flagReceiver    string
	flagMethod      string
	flagLockTimeout time.Duration

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Keep a migration registry in sync with its migration units",
		Long: "Create migration units and keep the registry file that imports and enumerates them up to date. " +
			"The runner subcommands hand over to the migrator program of the module.",
		PersistentPreRunE: applyOverrides,
		RunE:              common.DefaultRunE, // ensure we have a default action to make it runnable
	}
)

func init() {
	common.FlagDir.SetVarP(migrateCmd, &flagDir, false)
	common.FlagReceiver.SetVarP(migrateCmd, &flagReceiver, false)
	common.FlagMethod.SetVarP(migrateCmd, &flagMethod, false)
	common.FlagLockTimeout.SetVarP(migrateCmd, &flagLockTimeout, false)

	migrateCmd.AddCommand(initCmd, generateCmd, syncCmd, listCmd, restoreCmd, cleanCmd)
	migrateCmd.AddCommand(runnerCmds()...)
}

func GetCmd() *cobra.Command {
	return migrateCmd
}

// applyOverrides folds the persistent flags into the loaded configuration and validates the result.
func applyOverrides(cmd *cobra.Command, args []string) error {
	config.OverrideMigrateConfig(config.MigrateConfig{
		Dir:         flagDir,
		Receiver:    flagReceiver,
		Method:      flagMethod,
		LockTimeout: flagLockTimeout,
	})

	if err := config.Get().Validate(); err != nil {
		return errorx.Decorate(err, "invalid configuration")
	}
	return nil
}
