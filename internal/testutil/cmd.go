// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// PrepareSubCmdForTest creates a root command with the given subcommand added.
// Use this from tests in other packages to avoid duplicating the helper.
func PrepareSubCmdForTest(sub *cobra.Command) *cobra.Command {
	// create an explicit root so test-runner args aren't treated as subcommands
	root := &cobra.Command{Use: "root"}
	root.AddCommand(sub)
	return root
}

// ExecuteCmd runs root with args and returns what the commands printed.
func ExecuteCmd(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// ResetFlags restores the default value of every flag of cmd and its subcommands. Commands are package variables,
// so values set by one test would otherwise leak into the next.
func ResetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}

	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		ResetFlags(sub)
	}
}
