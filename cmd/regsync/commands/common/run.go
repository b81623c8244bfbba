// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/doctor"
	"github.com/hashgraph/regsync/internal/workflows"
	"github.com/hashgraph/regsync/internal/workflows/steps"
	"github.com/spf13/cobra"
)

// RunOptions are the flags every registry workflow command shares.
type RunOptions struct {
	StopOnError     bool
	RollbackOnError bool
	ReportPath      string
}

// NewMigrationRun creates a run against the configured migration directory.
func NewMigrationRun() *steps.MigrationRun {
	cfg := config.Get().Migrate
	return steps.NewMigrationRun(cfg.Dir, cfg.RegistryOptions(logx.As()))
}

// RunWorkflow executes a registry workflow and returns the error of its first failed step. The report is written to
// opts.ReportPath when set.
func RunWorkflow(ctx context.Context, run *steps.MigrationRun, wb *automa.WorkflowBuilder, opts RunOptions) (*automa.Report, error) {
	mode, err := GetExecutionMode(opts.StopOnError, opts.RollbackOnError)
	if err != nil {
		return nil, err
	}

	report, err := workflows.RunMigrationWorkflow(ctx, run, wb.WithExecutionMode(mode))
	if report != nil && opts.ReportPath != "" {
		steps.PrintWorkflowReport(report, opts.ReportPath)
		logx.As().Info().Str("report_path", opts.ReportPath).Msg("Workflow report is saved")
	}

	return report, err
}

// CheckWorkflowErr terminates the process with the diagnosis of err, including the instructions found in report.
func CheckWorkflowErr(ctx context.Context, report *automa.Report, err error) {
	if err == nil {
		return
	}
	doctor.CheckErr(ctx, err, doctor.GetInstructionsFromReport(report))
}

// AddRunFlags registers the flags of RunOptions on cmd.
func AddRunFlags(cmd *cobra.Command, opts *RunOptions) {
	FlagStopOnError.SetVar(cmd, &opts.StopOnError, false)
	FlagRollbackOnError.SetVar(cmd, &opts.RollbackOnError, false)
	FlagReport.SetVar(cmd, &opts.ReportPath, false)
}

// DefaultRunE is a default RunE function that shows help message.
// We always add a run function to commands to ensure cobra marks it as Runnable and allows our commands to invoke
// PersistentPreRunE functions of the root command.
func DefaultRunE(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
