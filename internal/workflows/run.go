// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/internal/workflows/notify"
	"github.com/hashgraph/regsync/internal/workflows/steps"
	"github.com/joomcode/errorx"
)

// RunMigrationWorkflow builds and executes wb, then releases the registry lock of run whatever the outcome. The
// returned error is the one of the first failed step, so that its errorx type and properties reach the caller
// undecorated.
func RunMigrationWorkflow(ctx context.Context, run *steps.MigrationRun, wb *automa.WorkflowBuilder) (*automa.Report, error) {
	if run == nil || wb == nil {
		return nil, errorx.IllegalArgument.New("run and workflow builder are required")
	}

	wf, err := wb.Build()
	if err != nil {
		return nil, errorx.IllegalState.Wrap(err, "failed to build workflow")
	}

	defer func() {
		if err := run.Release(); err != nil {
			logx.As().Warn().Err(err).Str("registry", run.RegistryPath).Msg("Failed to release registry lock")
		}
	}()

	report := wf.Execute(ctx)
	if report == nil {
		return nil, errorx.IllegalState.New("workflow returned no report")
	}

	if report.Status == automa.StatusFailed || report.Error != nil {
		if first := notify.FirstFailure(report); first != nil && first.Error != nil {
			return report, first.Error
		}
		if report.Error != nil {
			return report, report.Error
		}
		return report, errorx.IllegalState.New("workflow %s failed", report.Id)
	}

	return report, nil
}
