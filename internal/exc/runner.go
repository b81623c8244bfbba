// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"context"
	"os/exec"
	"slices"
	"strconv"

	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/nio"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

// Runner subcommands understood by the migrator program.
const (
	Up      = "up"
	Down    = "down"
	Fresh   = "fresh"
	Refresh = "refresh"
	Reset   = "reset"
	Status  = "status"
)

var runnerSubcommands = []string{Up, Down, Fresh, Refresh, Reset, Status}

// RunnerRequest describes one invocation of the migrator program.
type RunnerRequest struct {
	Subcommand string
	// Num limits up and down to the first Num pending or last Num applied migrations. Zero means all.
	Num     int
	Verbose bool
}

// Validate rejects unknown subcommands and step counts on subcommands that take none.
func (r RunnerRequest) Validate() error {
	if !slices.Contains(runnerSubcommands, r.Subcommand) {
		return errorx.IllegalArgument.New("unknown migrator subcommand %q, expected one of %v", r.Subcommand, runnerSubcommands)
	}
	if r.Num < 0 {
		return errorx.IllegalArgument.New("number of migrations cannot be negative, got %d", r.Num)
	}
	if r.Num > 0 && r.Subcommand != Up && r.Subcommand != Down {
		return errorx.IllegalArgument.New("-n is only supported by %s and %s", Up, Down)
	}
	return nil
}

// Args returns the arguments passed to the runner command: `run <package> <subcommand> [-n N] [-v]`.
func (r RunnerRequest) Args(rc config.RunnerConfig) []string {
	args := []string{"run", rc.Package, r.Subcommand}
	if r.Num > 0 {
		args = append(args, "-n", strconv.Itoa(r.Num))
	}
	if r.Verbose {
		args = append(args, "-v")
	}
	return args
}

// NewRunnerCmd builds the command that runs the migrator program inside dir.
func NewRunnerCmd(rc config.RunnerConfig, dir string, req RunnerRequest, streams nio.StdStreams) (*exec.Cmd, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	cmd := exec.Command(rc.Command, req.Args(rc)...)
	cmd.Dir = dir
	cmd.Stdin = streams.In
	cmd.Stdout = streams.Out
	cmd.Stderr = streams.ErrOut

	return cmd, nil
}

// RunMigrator runs the migrator program and waits for it, killing it when ctx is done or rc.Timeout elapses.
func RunMigrator(ctx context.Context, rc config.RunnerConfig, dir string, req RunnerRequest, streams nio.StdStreams, logger zerolog.Logger) error {
	cmd, err := NewRunnerCmd(rc, dir, req, streams)
	if err != nil {
		return err
	}

	if rc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.Timeout)
		defer cancel()
	}

	logger.Info().Str("cmd", cmd.String()).Str("dir", dir).Msg("Running migrator")
	return NewCmdExecution(cmd, logger).RunCmd(ctx)
}
