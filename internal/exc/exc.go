// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"context"
	"os/exec"
	"sync"
	"syscall"

	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

var logFields = struct {
	execCmd string
	execDir string
	execPid string
}{
	execCmd: "exec_cmd",
	execDir: "exec_dir",
	execPid: "exec_pid",
}

// CmdExecution executes a command and manages its lifecycle
// It forcefully terminates the child process group if ctx.Done() signal is received
type CmdExecution struct {
	done     chan struct{}
	stopOnce sync.Once
	cmd      *exec.Cmd
	logger   *zerolog.Logger
}

func NewCmdExecution(cmd *exec.Cmd, logger zerolog.Logger) *CmdExecution {
	return &CmdExecution{
		done:   make(chan struct{}),
		cmd:    cmd,
		logger: &logger,
	}
}

// StopCmd stops monitoring the command. It is safe to call StopCmd multiple times.
func (sc *CmdExecution) StopCmd() {
	sc.stopOnce.Do(func() { close(sc.done) })
}

// RunCmd starts running the command while monitoring any ctx.Done() signal
func (sc *CmdExecution) RunCmd(ctx context.Context) error {
	if sc.cmd == nil {
		return errorx.IllegalArgument.New("command cannot be nil")
	}
	defer sc.StopCmd()

	sc.logger.Debug().
		Str(logFields.execCmd, sc.cmd.String()).
		Str(logFields.execDir, sc.cmd.Dir).
		Msg("Executing command")

	// the child gets its own process group so that a kill reaches the processes it spawns, e.g. `go run` builds
	sc.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := sc.cmd.Start(); err != nil {
		return errorx.ExternalError.Wrap(err, "failed to start %s", sc.cmd.String())
	}

	pid := sc.cmd.Process.Pid
	go func() {
		select {
		case <-ctx.Done():
			sc.logger.Debug().
				Str(logFields.execCmd, sc.cmd.String()).
				Int(logFields.execPid, pid).
				Msg("Force terminating command")

			if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
				sc.logger.Warn().
					Int(logFields.execPid, pid).
					Err(err).
					Msg("Error occurred while terminating the process")
			}
		case <-sc.done:
		}
	}()

	sc.logger.Debug().
		Str(logFields.execCmd, sc.cmd.String()).
		Int(logFields.execPid, pid).
		Msg("Waiting for command to finish execution")

	if err := sc.cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return errorx.Decorate(ctx.Err(), "command %s was terminated", sc.cmd.String())
		}
		return errorx.ExternalError.Wrap(err, "command %s failed", sc.cmd.String())
	}

	return nil
}
