// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"
	"fmt"
	"time"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/regsync/internal/doctor"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	FlagConfig = FlagDefinition[string]{
		Name:        "config",
		ShortName:   "c",
		Description: "Config file path",
		Default:     "",
	}

	FlagOutput = FlagDefinition[string]{
		Name:        "output",
		ShortName:   "o",
		Description: "Output format (yaml|json|toml); list also supports table",
		Default:     "",
	}

	FlagDir = FlagDefinition[string]{
		Name:        "dir",
		ShortName:   "d",
		Description: "Migration directory; its src/ subdirectory is used when present",
		Default:     "",
	}

	FlagReceiver = FlagDefinition[string]{
		Name:        "receiver",
		ShortName:   "",
		Description: "Receiver type of the enumeration method (empty in the config matches any receiver)",
		Default:     "",
	}

	FlagMethod = FlagDefinition[string]{
		Name:        "method",
		ShortName:   "",
		Description: "Name of the enumeration method",
		Default:     "",
	}

	FlagLockTimeout = FlagDefinition[time.Duration]{
		Name:        "lock-timeout",
		ShortName:   "",
		Description: "How long to wait for the registry lock",
		Default:     0,
	}

	FlagStopOnError = FlagDefinition[bool]{
		Name:        "stop-on-error",
		ShortName:   "",
		Description: "Stop at the first failed step and keep what was written (default behaviour)",
		Default:     false,
	}

	FlagRollbackOnError = FlagDefinition[bool]{
		Name:        "rollback-on-error",
		ShortName:   "",
		Description: "Remove the files written by earlier steps when a step fails",
		Default:     false,
	}

	FlagReport = FlagDefinition[string]{
		Name:        "report",
		ShortName:   "",
		Description: "Write the workflow report as YAML to this file",
		Default:     "",
	}

	FlagDryRun = FlagDefinition[bool]{
		Name:        "dry-run",
		ShortName:   "",
		Description: "Print the rewritten registry instead of writing any file",
		Default:     false,
	}

	FlagUTC = FlagDefinition[bool]{
		Name:        "universal-time",
		ShortName:   "u",
		Description: "Stamp the identifier in UTC",
		Default:     false,
	}

	FlagLocalTime = FlagDefinition[bool]{
		Name:        "local-time",
		ShortName:   "",
		Description: "Stamp the identifier in local time",
		Default:     false,
	}

	FlagWatch = FlagDefinition[bool]{
		Name:        "watch",
		ShortName:   "w",
		Description: "Keep running and register unit directories as they appear",
		Default:     false,
	}

	FlagNum = FlagDefinition[int]{
		Name:        "num",
		ShortName:   "n",
		Description: "Number of migrations to apply or roll back (0 means all)",
		Default:     0,
	}

	FlagVerbose = FlagDefinition[bool]{
		Name:        "verbose",
		ShortName:   "",
		Description: "Ask the migrator for verbose output",
		Default:     false,
	}

	FlagModule = FlagDefinition[string]{
		Name:        "module",
		ShortName:   "m",
		Description: "Module path of a go.mod to create when the directory is not inside a Go module",
		Default:     "",
	}

	FlagYes = FlagDefinition[bool]{
		Name:        "yes",
		ShortName:   "y",
		Description: "Do not ask for confirmation",
		Default:     false,
	}

	FlagForce = FlagDefinition[bool]{
		Name:        "force",
		ShortName:   "f",
		Description: "Overwrite an existing registry file",
		Default:     false,
	}
)

// FlagDefinition defines a command-line flag typed by T.
type FlagDefinition[T any] struct {
	Name        string
	ShortName   string
	Description string
	Default     T
}

func (fp *FlagDefinition[T]) valueFrom(flags *pflag.FlagSet) (T, error) {
	var zero T
	var v any
	var err error

	switch any(zero).(type) {
	case string:
		v, err = flags.GetString(fp.Name)
	case bool:
		v, err = flags.GetBool(fp.Name)
	case int:
		v, err = flags.GetInt(fp.Name)
	case []string:
		v, err = flags.GetStringSlice(fp.Name)
	case time.Duration:
		v, err = flags.GetDuration(fp.Name)
	default:
		return zero, errorx.IllegalArgument.New("unsupported flag type: %T", zero)
	}

	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Value extracts the flag value (from the full flag set: persistent, non-persistent or from parent) of the provided cobra command.
func (fp *FlagDefinition[T]) Value(cmd *cobra.Command, args []string) (T, error) {
	if args == nil {
		args = []string{}
	}

	// parse so that values inherited from parent commands are visible
	if err := cmd.ParseFlags(args); err != nil {
		var zero T
		return zero, errorx.InternalError.Wrap(err, "failed to parse flags for command %s", cmd.Name())
	}

	return fp.valueFrom(cmd.Flags())
}

// Changed reports whether the flag was set on the command line.
func (fp *FlagDefinition[T]) Changed(cmd *cobra.Command) bool {
	f := cmd.Flags().Lookup(fp.Name)
	return f != nil && f.Changed
}

// SetVarP sets up the persistent flag and exits on error.
func (fp *FlagDefinition[T]) SetVarP(cmd *cobra.Command, p *T, required bool) {
	if err := fp.varP(cmd, p, required); err != nil {
		doctor.CheckErr(context.Background(), err, fmt.Sprintf("failed to set flag %s", fp.Name))
	}
}

// SetVar sets up the non-persistent flag and exits on error.
func (fp *FlagDefinition[T]) SetVar(cmd *cobra.Command, p *T, required bool) {
	if err := fp.varNP(cmd, p, required); err != nil {
		doctor.CheckErr(context.Background(), err, fmt.Sprintf("failed to set flag %s", fp.Name))
	}
}

func (fp *FlagDefinition[T]) varP(cmd *cobra.Command, p *T, required bool) error {
	if cmd == nil {
		return errorx.IllegalArgument.New("command for flag %s is nil", fp.Name)
	}
	if err := fp.setFlagVar(cmd.PersistentFlags(), p); err != nil {
		return err
	}

	if required {
		if err := cmd.MarkPersistentFlagRequired(fp.Name); err != nil {
			return errorx.InternalError.Wrap(err, "failed to mark persistent flag %s as required", fp.Name)
		}
	}
	return nil
}

func (fp *FlagDefinition[T]) varNP(cmd *cobra.Command, p *T, required bool) error {
	if cmd == nil {
		return errorx.IllegalArgument.New("command for flag %s is nil", fp.Name)
	}
	if err := fp.setFlagVar(cmd.Flags(), p); err != nil {
		return err
	}

	if required {
		if err := cmd.MarkFlagRequired(fp.Name); err != nil {
			return errorx.InternalError.Wrap(err, "failed to mark flag %s as required", fp.Name)
		}
	}
	return nil
}

func (fp *FlagDefinition[T]) setFlagVar(flags *pflag.FlagSet, p *T) error {
	if p == nil {
		return errorx.IllegalArgument.New("pointer for flag %s is nil", fp.Name)
	}

	switch ptr := any(p).(type) {
	case *string:
		flags.StringVarP(ptr, fp.Name, fp.ShortName, any(fp.Default).(string), fp.Description)
	case *bool:
		flags.BoolVarP(ptr, fp.Name, fp.ShortName, any(fp.Default).(bool), fp.Description)
	case *int:
		flags.IntVarP(ptr, fp.Name, fp.ShortName, any(fp.Default).(int), fp.Description)
	case *[]string:
		flags.StringSliceVarP(ptr, fp.Name, fp.ShortName, any(fp.Default).([]string), fp.Description)
	case *time.Duration:
		flags.DurationVarP(ptr, fp.Name, fp.ShortName, any(fp.Default).(time.Duration), fp.Description)
	default:
		return errorx.IllegalArgument.New("unsupported flag type %T for flag %s", p, fp.Name)
	}

	return nil
}

// GetExecutionMode maps the error handling flags to a workflow execution mode. Registry workflows never continue
// past a failed step, so the choice is between stopping and rolling back.
func GetExecutionMode(stopOnErr bool, rollbackOnErr bool) (automa.TypeMode, error) {
	if stopOnErr && rollbackOnErr {
		return automa.StopOnError, errorx.IllegalArgument.New("only one of execution mode can be set; "+
			"found stop-on-error: %t, rollback-on-error: %t", stopOnErr, rollbackOnErr)
	}

	if rollbackOnErr {
		return automa.RollbackOnError, nil
	}
	return automa.StopOnError, nil
}
