// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/version"
	"github.com/hashgraph/regsync/pkg/exit"
	"github.com/joomcode/errorx"
)

type traceIdKey struct{}

// TraceIdKey is the context key holding the trace id of a run.
var TraceIdKey = traceIdKey{}

type ErrorDiagnosis struct {
	Error      error     `yaml:"error" json:"error"`
	Message    string    `yaml:"message" json:"message"`
	Cause      string    `yaml:"cause" json:"cause"`
	ErrorType  string    `yaml:"errorType" json:"errorType"`
	Path       string    `yaml:"path" json:"path"`
	Stage      string    `yaml:"stage" json:"stage"`
	TraceId    string    `yaml:"traceId" json:"traceId"`
	Commit     string    `yaml:"commit" json:"commit"`
	Version    string    `yaml:"version" json:"version"`
	Pid        int       `yaml:"pid" json:"pid"`
	Code       exit.Code `yaml:"code" json:"code"`
	Logfile    string    `yaml:"log" json:"log"`
	Resolution []string  `yaml:"steps" json:"steps"`
}

// toExitCode maps an error to the sysexits code the process terminates with.
func toExitCode(err error) exit.Code {
	switch {
	case errorx.IsOfType(err, registry.ParseError), errorx.IsOfType(err, registry.StructureError):
		return exit.DataFormatError
	case errorx.IsOfType(err, registry.IoError):
		return exit.InputOutputError
	case errorx.IsOfType(err, registry.FormatError):
		return exit.InternalError
	case errorx.IsOfType(err, config.NotFoundError):
		return exit.ConfigurationError
	case errorx.IsOfType(err, errorx.IllegalArgument):
		return exit.UsageError
	case errorx.IsOfType(err, errorx.IllegalFormat):
		return exit.DataFormatError
	default:
		if errorx.HasTrait(err, errorx.NotFound()) {
			return exit.MissingInputError
		}
		return exit.GeneralError
	}
}

func toErrorMessage(err error) (string, string) {
	e := errorx.Cast(err)
	if e == nil {
		return err.Error(), ""
	}

	if e.Cause() == nil {
		return e.Message(), ""
	}
	return e.Message(), fmt.Sprintf("%s", e.Cause())
}

func stringProperty(err error, p errorx.Property) string {
	if v, ok := errorx.ExtractProperty(err, p); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func findResolution(err error) []string {
	path := stringProperty(err, registry.PathProperty)
	switch {
	case errorx.IsOfType(err, registry.ParseError):
		return []string{
			fmt.Sprintf("Fix the syntax error in %q; the file was not modified.", path),
			"Run `gofmt -l` on the file to see the exact location.",
		}
	case errorx.IsOfType(err, registry.StructureError):
		return []string{
			fmt.Sprintf("Ensure %q declares exactly one enumeration method returning a slice.", path),
			"Check migrate.receiver and migrate.method in the configuration.",
		}
	case errorx.IsOfType(err, registry.FormatError):
		return []string{
			fmt.Sprintf("The rewritten registry failed verification; %q was not replaced.", path),
			"Report the registry file content together with this trace id.",
		}
	case errorx.IsOfType(err, registry.IoError):
		switch stringProperty(err, registry.StageProperty) {
		case registry.StageLock:
			return []string{"Another regsync run holds the registry lock. Wait for it or raise migrate.lockTimeout."}
		case registry.StageWrite:
			return []string{fmt.Sprintf("Restore the previous registry with `regsync migrate restore` if %q is damaged.", path)}
		}
		return []string{fmt.Sprintf("Ensure %q exists and is readable and writable.", path)}
	case errorx.IsOfType(err, errorx.IllegalArgument):
		if arg, ok := errorx.ExtractProperty(err, errorx.PropertyPayload()); ok {
			return []string{fmt.Sprintf("Ensure %q is provided.", arg)}
		}
		return []string{"Ensure all required arguments are provided."}
	case errorx.IsOfType(err, errorx.IllegalFormat):
		return []string{"Ensure provided data is in correct format."}
	case errorx.IsOfType(err, config.NotFoundError):
		if arg, ok := errorx.ExtractProperty(err, errorx.PropertyPayload()); ok {
			return []string{fmt.Sprintf("Ensure configuration file %q exists, is correctly formatted and accessible", arg)}
		}
		return []string{"Ensure configuration file exists and is accessible."}
	default:
		return []string{"Check error message for details or contact support"}
	}
}

// Diagnose attempts to find a resolution and provide a human friendly error response
func Diagnose(ctx context.Context, ex error) *ErrorDiagnosis {
	traceId, _ := ctx.Value(TraceIdKey).(string)

	msg, cause := toErrorMessage(ex)
	return &ErrorDiagnosis{
		Error:      ex,
		ErrorType:  errorx.GetTypeName(ex),
		Message:    msg,
		Cause:      cause,
		Path:       stringProperty(ex, registry.PathProperty),
		Stage:      stringProperty(ex, registry.StageProperty),
		TraceId:    traceId,
		Code:       toExitCode(ex),
		Commit:     version.Commit(),
		Version:    version.Number(),
		Pid:        os.Getpid(),
		Logfile:    config.Get().Log.Filename,
		Resolution: findResolution(ex),
	}
}

// Print writes the diagnosis to w. Optional instructions are printed before the default resolution steps.
func Print(w io.Writer, resp *ErrorDiagnosis, instructions ...string) {
	var buf bytes.Buffer
	printDiagnosis(&buf, resp, instructions...)
	_, _ = io.WriteString(w, styled(w, buf.String()))
}

func printDiagnosis(w io.Writer, resp *ErrorDiagnosis, instructions ...string) {
	_, _ = fmt.Fprintf(w, "\n%s%s************************************** Error Diagnostics ******************************************%s\n", Bold, Red, Reset)
	_, _ = fmt.Fprintf(w, "%s*%s\t%sError:%s %s\n", Red, Reset, Bold+White, Reset, resp.Message)
	if resp.Cause != "" {
		_, _ = fmt.Fprintf(w, "%s*%s\t%sCause:%s %s\n", Red, Reset, Bold+White, Reset, resp.Cause)
	}
	_, _ = fmt.Fprintf(w, "%s*%s\t%sError Type:%s %s\n", Red, Reset, Bold+White, Reset, resp.ErrorType)
	_, _ = fmt.Fprintf(w, "%s*%s\t%sExit Code:%s %d\n", Red, Reset, Bold+White, Reset, resp.Code)
	if resp.Path != "" {
		_, _ = fmt.Fprintf(w, "%s*%s\t%sFile:%s %s\n", Red, Reset, Cyan, Reset, resp.Path)
	}
	if resp.Stage != "" {
		_, _ = fmt.Fprintf(w, "%s*%s\t%sStage:%s %s\n", Red, Reset, Cyan, Reset, resp.Stage)
	}
	_, _ = fmt.Fprintf(w, "%s*%s\t%sCommit:%s %s\n", Red, Reset, Gray, Reset, resp.Commit)
	_, _ = fmt.Fprintf(w, "%s*%s\t%sPid:%s %d\n", Red, Reset, Gray, Reset, resp.Pid)
	_, _ = fmt.Fprintf(w, "%s*%s\t%sTraceId:%s %s\n", Red, Reset, Gray, Reset, resp.TraceId)
	_, _ = fmt.Fprintf(w, "%s*%s\t%sVersion:%s %s\n", Red, Reset, Gray, Reset, resp.Version)
	if resp.Logfile != "" {
		_, _ = fmt.Fprintf(w, "%s*%s\t%sLogfile:%s %s\n", Red, Reset, Cyan, Reset, resp.Logfile)
	}
	_, _ = fmt.Fprintf(w, "%s%s***************************************************************************************************%s\n", Bold, Red, Reset)
	_, _ = fmt.Fprintf(w, "\n%s%s****************************************** Resolution *********************************************%s\n", Bold, Yellow, Reset)

	// Print custom instructions first if provided
	if len(instructions) > 0 && instructions[0] != "" {
		for _, line := range strings.Split(instructions[0], "\n") {
			if line == "" {
				_, _ = fmt.Fprintf(w, "%s*%s\n", Yellow, Reset)
			} else {
				_, _ = fmt.Fprintf(w, "%s*%s\t%s\n", Yellow, Reset, Bold+White+line+Reset)
			}
		}
		if len(resp.Resolution) > 0 {
			_, _ = fmt.Fprintf(w, "%s*%s\n", Yellow, Reset)
		}
	}

	for _, r := range resp.Resolution {
		_, _ = fmt.Fprintf(w, "%s*%s\t%s\n", Yellow, Reset, White+r+Reset)
	}

	_, _ = fmt.Fprintf(w, "%s%s***************************************************************************************************%s\n", Bold, Yellow, Reset)
}

// CheckErr prints the diagnosis to stderr and exits with the code mapped from the error type.
// Optional instructions can be provided to give additional context to the user
func CheckErr(ctx context.Context, err error, instructions ...string) {
	if err == nil {
		return
	}

	logx.As().Error().Err(err).Msg("error occurred")
	resp := Diagnose(ctx, err)
	Print(os.Stderr, resp, instructions...)

	resp.Code.TerminateProcess()
}

// GetInstructionsFromReport recursively searches for instructions in report metadata.
// Returns the first non-empty instructions found in the report tree, or an empty string if none exist.
func GetInstructionsFromReport(report *automa.Report) string {
	if report == nil {
		return ""
	}

	if instructions, ok := report.Metadata["instructions"]; ok {
		return instructions
	}

	for _, stepReport := range report.StepReports {
		if instructions := GetInstructionsFromReport(stepReport); instructions != "" {
			return instructions
		}
	}

	return ""
}
