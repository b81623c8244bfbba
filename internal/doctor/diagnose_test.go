// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/pkg/exit"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want exit.Code
	}{
		{"parse", registry.ParseError.New("bad"), exit.DataFormatError},
		{"structure", registry.StructureError.New("bad"), exit.DataFormatError},
		{"io", registry.IoError.New("bad"), exit.InputOutputError},
		{"format", registry.FormatError.New("bad"), exit.InternalError},
		{"config", config.NotFoundError.New("bad"), exit.ConfigurationError},
		{"argument", errorx.IllegalArgument.New("bad"), exit.UsageError},
		{"decorated", errorx.Decorate(registry.IoError.New("bad"), "while syncing"), exit.InputOutputError},
		{"plain", errors.New("bad"), exit.GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toExitCode(tt.err))
		})
	}
}

func TestDiagnose(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIdKey, "trace-1")
	err := registry.IoError.New("timed out").
		WithProperty(registry.PathProperty, "/m/migrator.go").
		WithProperty(registry.StageProperty, registry.StageLock)

	resp := Diagnose(ctx, err)
	require.Equal(t, "trace-1", resp.TraceId)
	require.Equal(t, "/m/migrator.go", resp.Path)
	require.Equal(t, registry.StageLock, resp.Stage)
	require.Equal(t, exit.InputOutputError, resp.Code)
	require.Equal(t, "timed out", resp.Message)
	require.Contains(t, resp.Resolution[0], "registry lock")
	require.Contains(t, resp.ErrorType, "registry.io_error")
}

func TestFindResolution(t *testing.T) {
	err := registry.ParseError.New("bad").WithProperty(registry.PathProperty, "/m/migrator.go")
	require.Contains(t, findResolution(err)[0], "/m/migrator.go")

	err = registry.IoError.New("bad").
		WithProperty(registry.PathProperty, "/m/migrator.go").
		WithProperty(registry.StageProperty, registry.StageWrite)
	require.Contains(t, findResolution(err)[0], "regsync migrate restore")

	require.Equal(t, []string{"Check error message for details or contact support"}, findResolution(errors.New("x")))
}

func TestPrint(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "")
	var buf bytes.Buffer
	resp := Diagnose(context.Background(), registry.StructureError.New("no method"))

	Print(&buf, resp, "first line\n\nsecond line")

	out := buf.String()
	assert.Contains(t, out, "Error Diagnostics")
	assert.Contains(t, out, "no method")
	assert.Contains(t, out, "first line")
	assert.Contains(t, out, "second line")
	assert.Contains(t, out, "enumeration method")
	// a buffer is not a terminal
	assert.NotContains(t, out, Red)
}

func TestGetInstructionsFromReport(t *testing.T) {
	require.Equal(t, "", GetInstructionsFromReport(nil))

	nested := &automa.Report{Metadata: map[string]string{"instructions": "do this"}}
	root := &automa.Report{StepReports: []*automa.Report{{}, nested}}
	require.Equal(t, "do this", GetInstructionsFromReport(root))
}
