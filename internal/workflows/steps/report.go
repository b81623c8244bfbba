// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/pkg/fsx"
	"gopkg.in/yaml.v3"
)

// PrintWorkflowReport prints the workflow execution report in YAML format. With a non-empty path the report is
// written to that file instead of stdout.
var PrintWorkflowReport = func(report *automa.Report, path string) {
	b, err := yaml.Marshal(report)
	if err != nil {
		logx.As().Warn().Err(err).Msg("Failed to marshal workflow report")
		return
	}

	if path == "" {
		fmt.Printf("Workflow Execution Report:\n%s\n", b)
		return
	}

	if err = os.MkdirAll(filepath.Dir(path), fsx.DefaultDirPerm); err != nil {
		logx.As().Warn().Err(err).Str("path", path).Msg("Failed to create workflow report directory")
		return
	}

	if err = fsx.WriteFileAtomic(path, b, fsx.DefaultFilePerm); err != nil {
		logx.As().Warn().Err(err).Str("path", path).Msg("Failed to write workflow report")
	}
}
