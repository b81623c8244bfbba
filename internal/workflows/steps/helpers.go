// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"os"

	"github.com/hashgraph/regsync/pkg/fsx"
)

// removeAll deletes a directory created by a step when the step is rolled back.
var removeAll = func(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fsx.NewFileSystemError(err, "failed to remove directory", path)
	}
	return nil
}
