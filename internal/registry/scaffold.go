// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"github.com/hashgraph/regsync/internal/templates"
)

// InitialUnit is the unit a new migrations directory starts with.
const InitialUnit Identifier = "m20220101_000001_create_table"

// WriteUnit writes the unit template to the package directory of id and returns the path of the written file.
// An existing unit file is overwritten.
func WriteUnit(id Identifier, dir string) (string, error) {
	p := UnitPath(dir, id)
	if err := templates.CopyTemplateFile(templates.UnitTemplate, p); err != nil {
		return "", ioErr(err, StageScaffold, p, "failed to write migration unit %s", p)
	}

	return p, nil
}
