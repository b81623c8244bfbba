// SPDX-License-Identifier: Apache-2.0

package templates

import (
	"embed"
)

//go:embed files/*
var Files embed.FS

const (
	// UnitTemplate is the body of every generated migration unit. It is copied verbatim.
	UnitTemplate     = "files/migration/unit.go.tmpl"
	RegistryTemplate = "files/migration/registry.go.tmpl"
	ReadmeTemplate   = "files/migration/README.md.tmpl"
)

// RegistryData fills RegistryTemplate and ReadmeTemplate.
type RegistryData struct {
	Package      string
	ImportPath   string
	Receiver     string
	Method       string
	HandleType   string
	FirstUnit    string
	RegistryFile string
}
