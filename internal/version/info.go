// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/joomcode/errorx"
	"gopkg.in/yaml.v3"
)

type Info struct {
	Number    string `json:"version" yaml:"version" toml:"version"`
	Commit    string `json:"commit" yaml:"commit" toml:"commit"`
	GoVersion string `json:"go" yaml:"go" toml:"go"`
	BuildMode string `json:"buildMode" yaml:"buildMode" toml:"buildMode"`
}

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// Encode renders v as yaml, json or toml.
func Encode(v any, format string) (string, error) {
	var output []byte
	var err error
	switch strings.ToLower(format) {
	case FormatJSON:
		output, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "failed to marshal to JSON")
		}
		output = append(output, '\n')
	case FormatYAML:
		output, err = yaml.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "failed to marshal to YAML")
		}
	case FormatTOML:
		var buf bytes.Buffer
		if err = toml.NewEncoder(&buf).Encode(v); err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "failed to marshal to TOML")
		}
		output = buf.Bytes()
	default:
		return "", errorx.IllegalArgument.New("unsupported format: %s", format)
	}

	return string(output), nil
}

func (v Info) Format(format string) (string, error) {
	return Encode(v, format)
}

// Semver parses the embedded version number.
func Semver() (*semver.Version, error) {
	sv, err := semver.NewVersion(Number())
	if err != nil {
		return nil, errorx.IllegalFormat.Wrap(err, "invalid embedded version %q", Number())
	}
	return sv, nil
}

var (
	versionInfo Info
)

func init() {
	versionInfo = Info{
		Number:    Number(),
		Commit:    Commit(),
		GoVersion: runtime.Version(),
		BuildMode: BuildMode(),
	}
}

func Get() Info {
	return versionInfo
}
