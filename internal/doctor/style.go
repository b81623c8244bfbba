// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// ANSI color codes for terminal output
const (
	Red    = "\033[31m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	White  = "\033[37m"
	Gray   = "\033[90m"
	Reset  = "\033[0m"
	Bold   = "\033[1m"
)

var plain = strings.NewReplacer(Red, "", Yellow, "", Cyan, "", White, "", Gray, "", Reset, "", Bold, "")

// styled returns s as it should be written to w: unchanged on a color terminal, without color codes otherwise.
// NO_COLOR and CLICOLOR_FORCE are honored.
func styled(w io.Writer, s string) string {
	if termenv.NewOutput(w).EnvColorProfile() == termenv.Ascii {
		return plain.Replace(s)
	}
	return s
}
