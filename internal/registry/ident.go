// SPDX-License-Identifier: Apache-2.0

package registry

//go:generate mockgen -source=ident.go -destination=mock_clock.go -package=registry

import (
	"fmt"
	"go/token"
	"regexp"
	"strings"
	"time"

	"github.com/joomcode/errorx"
)

// TimestampLayout is the fixed-width date and time part of an identifier. Zero padding keeps lexical order equal to
// chronological order.
const TimestampLayout = "20060102_150405"

// identifierRegex matches the local name of a migration import: m<YYYYMMDD>_<HHMMSS>_<name>
var identifierRegex = regexp.MustCompile(`^m\d{8}_\d{6}_\w+$`)

// Identifier names a migration unit, e.g. m20220101_000001_create_table.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// IsIdentifier reports whether name has the shape of a migration identifier.
func IsIdentifier(name string) bool {
	return identifierRegex.MatchString(name)
}

// Clock supplies the wall-clock time an identifier is stamped with.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Generate builds the identifier for name from now, formatted in UTC when utc is set and in local time otherwise.
// name is not validated here; see ValidateName.
func Generate(name string, utc bool, now time.Time) Identifier {
	if utc {
		now = now.UTC()
	} else {
		now = now.Local()
	}

	return Identifier(fmt.Sprintf("m%s_%s", now.Format(TimestampLayout), name))
}

// ValidateName checks that name can be used as the slug of an identifier. The identifier becomes a Go import name,
// so the slug must keep it a valid Go identifier.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errorx.IllegalArgument.New("migration name cannot be empty")
	}

	probe := "m00000000_000000_" + name
	if !token.IsIdentifier(probe) || !IsIdentifier(probe) {
		return errorx.IllegalArgument.New("migration name %q must contain only letters, digits and underscores", name)
	}

	return nil
}

// Unique returns id unchanged when it is not taken, otherwise the first of id_2, id_3, ... that is free.
func Unique(id Identifier, taken map[Identifier]bool) Identifier {
	if !taken[id] {
		return id
	}

	for n := 2; ; n++ {
		candidate := Identifier(fmt.Sprintf("%s_%d", id, n))
		if !taken[candidate] {
			return candidate
		}
	}
}
