// Package jobs names restyle runs and routes requests addressed to them.
package jobs

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// RunIDPrefix starts every run directory name.
const RunIDPrefix = "restyle_"

var runIDPattern = regexp.MustCompile(`^restyle_[0-9a-f]{8}$`)

// NewRunID returns a run directory name: the prefix followed by the first
// eight hex digits of a random UUID.
func NewRunID() string {
	return RunIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// IsRunID reports whether s is a well-formed run ID. Handlers use it before
// joining s into a filesystem path.
func IsRunID(s string) bool {
	return runIDPattern.MatchString(s)
}
