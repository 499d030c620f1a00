package transport

import (
	"regexp"
	"strings"
)

// safeWordPattern matches words that need no quoting in a POSIX shell.
//
//nolint:gochecknoglobals // Compiled once, read-only.
var safeWordPattern = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// Quote returns a shell-safe representation of s for interpolation into a
// remote command string. Safe words pass through unchanged; anything else
// is wrapped in single quotes with embedded single quotes escaped, so path
// components containing spaces or shell metacharacters cannot break or
// inject into the remote command.
func Quote(s string) string {
	if s == "" {
		return "''"
	}

	if safeWordPattern.MatchString(s) {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
