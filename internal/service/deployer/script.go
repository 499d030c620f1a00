package deployer

import (
	"fmt"
	"strings"

	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/transport"
)

// backupTimestampFormat is expanded by the remote shell. The 14-digit stamp
// keeps repeated backups uniquely named and chronologically sortable down to
// one-second resolution; two runs within the same second collide, which is a
// known gap inherited from the deployment contract.
const backupTimestampFormat = "$(date +%Y%m%d%H%M%S)"

// remoteScript composes the single fail-fast command executed on the target.
// Issuing backup, replacement and cleanup in one shell session means a
// failing sub-step aborts everything after it; completed sub-steps are not
// rolled back. Every interpolated path segment goes through transport.Quote.
func (d *deployment) remoteScript(digest string) string {
	quotedTemp := transport.Quote(d.remoteTemp)
	quotedParent := transport.Quote(d.remoteParent)
	quotedBase := transport.Quote(d.remoteBase)

	steps := []string{
		"set -euo pipefail",
		// Refuse to touch the target if the upload is corrupt.
		fmt.Sprintf("printf '%%s  %%s\\n' %s %s | sha512sum -c - >/dev/null", digest, quotedTemp),
		"mkdir -p " + quotedParent,
		"cd " + quotedParent,
	}

	if !d.cfg.SkipBackup {
		steps = append(steps, fmt.Sprintf(
			"if [ -d %s ]; then TS=%s; tar czf %s-backup-$TS.tar.gz %s; fi",
			quotedBase, backupTimestampFormat, quotedBase, quotedBase,
		))
	}

	steps = append(steps,
		"rm -rf "+quotedBase,
		"tar xzf "+quotedTemp+" -C "+quotedParent,
		"rm -f "+quotedTemp,
	)

	return strings.Join(steps, "; ")
}
