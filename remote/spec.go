// Package remote parses the driver's "[HOST:]DEST" destination argument
// (§6.3), distinguishing a bare local path from an SCP-style "user@host:path"
// remote specification.
package remote

import (
	"runtime"

	"github.com/pkg/errors"
)

// Spec is a parsed destination argument.
type Spec struct {
	// Local is true if no host was specified; Path is then a local
	// filesystem path and User/Host are empty.
	Local bool
	User  string
	Host  string
	Path  string
}

// Parse classifies and parses raw per the same heuristic an SCP-style URL
// parser uses: a colon that appears before any forward slash marks a
// "host:path" remote specification; anything else is a local path.
// Destinations with no colon, or whose first colon follows a slash, are
// treated as local; so, on Windows only, is a drive-letter path such as
// "C:\foo" (POSIX paths never collide with this).
func Parse(raw string) (Spec, error) {
	if raw == "" {
		return Spec{}, errors.New("empty destination")
	}

	if !looksRemote(raw) {
		return Spec{Local: true, Path: raw}, nil
	}

	rest := raw
	var user string
	for i, r := range rest {
		if r == ':' {
			break
		} else if r == '@' {
			if i == 0 {
				return Spec{}, errors.New("empty username specified")
			}
			user = rest[:i]
			rest = rest[i+1:]
			break
		}
	}

	var host string
	for i, r := range rest {
		if r == ':' {
			if i == 0 {
				return Spec{}, errors.New("empty hostname")
			}
			host = rest[:i]
			rest = rest[i+1:]
			break
		}
	}
	if host == "" {
		return Spec{}, errors.New("no hostname present in remote destination")
	}

	if rest == "" {
		return Spec{}, errors.New("empty remote path")
	}

	return Spec{User: user, Host: host, Path: rest}, nil
}

// looksRemote reports whether raw should be parsed as "[user@]host:path"
// rather than a local filesystem path.
func looksRemote(raw string) bool {
	if runtime.GOOS == "windows" && isWindowsDriveLetterPath(raw) {
		return false
	}
	for _, c := range raw {
		if c == ':' {
			return true
		} else if c == '/' {
			return false
		}
	}
	return false
}

// isWindowsDriveLetterPath reports whether raw looks like "C:\" or "C:/",
// which would otherwise be misread as a one-character hostname.
func isWindowsDriveLetterPath(raw string) bool {
	if len(raw) < 3 {
		return false
	}
	c := raw[0]
	isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	return isLetter && raw[1] == ':' && (raw[2] == '\\' || raw[2] == '/')
}

// String reconstructs raw-ish display form, mainly useful for log/error
// messages.
func (s Spec) String() string {
	if s.Local {
		return s.Path
	}
	if s.User != "" {
		return s.User + "@" + s.Host + ":" + s.Path
	}
	return s.Host + ":" + s.Path
}
