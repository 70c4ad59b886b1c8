// Package fingerprint derives the stable per-command identifier shared by
// the state file and the derived lock file name.
package fingerprint

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/cronguard/cronguard/internal/model"
)

// Separator replaces path separators in the readable part of a fingerprint.
const Separator = '-'

// Generate returns "<name>.<md5 of the full command line>". The name part
// keeps the command recognizable in a directory listing, the digest keys
// invocations with different arguments apart. MD5 is a filename key here,
// not a security boundary.
func Generate(cmd model.Command) string {
	name := SanitizePath(cmd.Program(), Separator)
	return fmt.Sprintf("%s.%x", name, md5.Sum([]byte(cmd.CLI())))
}

// SanitizePath flattens a path into a single filename component: path
// separators become sep, a separator-rooted result loses separators on both
// ends, and a leading dot turns into an underscore so the file never ends
// up hidden.
func SanitizePath(path string, sep rune) string {
	s := string(sep)
	ret := strings.ReplaceAll(path, "/", s)
	if strings.HasPrefix(ret, s) {
		ret = strings.Trim(ret, s)
	}
	if strings.HasPrefix(ret, ".") {
		ret = "_" + ret[1:]
	}
	return ret
}
