package util

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended to truncated raw lines.
const Ellipsis = "..."

// TruncateRunes keeps at most max runes of s, appending Ellipsis when cut.
// TruncateRunes 按字符截断，超出时追加省略号
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}

// NormalizeNotePath converts a vault relative path to forward slashes in NFC form.
// macOS file systems hand back decomposed names, which would otherwise change link identities.
// NormalizeNotePath 统一为正斜杠和 NFC 形式
func NormalizeNotePath(p string) string {
	return norm.NFC.String(filepath.ToSlash(p))
}

// FirstSegment returns the part of a slash separated path before the first "/".
func FirstSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
