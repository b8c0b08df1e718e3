package transcode

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxFilenameBytes is the name length limit shared by ext4, APFS and NTFS.
const MaxFilenameBytes = 255

var invalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f\x7f]`)

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {}, "CLOCK$": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFilename turns a display title into a name that is valid on
// Windows, macOS and Linux. Illegal characters are dropped rather than
// replaced, so "AC/DC: Thunderstruck" becomes "ACDC Thunderstruck".
func SanitizeFilename(name string) string {
	return SanitizeFilenameFor(name, "")
}

// SanitizeFilenameFor sanitizes name and leaves room for suffix, so that
// the result plus suffix stays within MaxFilenameBytes.
func SanitizeFilenameFor(name string, suffix string) string {
	budget := MaxFilenameBytes - len(suffix)
	clean := invalidFilenameChars.ReplaceAllString(name, "")
	clean = strings.TrimSpace(clean)
	clean = strings.TrimRight(clean, ". ")
	clean = truncateBytes(clean, budget)
	clean = strings.TrimRight(clean, ". ")

	if clean == "" {
		return "untitled"
	}
	base := clean
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if _, reserved := reservedNames[strings.ToUpper(base)]; reserved {
		clean += "_"
	}
	return clean
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
