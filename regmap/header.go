package regmap

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Header line patterns. Keys are whitespace-tolerant and case-insensitive,
// the value is everything after the colon.
var (
	titlePattern = regexp.MustCompile(`(?i)^#\s*title\s*:\s*(.*?)\s*$`)
	uuidPattern  = regexp.MustCompile(`(?i)^#\s*uuid\s*:\s*(\S+)\s*$`)
)

// titlePrefix is the fixed preamble devices put in front of their name.
const titlePrefix = "modbus register map for "

// IsComment reports whether a map line is a header/comment line.
func IsComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "#")
}

// ExtractTitle matches a "# title :" header line and returns the device
// title. The conventional "modbus register map for" preamble is stripped.
func ExtractTitle(line string) (string, bool) {
	m := titlePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	title := m[1]
	if rest := strings.TrimPrefix(strings.ToLower(title), titlePrefix); len(rest) != len(title) {
		title = title[len(title)-len(rest):]
	}
	if title == "" {
		return "", false
	}
	return title, true
}

// ExtractUUID matches a "# uuid :" header line and returns the canonical
// UUID string. The nil UUID means the device has no identity and is
// reported as not found.
func ExtractUUID(line string) (string, bool) {
	m := uuidPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	u, err := uuid.Parse(m[1])
	if err != nil || u == uuid.Nil {
		return "", false
	}
	return u.String(), true
}
