package sheets

import "strings"

// trimCell strips surrounding whitespace and a leading UTF-8 byte order mark.
func trimCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
}
