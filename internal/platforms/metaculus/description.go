package metaculus

import "regexp"

// Markdown coming from the API sometimes carries whitespace inside bold
// markers ("** word**" or "**word **"), which breaks rendering downstream.
// Both transforms hoist the whitespace outside the markers and are idempotent.
var (
	boldLeadingSpace  = regexp.MustCompile(`\*\*(\s+)([^*]*?)\*\*`)
	boldTrailingSpace = regexp.MustCompile(`\*\*([^*]*?)(\s+)\*\*`)
)

// cleanDescription normalizes bold-marker whitespace artifacts in a raw
// question description.
func cleanDescription(s string) string {
	s = boldLeadingSpace.ReplaceAllString(s, "$1**$2**")
	s = boldTrailingSpace.ReplaceAllString(s, "**$1**$2")
	return s
}
