package extract

import "strings"

// Normalize collapses every whitespace run to one space and trims the ends.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
