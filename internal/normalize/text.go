// Package normalize turns locale-formatted statement fields into canonical
// values. None of its functions return errors: malformed input degrades to
// a documented default so that one bad line never aborts a statement.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower lower-cases s with Spanish casing rules. A Caser keeps state, so a
// fresh one is built per call.
func Lower(s string) string {
	return cases.Lower(language.Spanish).String(s)
}

// Key lower-cases and trims s, the form used for table lookups
func Key(s string) string {
	return strings.TrimSpace(Lower(s))
}
