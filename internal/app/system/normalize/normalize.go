// Package normalize cleans user-supplied values before they are stored
// or compared.
package normalize

import (
	"strings"
	"unicode"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone keeps digits and a leading plus sign, dropping spaces, dashes,
// dots, and parentheses.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QueryParam trims a query-string value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Status maps a user status to its canonical spelling ("Active" or
// "Inactive"). Unknown values are returned trimmed.
func Status(s string) string {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "active":
		return "Active"
	case "inactive", "disabled":
		return "Inactive"
	}
	return t
}
