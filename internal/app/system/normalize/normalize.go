// Package normalize canonicalizes user-supplied strings before they are
// validated or stored.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses internal runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lowercases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Choice trims and lowercases an enum answer such as "Yes" or " Conducive ".
func Choice(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query or form value, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
