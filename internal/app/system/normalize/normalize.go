// Package normalize holds the canonical forms used for stored values and for
// building equality filters. The store does no case-insensitive matching, so
// anything used as a filter key must pass through here on both the write and
// the read side.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// City returns the canonical city form: surrounding space trimmed, first
// letter upper case, every other letter lower case ("new YORK" -> "New york").
// City(City(s)) == City(s) for every s. Invalid UTF-8 is returned trimmed
// but otherwise untouched; input validation rejects it before storage.
func City(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !utf8.ValidString(s) {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Name trims surrounding whitespace and keeps case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Email trims surrounding whitespace. Case is kept because the address is
// shown back to other users exactly as entered.
func Email(s string) string {
	return strings.TrimSpace(s)
}

// Phone trims surrounding whitespace. The stored phone is compared by exact
// equality, so internal formatting is left alone.
func Phone(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// CityKey folds a stored city for counting distinct cities: lower case,
// trimmed. Unlike City it is not meant for storage.
func CityKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
