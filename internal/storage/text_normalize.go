package storage

import "strings"

// normalizeText trims and collapses runs of whitespace, which the server's
// templates leave in link texts.
func normalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// normalizeRenterName falls back to the id when a link had no text.
func normalizeRenterName(name, id string) string {
	if n := normalizeText(name); n != "" {
		return n
	}
	return "Renter " + normalizeText(id)
}
