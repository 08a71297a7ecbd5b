package dataprocessing

import (
	"regexp"
	"strings"

	"bitewatch/pkg/contracts/domain"
)

// statePattern matches a two-letter upper-case run that looks like a state
// code: either surrounded by whitespace or immediately followed by a
// 5-digit zip. First match wins; a street abbreviation that happens to fit
// the shape is accepted, that is the documented heuristic.
var statePattern = regexp.MustCompile(`(\s[A-Z]{2}\s|\s[A-Z]{2}\d{5})`)

// ExtractCity applies the literal city heuristic to a free-text location:
// take the segment before the first comma, trim it, and return its last
// whitespace-separated token with source casing preserved. Strings without
// a comma, and segments without a token, yield UNKNOWN.
func ExtractCity(location string) string {
	comma := strings.IndexByte(location, ',')
	if comma < 0 {
		return domain.UnknownValue
	}
	fields := strings.Fields(location[:comma])
	if len(fields) == 0 {
		return domain.UnknownValue
	}
	return fields[len(fields)-1]
}

// ExtractState returns the first state-shaped token found anywhere in the
// location string, reduced to its two letters, or UNKNOWN when nothing
// matches.
func ExtractState(location string) string {
	match := statePattern.FindString(location)
	if match == "" {
		return domain.UnknownValue
	}
	return strings.TrimSpace(match)[:2]
}
