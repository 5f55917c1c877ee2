// Package countries resolves the ISO 3166-1 codes stored on matches into
// display names.
package countries

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var regionNamer = display.English.Regions()

// Normalize upper-cases and trims a code; it does not validate it.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code names an actual country (not a continent or
// a reserved code).
func Valid(code string) bool {
	region, err := language.ParseRegion(Normalize(code))
	if err != nil {
		return false
	}
	return region.IsCountry()
}

// Name returns the English country name, or the code itself when unknown.
func Name(code string) string {
	normalized := Normalize(code)
	region, err := language.ParseRegion(normalized)
	if err != nil {
		return normalized
	}
	if name := regionNamer.Name(region); name != "" {
		return name
	}
	return normalized
}
