// Package parcel resolves Montana parcel geocodes to postal addresses through
// a chain of cadastral data sources.
package parcel

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Normalize trims a raw geocode and rejects empty input.
func Normalize(raw string) (string, error) {
	g := strings.TrimSpace(raw)
	if g == "" {
		return "", eris.New("parcel: empty geocode")
	}
	return g, nil
}

// Variants returns the ordered probe variants for a geocode: the original
// form, hyphen-stripped, upper-cased, lower-cased. Upstream systems store the
// identifier inconsistently, so resolvers try each in turn. The original form
// stays first and duplicates are dropped.
func Variants(geocode string) []string {
	candidates := []string{
		geocode,
		strings.ReplaceAll(geocode, "-", ""),
		strings.ToUpper(geocode),
		strings.ToLower(geocode),
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	return variants
}
