// Package match holds the normalization, scoring and filtering engine applied
// to postings between provider fetch and persistence or presentation.
package match

import "strings"

// cityAliases normalizes common spelling variations for query + matching.
var cityAliases = map[string][]string{
	"tel aviv":      {"tel aviv", "tel-aviv", "tel aviv-yafo", "tel aviv yafo"},
	"tel aviv-yafo": {"tel aviv-yafo", "tel aviv yafo", "tel aviv"},
	"tel aviv yafo": {"tel aviv yafo", "tel aviv-yafo", "tel aviv"},
	"herzliya":      {"herzliya", "hertzliya", "herzlia"},
	"kfar saba":     {"kfar saba", "kfar sava"},
	"raanana":       {"raanana", "ra'anana", "ra-anana", "ra anana"},
	"petach tikva":  {"petach tikva", "petah tikva", "petach tikvah", "petah tikvah"},
	"petah tikva":   {"petach tikva", "petah tikva", "petach tikvah", "petah tikvah"},
	"hod hasharon":  {"hod hasharon", "hod ha-sharon", "hod ha sharon"},
	"netanya":       {"netanya", "netnaya"},
	"ramat gan":     {"ramat gan", "ramat-gan"},
	"bnei brak":     {"bnei brak", "bnei-brak"},
	"givatayim":     {"givatayim", "giv'atayim", "givataym"},
	"airport city":  {"airport city", "airport-city"},
}

// ExpandCityAliases appends known spelling variants for each city while
// preserving the caller's order. Duplicates are dropped case-insensitively.
func ExpandCityAliases(cities []string) []string {
	seen := make(map[string]struct{})
	expanded := make([]string, 0, len(cities))
	for _, c := range cities {
		base := strings.TrimSpace(c)
		if base == "" {
			continue
		}
		variants := append([]string{base}, cityAliases[strings.ToLower(base)]...)
		for _, v := range variants {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			key := strings.ToLower(v)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			expanded = append(expanded, v)
		}
	}
	return expanded
}

// CleanList trims entries and drops empties, preserving order.
func CleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
