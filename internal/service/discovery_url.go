package service

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// providerOrder fixes the iteration order for host matching; map iteration
// would make discovery output nondeterministic.
var providerOrder = []string{
	"greenhouse", "lever", "ashby", "smartrecruiters", "breezy",
	"comeet", "workday", "recruitee", "jobvite", "icims", "workable",
}

// providerHosts maps provider slugs to the public board hostnames used to
// build site: queries and to classify result links.
var providerHosts = map[string]string{
	"greenhouse":      "boards.greenhouse.io",
	"lever":           "jobs.lever.co",
	"ashby":           "jobs.ashbyhq.com",
	"smartrecruiters": "jobs.smartrecruiters.com",
	"breezy":          "breezy.hr",
	"comeet":          "comeet.com",
	"workday":         "myworkdayjobs.com",
	"recruitee":       "recruitee.com",
	"jobvite":         "jobvite.com",
	"icims":           "icims.com",
	"workable":        "apply.workable.com",
}

// reservedSlugs are path or subdomain labels that can never be an org slug.
var reservedSlugs = map[string]struct{}{
	"www": {}, "jobs": {}, "job": {}, "career": {}, "careers": {},
	"apply": {}, "search": {}, "positions": {}, "position": {},
	"en": {}, "en-us": {}, "en_us": {},
	"o": {}, "p": {}, // recruitee / breezy junk
}

var (
	orgSlugRe     = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9_-]{0,62}[a-z0-9])$`)
	localeSegRe   = regexp.MustCompile(`^[a-z]{2}(-[a-z]{2})?$`)
	cityTextSepRe = regexp.MustCompile(`[^a-z0-9]+`)
)

func providerFromURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	for _, provider := range providerOrder {
		base := providerHosts[provider]
		if host == base || strings.HasSuffix(host, "."+base) {
			return provider
		}
	}
	return ""
}

// isValidOrgSlug rejects reserved labels, one-character slugs, slugs without
// at least two letters, and anything outside the DNS-label-ish shape.
func isValidOrgSlug(slug string) bool {
	s := strings.ToLower(strings.TrimSpace(slug))
	if s == "" {
		return false
	}
	if _, ok := reservedSlugs[s]; ok {
		return false
	}
	if len(s) < 2 {
		return false
	}
	letters := 0
	for _, ch := range s {
		if unicode.IsLetter(ch) {
			letters++
		}
	}
	if letters < 2 {
		return false
	}
	return orgSlugRe.MatchString(s)
}

func validatedSlug(val string) string {
	s := strings.ToLower(strings.TrimSpace(val))
	if isValidOrgSlug(s) {
		return s
	}
	return ""
}

// subdomainParts returns the labels of host below base, e.g.
// ("careers-acme.icims.com", "icims.com") -> ["careers-acme"].
func subdomainParts(host, base string) []string {
	host = strings.Trim(strings.ToLower(host), ".")
	base = strings.Trim(strings.ToLower(base), ".")
	if host == "" || base == "" || host == base {
		return nil
	}
	suffix := "." + base
	if !strings.HasSuffix(host, suffix) {
		return nil
	}
	sub := strings.TrimSuffix(host, suffix)
	if sub == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(sub, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func icimsOrgFromHost(host string) string {
	parts := subdomainParts(host, "icims.com")
	if len(parts) == 0 {
		return ""
	}
	label := parts[len(parts)-1]
	label = strings.TrimPrefix(label, "careers-")
	if label == "careers" || label == "jobs" {
		return ""
	}
	return label
}

func workdayOrgFromHost(host string) string {
	parts := subdomainParts(host, "myworkdayjobs.com")
	if len(parts) == 0 {
		return ""
	}
	first := parts[0]
	if strings.HasPrefix(first, "wd") && isAllDigits(first[2:]) {
		if len(parts) > 1 {
			return parts[1]
		}
		return ""
	}
	if first == "careers" || first == "jobs" {
		return ""
	}
	return first
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// extractOrgFromURL pulls the org slug out of a board link using
// provider-specific URL shapes. Returns "" when no valid slug is found.
func extractOrgFromURL(provider, link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	segs := pathSegments(u.Path)

	switch provider {
	case "comeet":
		if len(segs) >= 2 && strings.EqualFold(segs[0], "jobs") {
			return validatedSlug(segs[1])
		}
	case "icims":
		if org := validatedSlug(icimsOrgFromHost(host)); org != "" {
			return org
		}
		if len(segs) > 0 {
			first := strings.ToLower(segs[0])
			if first != "jobs" && first != "career" && first != "careers" {
				return validatedSlug(first)
			}
		}
		return ""
	case "workday":
		if len(segs) == 0 {
			return validatedSlug(workdayOrgFromHost(host))
		}
		for i, seg := range segs {
			if strings.EqualFold(seg, "inline") && i+1 < len(segs) {
				return validatedSlug(segs[i+1])
			}
		}
		first := strings.ToLower(segs[0])
		if localeSegRe.MatchString(first) && len(segs) > 1 {
			second := strings.ToLower(segs[1])
			switch second {
			case "details", "job", "jobs", "apply", "applymanually":
			default:
				return validatedSlug(second)
			}
		}
		switch first {
		case "careers", "jobs", "job", "details", "apply", "wday":
			return validatedSlug(workdayOrgFromHost(host))
		default:
			return validatedSlug(segs[0])
		}
	}
	if len(segs) > 0 {
		return validatedSlug(segs[0])
	}
	return ""
}

// normalizeComeetCareersURL canonicalizes a comeet board link: comeet.com
// hosts collapse to www.comeet.com, and /jobs/<slug>[/<uid>] paths keep up to
// two segments after "jobs".
func normalizeComeetCareersURL(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if strings.HasSuffix(host, "comeet.com") {
		host = "www.comeet.com"
	}
	segs := pathSegments(u.Path)
	for i, seg := range segs {
		if seg != "jobs" {
			continue
		}
		if i+2 < len(segs) {
			return "https://" + host + "/jobs/" + segs[i+1] + "/" + segs[i+2]
		}
		if i+1 < len(segs) {
			return "https://" + host + "/jobs/" + segs[i+1]
		}
		break
	}
	if len(segs) > 0 {
		return "https://" + host + "/" + segs[0]
	}
	return "https://" + host
}

func normalizeCityText(text string) string {
	return strings.TrimSpace(cityTextSepRe.ReplaceAllString(strings.ToLower(text), " "))
}

// extractCityFromResult scans a search result's text fields for a wanted
// city, returning the original spelling of the first hit. "israel" is tried
// last so a concrete city wins over the country.
func extractCityFromResult(item map[string]any, cities []string) string {
	if len(cities) == 0 {
		return ""
	}
	var parts []string
	for _, key := range []string{"title", "snippet", "displayed_link", "link"} {
		switch v := item[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				parts = append(parts, v)
			}
		case []any:
			for _, e := range v {
				if s, ok := e.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	switch v := item["snippet_highlighted_words"].(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
	case string:
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}

	haystack := normalizeCityText(strings.Join(parts, " "))
	if haystack == "" {
		return ""
	}

	type cityNorm struct{ original, norm string }
	var normalized []cityNorm
	seen := map[string]struct{}{}
	for _, c := range cities {
		n := normalizeCityText(c)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, cityNorm{original: c, norm: n})
	}

	hasConcrete := false
	for _, c := range normalized {
		if c.norm != "israel" {
			hasConcrete = true
			break
		}
	}
	if hasConcrete {
		var concrete, country []cityNorm
		for _, c := range normalized {
			if c.norm == "israel" {
				country = append(country, c)
			} else {
				concrete = append(concrete, c)
			}
		}
		normalized = append(concrete, country...)
	}

	for _, c := range normalized {
		if strings.Contains(haystack, c.norm) {
			return c.original
		}
	}
	return ""
}

func pathSegments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
