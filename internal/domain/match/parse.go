package match

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tzCompactRe  = regexp.MustCompile(`([+-]\d{2})(\d{2})$`)
	salaryRe     = regexp.MustCompile(`(\d{2,3}(?:[\s,]?\d{3})?)(?:\s*[kK])?`)
)

// NormalizeText lower-cases and collapses whitespace for substring matching.
func NormalizeText(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// ParseCreatedAt is a best-effort parser for provider timestamps: ISO strings
// (with or without Z or compact offsets), epoch seconds or milliseconds, and
// bare dates. Returns a UTC time or nil.
func ParseCreatedAt(val string) *time.Time {
	s := strings.TrimSpace(val)
	if s == "" {
		return nil
	}

	if isDigits(s) {
		if ts, err := strconv.ParseFloat(s, 64); err == nil {
			if len(s) >= 13 {
				ts /= 1000.0
			}
			t := time.Unix(int64(ts), int64((ts-float64(int64(ts)))*1e9)).UTC()
			return &t
		}
	}

	cleaned := s
	if strings.HasSuffix(cleaned, "Z") {
		cleaned = cleaned[:len(cleaned)-1] + "+00:00"
	}
	cleaned = tzCompactRe.ReplaceAllString(cleaned, "$1:$2")

	for _, cand := range []string{cleaned, s} {
		for _, layout := range []string{
			"2006-01-02T15:04:05.999999999-07:00",
			"2006-01-02T15:04:05-07:00",
			"2006-01-02T15:04:05.999999999",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05.999999999-07:00",
			"2006-01-02 15:04:05-07:00",
			"2006-01-02 15:04:05",
		} {
			if t, err := time.Parse(layout, cand); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}

	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ParseEpoch converts an epoch value to UTC, treating values above 1e12 as
// milliseconds.
func ParseEpoch(ts float64) *time.Time {
	if ts <= 0 {
		return nil
	}
	if ts > 1e12 {
		ts /= 1000.0
	}
	t := time.Unix(int64(ts), int64((ts-float64(int64(ts)))*1e9)).UTC()
	return &t
}

// ExtractSalary pulls a rough salary range out of free text: two-to-three
// digit amounts with an optional thousands group and k suffix, first four
// matches considered. Returns (min, max) where max is nil for a single value.
func ExtractSalary(desc string) (*float64, *float64) {
	matches := salaryRe.FindAllStringSubmatch(desc, -1)
	vals := make([]float64, 0, 4)
	for i, m := range matches {
		if i >= 4 {
			break
		}
		n := m[1]
		n2 := strings.NewReplacer(",", "", " ", "").Replace(n)
		v, err := strconv.ParseFloat(n2, 64)
		if err != nil {
			continue
		}
		if kSuffixed(desc, n) {
			v *= 1000
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if len(vals) == 1 {
		return &lo, nil
	}
	return &lo, &hi
}

func kSuffixed(desc, num string) bool {
	re, err := regexp.Compile(regexp.QuoteMeta(num) + `\s*[kK]`)
	if err != nil {
		return false
	}
	return re.MatchString(desc)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
