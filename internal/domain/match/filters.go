package match

import (
	"regexp"
	"strings"
	"time"

	"github.com/jobradar/jobradar/internal/domain/model"
)

// remoteOnlyTokens are location words that indicate a remote-only posting
// rather than a concrete city.
var remoteOnlyTokens = map[string]struct{}{
	"remote": {}, "remotely": {}, "anywhere": {}, "wfh": {}, "work": {},
	"from": {}, "home": {}, "homebased": {}, "based": {}, "global": {},
	"worldwide": {}, "international": {}, "only": {}, "telecommute": {},
	"telecommuting": {},
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Filters is the post-scoring filter contract applied on scan and query paths.
type Filters struct {
	Provider   string
	Remote     string
	MinScore   int
	MaxAgeDays *int
	Cities     []string
}

// Apply runs the provider, remote/work-mode, city, score and age filters over
// drafts, preserving order.
//
// The city rule: a location that names any wanted city passes; a location that
// names a different concrete city is rejected even when the posting is remote;
// locations that are empty or purely remote-ish fall back to the company city.
func Apply(drafts []model.JobDraft, f Filters) []model.JobDraft {
	prov := strings.ToLower(strings.TrimSpace(f.Provider))
	remote := strings.ToLower(strings.TrimSpace(f.Remote))
	cities := make([]string, 0, len(f.Cities))
	for _, c := range f.Cities {
		if cn := NormalizeText(c); cn != "" {
			cities = append(cities, cn)
		}
	}

	out := make([]model.JobDraft, 0, len(drafts))
	for _, d := range drafts {
		if prov != "" && strings.ToLower(d.Provider) != prov {
			continue
		}
		if !matchesRemote(d, remote) {
			continue
		}
		if len(cities) > 0 && !matchesCities(d, cities) {
			continue
		}
		if d.Score < f.MinScore {
			continue
		}
		if f.MaxAgeDays != nil && d.CreatedAt != nil {
			age := int(time.Since(*d.CreatedAt).Hours() / 24)
			if age > *f.MaxAgeDays {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

// matchesRemote implements the remote/hybrid/onsite selector. Work mode is
// authoritative when present; the boolean remote flag is consulted only for
// postings with no inferred mode.
func matchesRemote(d model.JobDraft, remote string) bool {
	switch remote {
	case "hybrid":
		return d.WorkMode == model.WorkModeHybrid
	case "true":
		if d.WorkMode != "" {
			return d.WorkMode == model.WorkModeRemote
		}
		return d.Remote
	case "false":
		if d.WorkMode != "" {
			return d.WorkMode == model.WorkModeOnsite
		}
		return !d.Remote
	default:
		return true
	}
}

func matchesCities(d model.JobDraft, cities []string) bool {
	locn := NormalizeText(d.Location)
	companyCity := NormalizeText(d.CompanyCity)

	for _, c := range cities {
		if strings.Contains(locn, c) {
			return true
		}
	}

	tokens := splitTokens(locn)
	remoteOnly := len(tokens) == 0 || allRemoteTokens(tokens)
	if locn != "" && !remoteOnly {
		return false
	}

	isRemoteish := remoteOnly || locn == "" || d.WorkMode == model.WorkModeRemote || d.Remote
	if !isRemoteish {
		return false
	}
	for _, c := range cities {
		if strings.Contains(companyCity, c) {
			return true
		}
	}
	return false
}

func splitTokens(locn string) []string {
	parts := nonAlnumRe.Split(locn, -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func allRemoteTokens(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := remoteOnlyTokens[t]; !ok {
			return false
		}
	}
	return true
}

// FilterByTitleKeywords keeps drafts whose title contains any keyword
// substring, case-insensitively. An empty keyword list keeps everything.
func FilterByTitleKeywords(drafts []model.JobDraft, keywords []string) []model.JobDraft {
	needles := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if kn := NormalizeText(k); kn != "" {
			needles = append(needles, kn)
		}
	}
	if len(needles) == 0 {
		return drafts
	}
	out := make([]model.JobDraft, 0, len(drafts))
	for _, d := range drafts {
		title := NormalizeText(d.Title)
		for _, n := range needles {
			if strings.Contains(title, n) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
