package match

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/jobradar/jobradar/internal/domain/model"
)

const descScoreWindow = 4000

// GeoCenter is a reference coordinate for proximity scoring.
type GeoCenter struct {
	Lat float64
	Lon float64
}

// GeoOptions enables the proximity bonus when both centers and a radius are set.
type GeoOptions struct {
	Centers  []GeoCenter
	RadiusKM float64
}

// Score ranks a draft against the keyword and city preferences. The weights:
// exact title keyword +20, fuzzy partial-ratio bonuses on title and
// description, city substring +15, remote +5 / hybrid +4, freshness up to +30
// decaying per day, salary +5, geo proximity up to +20 within the radius.
// Returns the score and the matched-reason labels.
func Score(draft model.JobDraft, keywords, cities []string, geo *GeoOptions) (int, []string) {
	s := 0
	var reasons []string
	t := NormalizeText(draft.Title)
	loc := NormalizeText(draft.Location)
	desc := draft.Description
	if len(desc) > descScoreWindow {
		desc = desc[:descScoreWindow]
	}
	desc = NormalizeText(desc)

	for _, kw := range keywords {
		k := NormalizeText(kw)
		if k == "" {
			continue
		}
		if strings.Contains(t, k) {
			s += 20
			reasons = append(reasons, "title:"+k)
		}
		s += int(0.2 * float64(fuzzy.PartialRatio(k, t)))
		s += int(0.1 * float64(fuzzy.PartialRatio(k, desc)))
		if strings.Contains(desc, k) {
			reasons = append(reasons, "desc:"+k)
		}
	}

	for _, c := range cities {
		if cn := NormalizeText(c); cn != "" && strings.Contains(loc, cn) {
			s += 15
			reasons = append(reasons, "city")
			break
		}
	}

	switch draft.WorkMode {
	case model.WorkModeRemote:
		s += 5
		reasons = append(reasons, "remote")
	case model.WorkModeHybrid:
		s += 4
		reasons = append(reasons, "hybrid")
	default:
		if draft.Remote {
			s += 5
			reasons = append(reasons, "remote")
		}
	}

	if draft.CreatedAt != nil {
		days := int(time.Since(*draft.CreatedAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		if bonus := 30 - days; bonus > 0 {
			s += bonus
		}
		reasons = append(reasons, fmt.Sprintf("fresh-%dd", days))
	}

	if hasSalary(draft.Raw) {
		s += 5
		reasons = append(reasons, "salary")
	}

	if geo != nil && geo.RadiusKM > 0 && len(geo.Centers) > 0 {
		if lat, lon, ok := extraCoords(draft.Raw); ok {
			for _, c := range geo.Centers {
				d := HaversineKM(c.Lat, c.Lon, lat, lon)
				if d <= geo.RadiusKM {
					if bonus := int(20 * (1 - d/geo.RadiusKM)); bonus > 0 {
						s += bonus
					}
					reasons = append(reasons, fmt.Sprintf("geo:%dkm", int(d)))
					break
				}
			}
		}
	}

	return s, reasons
}

// HaversineKM returns the great-circle distance between two coordinates.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)
	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Pow(math.Sin(dlon/2), 2)
	return earthRadiusKM * 2 * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func hasSalary(extra map[string]any) bool {
	return truthyNumber(extra["salary_min"]) || truthyNumber(extra["salary_max"])
}

func truthyNumber(v any) bool {
	f, ok := asFloat(v)
	return ok && f != 0
}

func extraCoords(extra map[string]any) (lat, lon float64, ok bool) {
	lat, latOK := asFloat(extra["lat"])
	lon, lonOK := asFloat(extra["lon"])
	return lat, lon, latOK && lonOK
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
