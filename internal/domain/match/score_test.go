package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jobradar/jobradar/internal/domain/model"
)

func TestScoreWeights(t *testing.T) {
	t.Run("remote bonus without keywords", func(t *testing.T) {
		d := model.JobDraft{Title: "Engineer", WorkMode: model.WorkModeRemote}
		s, reasons := Score(d, nil, nil, nil)
		assert.Equal(t, 5, s)
		assert.Contains(t, reasons, "remote")
	})

	t.Run("hybrid bonus", func(t *testing.T) {
		d := model.JobDraft{Title: "Engineer", WorkMode: model.WorkModeHybrid}
		s, reasons := Score(d, nil, nil, nil)
		assert.Equal(t, 4, s)
		assert.Contains(t, reasons, "hybrid")
	})

	t.Run("legacy remote flag only counts when mode unknown", func(t *testing.T) {
		d := model.JobDraft{Title: "Engineer", Remote: true}
		s, _ := Score(d, nil, nil, nil)
		assert.Equal(t, 5, s)

		d.WorkMode = model.WorkModeOnsite
		s, _ = Score(d, nil, nil, nil)
		assert.Equal(t, 0, s)
	})

	t.Run("city substring bonus", func(t *testing.T) {
		d := model.JobDraft{Title: "Engineer", Location: "Tel Aviv, Israel"}
		s, reasons := Score(d, nil, []string{"tel aviv"}, nil)
		assert.Equal(t, 15, s)
		assert.Contains(t, reasons, "city")
	})

	t.Run("freshness decays per day", func(t *testing.T) {
		created := time.Now().UTC().Add(-10 * 24 * time.Hour)
		d := model.JobDraft{Title: "Engineer", CreatedAt: &created}
		s, reasons := Score(d, nil, nil, nil)
		assert.Equal(t, 20, s)
		assert.Contains(t, reasons, "fresh-10d")

		stale := time.Now().UTC().Add(-60 * 24 * time.Hour)
		d.CreatedAt = &stale
		s, _ = Score(d, nil, nil, nil)
		assert.Equal(t, 0, s)
	})

	t.Run("title keyword adds exact bonus plus fuzzy", func(t *testing.T) {
		d := model.JobDraft{Title: "Senior Golang Engineer"}
		with, reasons := Score(d, []string{"golang"}, nil, nil)
		assert.GreaterOrEqual(t, with, 20)
		assert.Contains(t, reasons, "title:golang")

		without, _ := Score(d, []string{"astrophysics"}, nil, nil)
		assert.Greater(t, with, without)
	})

	t.Run("salary bonus from extracted range", func(t *testing.T) {
		d := model.JobDraft{Title: "Engineer", Raw: map[string]any{"salary_min": 120000.0}}
		s, reasons := Score(d, nil, nil, nil)
		assert.Equal(t, 5, s)
		assert.Contains(t, reasons, "salary")
	})

	t.Run("geo bonus within radius, first center wins", func(t *testing.T) {
		d := model.JobDraft{
			Title: "Engineer",
			Raw:   map[string]any{"lat": 32.0853, "lon": 34.7818}, // Tel Aviv
		}
		geo := &GeoOptions{
			Centers:  []GeoCenter{{Lat: 32.0853, Lon: 34.7818}},
			RadiusKM: 30,
		}
		s, reasons := Score(d, nil, nil, geo)
		assert.Equal(t, 20, s)
		assert.Contains(t, reasons, "geo:0km")

		far := &GeoOptions{Centers: []GeoCenter{{Lat: 52.52, Lon: 13.405}}, RadiusKM: 30}
		s, _ = Score(d, nil, nil, far)
		assert.Equal(t, 0, s)
	})
}

func TestHaversineKM(t *testing.T) {
	// Tel Aviv to Jerusalem is roughly 54km.
	d := HaversineKM(32.0853, 34.7818, 31.7683, 35.2137)
	assert.InDelta(t, 54, d, 3)
	assert.Zero(t, HaversineKM(10, 10, 10, 10))
}
