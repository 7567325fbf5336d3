package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/jobradar/internal/domain/model"
)

func draft(title, location, companyCity, workMode string, remote bool) model.JobDraft {
	return model.JobDraft{
		ExternalID:  "1",
		Title:       title,
		Provider:    "greenhouse",
		Org:         "acme",
		Location:    location,
		CompanyCity: companyCity,
		WorkMode:    workMode,
		Remote:      remote,
	}
}

func TestApplyCityRule(t *testing.T) {
	cities := []string{"Tel Aviv"}

	t.Run("explicit city match passes", func(t *testing.T) {
		got := Apply([]model.JobDraft{draft("Eng", "Tel Aviv, Israel", "", "", false)}, Filters{Cities: cities})
		assert.Len(t, got, 1)
	})

	t.Run("different concrete city rejected even when remote", func(t *testing.T) {
		d := draft("Eng", "Berlin, Germany", "Tel Aviv", model.WorkModeRemote, true)
		got := Apply([]model.JobDraft{d}, Filters{Cities: cities})
		assert.Empty(t, got)
	})

	t.Run("remote-only location falls back to company city", func(t *testing.T) {
		d := draft("Eng", "Remote - Worldwide", "Tel Aviv", model.WorkModeRemote, true)
		got := Apply([]model.JobDraft{d}, Filters{Cities: cities})
		assert.Len(t, got, 1)
	})

	t.Run("empty location falls back to company city", func(t *testing.T) {
		d := draft("Eng", "", "Tel Aviv", "", false)
		got := Apply([]model.JobDraft{d}, Filters{Cities: cities})
		assert.Len(t, got, 1)
	})

	t.Run("empty location and non-matching company city rejected", func(t *testing.T) {
		d := draft("Eng", "", "Haifa", "", false)
		got := Apply([]model.JobDraft{d}, Filters{Cities: cities})
		assert.Empty(t, got)
	})
}

func TestApplyRemoteSelector(t *testing.T) {
	cases := []struct {
		name   string
		remote string
		d      model.JobDraft
		keep   bool
	}{
		{"hybrid requires explicit mode", "hybrid", draft("Eng", "", "", model.WorkModeHybrid, false), true},
		{"hybrid rejects remote mode", "hybrid", draft("Eng", "", "", model.WorkModeRemote, true), false},
		{"hybrid rejects flag-only remote", "hybrid", draft("Eng", "", "", "", true), false},
		{"true with remote mode", "true", draft("Eng", "", "", model.WorkModeRemote, true), true},
		{"true with onsite mode rejects despite flag", "true", draft("Eng", "", "", model.WorkModeOnsite, true), false},
		{"true falls back to flag when mode empty", "true", draft("Eng", "", "", "", true), true},
		{"false with onsite mode", "false", draft("Eng", "", "", model.WorkModeOnsite, false), true},
		{"false rejects hybrid", "false", draft("Eng", "", "", model.WorkModeHybrid, false), false},
		{"false falls back to flag when mode empty", "false", draft("Eng", "", "", "", true), false},
		{"any keeps everything", "any", draft("Eng", "", "", model.WorkModeHybrid, false), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply([]model.JobDraft{tc.d}, Filters{Remote: tc.remote})
			if tc.keep {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestApplyProviderScoreAge(t *testing.T) {
	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	fresh := time.Now().UTC().Add(-2 * 24 * time.Hour)
	maxAge := 30

	a := draft("Eng", "", "", "", false)
	a.Provider = "lever"
	a.Score = 50
	a.CreatedAt = &fresh

	b := draft("Eng", "", "", "", false)
	b.Score = 10
	b.CreatedAt = &old

	undated := draft("Eng", "", "", "", false)
	undated.Score = 50

	got := Apply([]model.JobDraft{a, b, undated}, Filters{Provider: "lever", MinScore: 20, MaxAgeDays: &maxAge})
	require.Len(t, got, 1)
	assert.Equal(t, "lever", got[0].Provider)

	// undated drafts pass the age filter but failed the provider filter above
	got = Apply([]model.JobDraft{undated}, Filters{MinScore: 20, MaxAgeDays: &maxAge})
	assert.Len(t, got, 1)
}

func TestFilterByTitleKeywords(t *testing.T) {
	drafts := []model.JobDraft{
		draft("Senior Backend Engineer", "", "", "", false),
		draft("Product Designer", "", "", "", false),
	}
	got := FilterByTitleKeywords(drafts, []string{"backend"})
	require.Len(t, got, 1)
	assert.Equal(t, "Senior Backend Engineer", got[0].Title)

	assert.Len(t, FilterByTitleKeywords(drafts, nil), 2)
}
