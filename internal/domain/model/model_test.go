package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJobKey(t *testing.T) {
	assert.Equal(t, "greenhouse:acme:123", BuildJobKey(" Greenhouse ", "Acme", "123", "https://x"))

	urlKey := BuildJobKey("lever", "globex", "", "https://jobs.lever.co/globex/1")
	assert.Contains(t, urlKey, "lever:url:")
	assert.Len(t, urlKey, len("lever:url:")+40, "sha1 hex digest")
	assert.Equal(t, urlKey, BuildJobKey("lever", "globex", "", "https://jobs.lever.co/globex/1"),
		"url-derived keys are stable")

	fallback := BuildJobKey("comeet", "acme", "", "")
	assert.Contains(t, fallback, "comeet:url:")
}

func TestCanonicalizeAlertFiltersIdempotent(t *testing.T) {
	a := UpsertAlertRequest{
		Email:    "a@b.c",
		Cities:   []string{"Tel Aviv, Herzliya", "tel aviv"},
		Keywords: []string{" Go ", "backend"},
		Provider: " Greenhouse ",
	}
	b := UpsertAlertRequest{
		Email:    "a@b.c",
		Cities:   []string{"Herzliya", "Tel Aviv"},
		Keywords: []string{"backend", "go"},
		Provider: "greenhouse",
	}

	fa, fb := a.CanonicalizeAlertFilters(), b.CanonicalizeAlertFilters()
	assert.Equal(t, []string{"Herzliya", "Tel Aviv"}, fa.Cities)
	assert.Equal(t, fa.FilterHash(), fb.FilterHash(),
		"logically equivalent submissions share an identity")

	c := b
	c.MinScore = 10
	assert.NotEqual(t, fb.FilterHash(), c.CanonicalizeAlertFilters().FilterHash())
}

func TestFilterHashIgnoresDeliveryKnobs(t *testing.T) {
	limit, freq := 5, 30
	base := UpsertAlertRequest{Email: "a@b.c", Keywords: []string{"go"}}
	tweaked := base
	tweaked.SendLimit = &limit
	tweaked.FrequencyMinutes = &freq

	assert.Equal(t,
		base.CanonicalizeAlertFilters().FilterHash(),
		tweaked.CanonicalizeAlertFilters().FilterHash(),
		"send_limit and frequency update the alert, they never fork a new one")
}

func TestCanonicalizeAlertFiltersClamps(t *testing.T) {
	limit, freq := 9999, 1
	req := UpsertAlertRequest{
		Email:            "a@b.c",
		MinScore:         -5,
		SendLimit:        &limit,
		FrequencyMinutes: &freq,
	}
	f := req.CanonicalizeAlertFilters()
	assert.Equal(t, 0, f.MinScore)
	assert.Equal(t, SendLimitCeil, f.SendLimit)
	assert.Equal(t, FrequencyMinsFloor, f.FrequencyMinutes)
	assert.Equal(t, "any", f.Remote)
	assert.True(t, f.OnlyActive)
}

func TestNormalizeTextList(t *testing.T) {
	got := NormalizeTextList([]string{"b, a", " B ", "", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got, "first spelling wins, sorted case-insensitively")
	assert.Empty(t, NormalizeTextList(nil))
}

func TestCompanyInputNormalizeAndValidate(t *testing.T) {
	c := CompanyInput{Provider: " Greenhouse ", Name: " Acme "}
	c.Normalize()
	require.NoError(t, c.Validate())
	assert.Equal(t, "greenhouse", c.Provider)
	assert.Equal(t, "Acme", c.Org, "org falls back to name")

	bad := CompanyInput{Org: "acme"}
	bad.Normalize()
	assert.ErrorIs(t, bad.Validate(), ErrCompanyInputInvalid)
}

func TestJobDraftJobKeyMatchesStoredIdentity(t *testing.T) {
	created := time.Now()
	d := JobDraft{Provider: "greenhouse", Org: "acme", ExternalID: "7", URL: "https://x", CreatedAt: &created}
	assert.Equal(t, "greenhouse:acme:7", d.JobKey())
}
