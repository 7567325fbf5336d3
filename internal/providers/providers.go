// Package providers implements the ATS vendor adapters. Each adapter maps one
// vendor's public postings API onto RawPosting; normalization, scoring and
// filtering happen downstream.
package providers

import (
	"net/http"
	"strings"
	"time"

	"github.com/jobradar/jobradar/internal/core"
)

// Names is the closed set of supported provider slugs, in registry order.
var Names = []string{
	"greenhouse",
	"lever",
	"ashby",
	"smartrecruiters",
	"breezy",
	"comeet",
	"workday",
	"recruitee",
	"jobvite",
	"icims",
	"workable",
}

// Registry holds one adapter per supported vendor.
type Registry struct {
	byName map[string]core.Provider
}

// NewRegistry builds the full adapter set. A nil client gets a default with a
// 30 second timeout.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	f := &fetcher{client: client}
	providers := []core.Provider{
		&Greenhouse{f: f},
		&Lever{f: f},
		&Ashby{},
		&SmartRecruiters{f: f},
		&Breezy{f: f},
		&Comeet{f: f},
		&Workday{f: f},
		&Recruitee{f: f},
		&Jobvite{f: f},
		&ICIMS{f: f},
		&Workable{f: f},
	}
	byName := make(map[string]core.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Registry{byName: byName}
}

// Get returns the adapter for a provider slug, case-insensitively.
func (r *Registry) Get(name string) (core.Provider, bool) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Supported reports whether the slug names a known provider.
func (r *Registry) Supported(name string) bool {
	_, ok := r.Get(name)
	return ok
}
