//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// Company represents an organization hosting a job board on a known ATS vendor.
// Identity is (provider, org); rows are upserted during refresh and never deleted.
type Company struct {
	ID         int64     `json:"id"          db:"id"`
	Name       string    `json:"name"        db:"name"`
	City       *string   `json:"city"        db:"city"`
	Provider   string    `json:"provider"    db:"provider"`
	Org        string    `json:"org"         db:"org"`
	CareersURL *string   `json:"careers_url" db:"careers_url"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// CompanyInput is an unvalidated company record from the static list or discovery.
type CompanyInput struct {
	Name       string `json:"name"`
	City       string `json:"city,omitempty"`
	Provider   string `json:"provider"`
	Org        string `json:"org"`
	CareersURL string `json:"careers_url,omitempty"`
}

// ErrCompanyInputInvalid is returned for company records missing provider or org.
var ErrCompanyInputInvalid = errors.New("company requires provider and org")

// Normalize trims fields and lower-cases the provider slug.
func (c *CompanyInput) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Org = strings.TrimSpace(c.Org)
	c.Name = strings.TrimSpace(c.Name)
	c.City = strings.TrimSpace(c.City)
	c.CareersURL = strings.TrimSpace(c.CareersURL)
	if c.Org == "" {
		c.Org = c.Name
	}
	if c.Name == "" {
		c.Name = c.Org
	}
}

// Validate reports whether the record can be sent to an adapter or the store.
func (c *CompanyInput) Validate() error {
	if c.Provider == "" || c.Org == "" {
		return ErrCompanyInputInvalid
	}
	return nil
}

// Key returns the (provider, org) identity pair.
func (c *CompanyInput) Key() CompanyKey {
	return CompanyKey{Provider: c.Provider, Org: c.Org}
}

// CompanyKey identifies a company across providers.
type CompanyKey struct {
	Provider string
	Org      string
}
