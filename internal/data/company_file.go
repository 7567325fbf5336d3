package data

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jobradar/jobradar/internal/domain/model"
)

// companiesDocument is the on-disk shape of the static company list. The file
// holds either a bare JSON array of company records or an object with a
// "companies" key.
type companiesDocument struct {
	Companies []model.CompanyInput `json:"companies"`
}

// LoadCompaniesFile reads the static company list from path. Records missing
// a provider or an org after trimming are dropped; the second return value
// reports how many were dropped so callers can surface the count.
func LoadCompaniesFile(path string) ([]model.CompanyInput, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read companies file: %w", err)
	}

	var records []model.CompanyInput
	var doc companiesDocument
	if err := json.Unmarshal(raw, &doc); err == nil {
		records = doc.Companies
	} else if listErr := json.Unmarshal(raw, &records); listErr != nil {
		return nil, 0, fmt.Errorf("parse companies file %s: %w", path, err)
	}

	companies := make([]model.CompanyInput, 0, len(records))
	skipped := 0
	for _, rec := range records {
		rec.Normalize()
		if rec.Validate() != nil {
			skipped++
			continue
		}
		companies = append(companies, rec)
	}
	return companies, skipped, nil
}
