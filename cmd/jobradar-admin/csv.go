package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/jobradar/jobradar/internal/domain/model"
)

// exportCSV writes rows to path with a header built from the sorted union of
// every row's keys, so optional fields present on any row get a column. An
// empty input still creates the file. Returns the number of data rows written.
func exportCSV(path string, rows []map[string]string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if len(rows) == 0 {
		return 0, nil
	}

	keySet := map[string]struct{}{}
	for _, row := range rows {
		for k := range row {
			keySet[k] = struct{}{}
		}
	}
	fields := make([]string, 0, len(keySet))
	for k := range keySet {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(fields))
	for _, row := range rows {
		for i, field := range fields {
			record[i] = row[field]
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(rows), nil
}

// draftRows flattens scan results for CSV export. Optional fields are only
// emitted when set, so columns reflect the data actually present.
func draftRows(drafts []model.JobDraft) []map[string]string {
	rows := make([]map[string]string, 0, len(drafts))
	for _, d := range drafts {
		row := map[string]string{
			"job_key":  d.JobKey(),
			"provider": d.Provider,
			"org":      d.Org,
			"company":  d.CompanyName,
			"title":    d.Title,
			"url":      d.URL,
			"score":    strconv.Itoa(d.Score),
			"remote":   strconv.FormatBool(d.Remote),
		}
		if d.Location != "" {
			row["location"] = d.Location
		}
		if d.CreatedAt != nil {
			row["created_at"] = d.CreatedAt.UTC().Format("2006-01-02")
		}
		if d.Reasons != "" {
			row["reasons"] = d.Reasons
		}
		if d.WorkMode != "" {
			row["work_mode"] = d.WorkMode
		}
		rows = append(rows, row)
	}
	return rows
}
