package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jobradar/jobradar/internal/data"
	"github.com/jobradar/jobradar/internal/domain/model"
	"github.com/jobradar/jobradar/internal/service"
)

const defaultPipelineTimeout = 10 * time.Minute

type scanOptions struct {
	CompaniesFile string
	Cities        []string
	Keywords      []string
	Provider      string
	Remote        string
	MinScore      int
	MaxAgeDays    int
	CSVPath       string
	JSON          bool
}

func parseScanFlags(cmdCtx *commandContext, args []string) (scanOptions, error) {
	var opts scanOptions
	var cities, keywords string

	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.StringVar(&opts.CompaniesFile, "companies", cmdCtx.Config.CompaniesFile, "path to the company list file")
	fs.StringVar(&cities, "cities", "", "comma-separated city filter")
	fs.StringVar(&keywords, "keywords", "", "comma-separated scoring keywords")
	fs.StringVar(&opts.Provider, "provider", "", "restrict to one provider slug")
	fs.StringVar(&opts.Remote, "remote", "any", "remote filter: any, only, exclude")
	fs.IntVar(&opts.MinScore, "min-score", 0, "drop postings scoring below this")
	fs.IntVar(&opts.MaxAgeDays, "max-age-days", -1, "drop postings older than this many days (-1 disables)")
	fs.StringVar(&opts.CSVPath, "csv", "", "write results to this CSV file")
	fs.BoolVar(&opts.JSON, "json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.Cities = splitListFlag(cities)
	opts.Keywords = splitListFlag(keywords)
	return opts, nil
}

func runScan(cmdCtx *commandContext, args []string) (err error) {
	opts, err := parseScanFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultPipelineTimeout)
	defer cancel()

	companies, skipped, err := data.LoadCompaniesFile(opts.CompaniesFile)
	if err != nil {
		return err
	}
	if skipped > 0 {
		cmdCtx.Logger.Warn("company list has invalid records", "skipped", skipped)
	}

	deps, err := openAdminDeps(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deps.Close()) }()

	scanOpts := service.ScanOptions{
		Companies: companies,
		Cities:    opts.Cities,
		Keywords:  opts.Keywords,
		Provider:  opts.Provider,
		Remote:    opts.Remote,
		MinScore:  opts.MinScore,
	}
	if opts.MaxAgeDays >= 0 {
		maxAge := opts.MaxAgeDays
		scanOpts.MaxAgeDays = &maxAge
	}

	drafts, err := deps.Services.Aggregate.Scan(ctx, scanOpts)
	if err != nil {
		return err
	}

	if opts.CSVPath != "" {
		count, csvErr := exportCSV(opts.CSVPath, draftRows(drafts))
		if csvErr != nil {
			return csvErr
		}
		cmdCtx.Logger.Info("scan results exported", "path", opts.CSVPath, "rows", count)
		return nil
	}
	if opts.JSON {
		return printJSON(drafts)
	}
	return printDrafts(drafts)
}

func runRefresh(cmdCtx *commandContext, args []string) (err error) {
	var companiesFile, cities, keywords, provider string

	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	fs.StringVar(&companiesFile, "companies", cmdCtx.Config.CompaniesFile, "path to the company list file")
	fs.StringVar(&cities, "cities", "", "comma-separated cities used for scoring")
	fs.StringVar(&keywords, "keywords", "", "comma-separated scoring keywords")
	fs.StringVar(&provider, "provider", "", "restrict to one provider slug")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultPipelineTimeout)
	defer cancel()

	companies, skipped, err := data.LoadCompaniesFile(companiesFile)
	if err != nil {
		return err
	}
	if skipped > 0 {
		cmdCtx.Logger.Warn("company list has invalid records", "skipped", skipped)
	}
	if len(companies) == 0 {
		return errors.New("company list is empty")
	}

	deps, err := openAdminDeps(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deps.Close()) }()

	summary, err := deps.Services.Aggregate.Refresh(ctx, service.RefreshOptions{
		Companies: companies,
		Cities:    splitListFlag(cities),
		Keywords:  splitListFlag(keywords),
		Provider:  provider,
	})
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runDiscover(cmdCtx *commandContext, args []string) (err error) {
	var cities, keywords, sources string
	var limit int
	var strict, asJSON bool

	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	fs.StringVar(&cities, "cities", "", "comma-separated cities to search near")
	fs.StringVar(&keywords, "keywords", "", "comma-separated query keywords")
	fs.StringVar(&sources, "sources", "", "comma-separated provider slugs to search (default all)")
	fs.IntVar(&limit, "limit", 0, "stop after this many companies (default 50)")
	fs.BoolVar(&strict, "strict", false, "fail when the search API key is missing")
	fs.BoolVar(&asJSON, "json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultPipelineTimeout)
	defer cancel()

	deps, err := openAdminDeps(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deps.Close()) }()

	found, err := deps.Services.Discovery.Discover(ctx, service.DiscoverOptions{
		Cities:   splitListFlag(cities),
		Keywords: splitListFlag(keywords),
		Sources:  splitListFlag(sources),
		Limit:    limit,
	})
	if errors.Is(err, service.ErrMissingAPIKey) && !strict {
		cmdCtx.Logger.Warn("discovery unavailable", "reason", "SERPAPI_API_KEY not set")
		found = nil
	} else if err != nil {
		return err
	}

	if asJSON {
		return printJSON(found)
	}
	for _, company := range found {
		if werr := writef(os.Stdout, "%-12s %-24s %-20s %s\n",
			company.Provider, company.Org, company.City, company.CareersURL); werr != nil {
			return werr
		}
	}
	return writef(os.Stdout, "%d companies discovered\n", len(found))
}

func runCompaniesValidate(cmdCtx *commandContext, args []string) error {
	var path string
	var verbose bool

	fs := flag.NewFlagSet("companies-validate", flag.ContinueOnError)
	fs.StringVar(&path, "file", cmdCtx.Config.CompaniesFile, "path to the company list file")
	fs.BoolVar(&verbose, "v", false, "print every accepted record")
	if err := fs.Parse(args); err != nil {
		return err
	}

	companies, skipped, err := data.LoadCompaniesFile(path)
	if err != nil {
		return err
	}

	if verbose {
		for _, c := range companies {
			if werr := writef(os.Stdout, "%-12s %-24s %s\n", c.Provider, c.Org, c.Name); werr != nil {
				return werr
			}
		}
	}
	return writef(os.Stdout, "%s: %d valid, %d rejected\n", path, len(companies), skipped)
}

func printDrafts(drafts []model.JobDraft) error {
	for _, d := range drafts {
		line := fmt.Sprintf("[%3d] %s - %s", d.Score, d.Title, d.CompanyName)
		if d.Location != "" {
			line += " (" + d.Location + ")"
		}
		if err := writef(os.Stdout, "%s\n      %s\n", line, d.URL); err != nil {
			return err
		}
	}
	return writef(os.Stdout, "%d jobs\n", len(drafts))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitListFlag(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
