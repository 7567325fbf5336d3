// Package service implements the aggregation, query, discovery and alerting
// logic on top of the core ports.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/data"
	"github.com/jobradar/jobradar/internal/domain/match"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// Per-company fetch outcomes for one collection pass.
const (
	FetchStatusOK      = "ok"
	FetchStatusFail    = "fail"
	FetchStatusSkipped = "skipped"
)

// maxFetchWorkers caps the provider fan-out.
const maxFetchWorkers = 8

// AggregateService fans fetches out across provider adapters and turns raw
// postings into normalized, scored drafts. Scan is the read-only pipeline;
// Refresh persists.
type AggregateService struct {
	registry     core.ProviderRegistry
	companies    core.CompanyRepository
	jobs         core.JobRepository
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// AggregateServiceOptions contains dependencies for AggregateService.
type AggregateServiceOptions struct {
	Registry     core.ProviderRegistry
	Companies    core.CompanyRepository
	Jobs         core.JobRepository
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// NewAggregateService creates an AggregateService with the given options.
func NewAggregateService(opts AggregateServiceOptions) *AggregateService {
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AggregateService{
		registry:     opts.Registry,
		companies:    opts.Companies,
		jobs:         opts.Jobs,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger,
	}
}

// ScanOptions parameterizes one in-memory scan pass.
type ScanOptions struct {
	Companies  []model.CompanyInput
	Cities     []string
	Keywords   []string
	Provider   string
	Remote     string
	MinScore   int
	MaxAgeDays *int
	Geo        *match.GeoOptions
}

// RefreshOptions parameterizes one persistence pass.
type RefreshOptions struct {
	Companies []model.CompanyInput
	Cities    []string
	Keywords  []string
	Provider  string
}

// RefreshSummary reports what one refresh pass did.
type RefreshSummary struct {
	JobsSeen       int `json:"jobs_seen"`
	JobsWritten    int `json:"jobs_written"`
	InactiveMarked int `json:"inactive_marked"`
	Companies      int `json:"companies"`
	FailedFetches  int `json:"failed_fetches"`
}

// collectParams is the internal shape shared by Scan and Refresh.
type collectParams struct {
	companies      []model.CompanyInput
	cities         []string
	keywords       []string
	provider       string
	filterByCities bool
	computeScores  bool
	geo            *match.GeoOptions
}

// companyResult is one company's slice of a collection pass.
type companyResult struct {
	input  model.CompanyInput
	drafts []model.JobDraft
	status string
}

// Scan fetches, normalizes, scores and filters without touching the store.
// Results preserve company order, deduped on job key.
func (s *AggregateService) Scan(ctx context.Context, opts ScanOptions) ([]model.JobDraft, error) {
	cities := match.ExpandCityAliases(match.CleanList(opts.Cities))
	keywords := match.CleanList(opts.Keywords)

	collected := s.collect(ctx, collectParams{
		companies:      opts.Companies,
		cities:         cities,
		keywords:       keywords,
		provider:       strings.ToLower(strings.TrimSpace(opts.Provider)),
		filterByCities: true,
		computeScores:  true,
		geo:            opts.Geo,
	})

	var flat []model.JobDraft
	for _, c := range collected {
		flat = append(flat, c.drafts...)
	}
	flat = match.Dedupe(flat)

	remote := opts.Remote
	if remote == "" {
		remote = "any"
	}
	minScore := opts.MinScore
	if minScore < 0 {
		minScore = 0
	}
	return match.Apply(flat, match.Filters{
		Provider:   opts.Provider,
		Remote:     remote,
		MinScore:   minScore,
		MaxAgeDays: opts.MaxAgeDays,
		Cities:     cities,
	}), nil
}

// Refresh fetches every company and persists the results. Companies whose
// fetch failed still get their company row upserted, but their jobs are left
// untouched so a vendor outage cannot mass-deactivate postings.
func (s *AggregateService) Refresh(ctx context.Context, opts RefreshOptions) (RefreshSummary, error) {
	cities := match.ExpandCityAliases(match.CleanList(opts.Cities))
	keywords := match.CleanList(opts.Keywords)

	collected := s.collect(ctx, collectParams{
		companies:     opts.Companies,
		cities:        cities,
		keywords:      keywords,
		provider:      strings.ToLower(strings.TrimSpace(opts.Provider)),
		computeScores: true,
	})

	summary := RefreshSummary{Companies: len(opts.Companies)}
	var flat []model.JobDraft
	for _, c := range collected {
		flat = append(flat, c.drafts...)
	}
	summary.JobsSeen = len(match.Dedupe(flat))

	now := s.timeProvider.Now().UTC()
	for _, c := range collected {
		switch c.status {
		case FetchStatusOK:
			res, err := s.jobs.SyncCompanyJobs(ctx, c.input, c.drafts, now)
			if err != nil {
				if errors.Is(err, model.ErrCompanyInputInvalid) {
					s.logger.Warn("skipping invalid company record",
						"provider", c.input.Provider, "org", c.input.Org)
					continue
				}
				return summary, err
			}
			summary.JobsWritten += res.Written
			summary.InactiveMarked += res.MarkedInactive
		case FetchStatusFail:
			summary.FailedFetches++
			if _, err := s.companies.Upsert(ctx, c.input); err != nil &&
				!errors.Is(err, model.ErrCompanyInputInvalid) {
				return summary, err
			}
		}
	}
	return summary, nil
}

// collect runs the provider fan-out. The returned slice is index-aligned with
// p.companies so downstream ordering is deterministic.
func (s *AggregateService) collect(ctx context.Context, p collectParams) []companyResult {
	out := make([]companyResult, len(p.companies))
	if len(p.companies) == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(maxFetchWorkers, len(p.companies)))
	for i, company := range p.companies {
		i, company := i, company
		g.Go(func() error {
			out[i] = s.collectCompany(gctx, company, p)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *AggregateService) collectCompany(ctx context.Context, company model.CompanyInput, p collectParams) companyResult {
	company.Normalize()
	res := companyResult{input: company, status: FetchStatusSkipped}

	if p.provider != "" && company.Provider != p.provider {
		return res
	}
	if err := company.Validate(); err != nil {
		s.logger.Warn("skipping company without provider/org", "name", company.Name)
		return res
	}
	adapter, ok := s.registry.Get(company.Provider)
	if !ok {
		s.logger.Warn("unknown provider", "provider", company.Provider, "org", company.Org)
		return res
	}

	start := time.Now()
	raws, err := adapter.Fetch(ctx, company.Org, core.FetchHints{
		CareersURL: company.CareersURL,
		Cities:     p.cities,
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		s.logger.Warn("provider_fetch",
			"status", FetchStatusFail,
			"provider", company.Provider,
			"org", company.Org,
			"elapsed_ms", elapsed,
			"error", err)
		res.status = FetchStatusFail
		return res
	}
	s.logger.Info("provider_fetch",
		"status", FetchStatusOK,
		"provider", company.Provider,
		"org", company.Org,
		"elapsed_ms", elapsed,
		"jobs", len(raws))
	res.status = FetchStatusOK

	for _, raw := range raws {
		draft := match.NormalizeRaw(company, company.Provider, raw)
		if p.computeScores {
			score, reasons := match.Score(draft, p.keywords, p.cities, p.geo)
			draft.Score = score
			if len(reasons) > 0 {
				draft.Reasons = strings.Join(reasons, ", ")
			}
		}
		if p.filterByCities && len(p.cities) > 0 && !match.CityMatch(draft.Location, p.cities) {
			continue
		}
		res.drafts = append(res.drafts, draft)
	}
	return res
}
