package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/match"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// minQueryBatch is the floor for database page size. Post-SQL filters can
// discard most of a page, so pages are read well ahead of the requested limit.
const minQueryBatch = 500

// QueryService serves filtered, optionally re-scored pages from the job store.
type QueryService struct {
	jobs   core.JobRepository
	logger *slog.Logger
}

// QueryServiceOptions contains dependencies for QueryService.
type QueryServiceOptions struct {
	Jobs   core.JobRepository
	Logger *slog.Logger
}

// NewQueryService creates a QueryService with the given options.
func NewQueryService(opts QueryServiceOptions) *QueryService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &QueryService{jobs: opts.Jobs, logger: opts.Logger}
}

// QueryOptions parameterizes one stored-job query.
type QueryOptions struct {
	Provider      string
	Remote        string
	MinScore      int
	MaxAgeDays    *int
	Cities        []string
	Keywords      []string
	TitleKeywords []string
	Orgs          []string
	CompanyNames  []string
	// ComputeScores forces re-scoring on or off. When nil, scores are
	// recomputed only if keywords or a min-score threshold are present.
	ComputeScores *bool
	// OnlyActive defaults to true when nil.
	OnlyActive *bool
	Limit      int
	Offset     int
}

// QueryJobs reads stored jobs in pages, applies the post-SQL filters and
// returns the [offset, offset+limit) window of the filtered stream. A limit
// of zero or less returns nothing.
func (s *QueryService) QueryJobs(ctx context.Context, opts QueryOptions) ([]model.JobDraft, error) {
	limit := opts.Limit
	if limit <= 0 {
		return nil, nil
	}
	offset := max(0, opts.Offset)

	cities := match.ExpandCityAliases(match.CleanList(opts.Cities))
	keywords := match.CleanList(opts.Keywords)
	titleKeywords := match.CleanList(opts.TitleKeywords)

	compute := len(keywords) > 0 || opts.MinScore > 0
	if opts.ComputeScores != nil {
		compute = *opts.ComputeScores
	}
	onlyActive := true
	if opts.OnlyActive != nil {
		onlyActive = *opts.OnlyActive
	}
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	remote := opts.Remote
	if remote == "" {
		remote = "any"
	}
	filters := match.Filters{
		Provider:   provider,
		Remote:     remote,
		MinScore:   max(0, opts.MinScore),
		MaxAgeDays: opts.MaxAgeDays,
		Cities:     cities,
	}

	batch := max(limit*2, minQueryBatch)
	target := offset + limit
	var filtered []model.JobDraft

	for fetchOffset := 0; ; fetchOffset += batch {
		rows, err := s.jobs.QueryPage(ctx, core.JobQuery{
			Provider:     provider,
			Orgs:         loweredList(opts.Orgs),
			CompanyNames: loweredList(opts.CompanyNames),
			OnlyActive:   onlyActive,
			Offset:       fetchOffset,
			Limit:        batch,
		})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		drafts := make([]model.JobDraft, 0, len(rows))
		for _, row := range rows {
			drafts = append(drafts, draftFromJob(row))
		}
		if compute {
			for i := range drafts {
				score, reasons := match.Score(drafts[i], keywords, cities, nil)
				drafts[i].Score = score
				if len(reasons) > 0 {
					drafts[i].Reasons = strings.Join(reasons, ", ")
				}
			}
		}
		drafts = match.Apply(drafts, filters)
		if len(titleKeywords) > 0 {
			drafts = match.FilterByTitleKeywords(drafts, titleKeywords)
		}
		filtered = append(filtered, drafts...)

		if len(filtered) >= target || len(rows) < batch {
			break
		}
	}

	if offset >= len(filtered) {
		return nil, nil
	}
	return filtered[offset:min(target, len(filtered))], nil
}

// draftFromJob flattens a stored row back into the draft shape used by the
// scoring and filter engine. The identity fields round-trip: the draft's
// JobKey() equals the stored job_key.
func draftFromJob(j model.Job) model.JobDraft {
	d := model.JobDraft{
		Provider:  j.Provider,
		Org:       j.Org,
		URL:       j.URL,
		CreatedAt: j.CreatedAt,
		Raw:       j.RawJSON,
	}
	if j.ExternalID != nil {
		d.ExternalID = *j.ExternalID
	}
	if j.Title != nil {
		d.Title = *j.Title
	}
	if j.CompanyName != nil {
		d.CompanyName = *j.CompanyName
	}
	if j.CompanyCity != nil {
		d.CompanyCity = *j.CompanyCity
	}
	if j.Location != nil {
		d.Location = *j.Location
	}
	if j.Remote != nil {
		d.Remote = *j.Remote
	}
	if j.WorkMode != nil {
		d.WorkMode = *j.WorkMode
	}
	if j.Description != nil {
		d.Description = *j.Description
	}
	if j.Score != nil {
		d.Score = *j.Score
	}
	if j.Reasons != nil {
		d.Reasons = *j.Reasons
	}
	return d
}

func loweredList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
