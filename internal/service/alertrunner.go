package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/data"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// Per-alert evaluation outcomes beyond the recorded delivery statuses.
const (
	alertRunInactive = "inactive"
	alertRunMissing  = "missing"
)

// alertEmailJobCap bounds how many jobs one notification lists.
const alertEmailJobCap = 80

// defaultAlertBatch is how many due alerts one pass evaluates.
const defaultAlertBatch = 200

// JobQuerier is the slice of the query service the alert runner needs.
type JobQuerier interface {
	QueryJobs(ctx context.Context, opts QueryOptions) ([]model.JobDraft, error)
}

// AlertRunnerService evaluates due saved-search alerts: it queries matching
// jobs, subtracts already-notified keys, emails the remainder and records the
// outcome. Every evaluation reschedules the alert, including failures, so a
// broken alert cannot wedge the due queue.
type AlertRunnerService struct {
	alerts       core.AlertRepository
	query        JobQuerier
	sender       core.MessageSender
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// AlertRunnerServiceOptions contains dependencies for AlertRunnerService.
type AlertRunnerServiceOptions struct {
	Alerts       core.AlertRepository
	Query        JobQuerier
	Sender       core.MessageSender
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// NewAlertRunnerService creates an AlertRunnerService with the given options.
func NewAlertRunnerService(opts AlertRunnerServiceOptions) *AlertRunnerService {
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AlertRunnerService{
		alerts:       opts.Alerts,
		query:        opts.Query,
		sender:       opts.Sender,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger,
	}
}

// RunSummary reports what one scheduler pass did.
type RunSummary struct {
	Processed  int `json:"processed"`
	SentAlerts int `json:"sent_alerts"`
	SentJobs   int `json:"sent_jobs"`
	Noop       int `json:"noop"`
	Errors     int `json:"error"`
	Inactive   int `json:"inactive"`
	Missing    int `json:"missing"`
	Due        int `json:"due"`
}

// RunDueAlertsOnce evaluates every due alert. A batchLimit of zero or less
// means 200.
func (s *AlertRunnerService) RunDueAlertsOnce(ctx context.Context, batchLimit int) (RunSummary, error) {
	if batchLimit <= 0 {
		batchLimit = defaultAlertBatch
	}
	now := s.timeProvider.Now().UTC()

	due, err := s.alerts.DueAlerts(ctx, now, batchLimit)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Due: len(due)}
	for _, alert := range due {
		status, sent := s.runSingleAlert(ctx, alert.ID, now)
		summary.Processed++
		summary.SentJobs += sent
		switch status {
		case model.DeliveryStatusSent:
			summary.SentAlerts++
		case model.DeliveryStatusNoop:
			summary.Noop++
		case model.DeliveryStatusError:
			summary.Errors++
		case alertRunInactive:
			summary.Inactive++
		case alertRunMissing:
			summary.Missing++
		}
	}
	return summary, nil
}

// runSingleAlert re-fetches the alert so deletions or deactivations that
// happened after the due listing are honored.
func (s *AlertRunnerService) runSingleAlert(ctx context.Context, alertID int64, now time.Time) (string, int) {
	alert, err := s.alerts.GetAlert(ctx, alertID, "")
	if errors.Is(err, data.ErrAlertNotFound) {
		return alertRunMissing, 0
	}
	if err != nil {
		s.logger.Error("alert lookup failed", "alert_id", alertID, "error", err)
		return model.DeliveryStatusError, 0
	}
	if !alert.IsActive {
		return alertRunInactive, 0
	}

	fail := func(cause error) (string, int) {
		s.logger.Error("alert evaluation failed", "alert_id", alert.ID, "error", cause)
		errText := cause.Error()
		subject := fmt.Sprintf("jobradar alert #%d", alert.ID)
		s.recordOutcome(ctx, alert, now, model.AlertDelivery{
			AlertID:   alert.ID,
			SentAt:    now,
			Status:    model.DeliveryStatusError,
			Subject:   &subject,
			ErrorText: &errText,
		}, nil)
		return model.DeliveryStatusError, 0
	}

	email, err := s.alerts.UserEmail(ctx, alert.UserID)
	if err != nil {
		return fail(err)
	}

	jobs, err := s.query.QueryJobs(ctx, queryFromAlert(alert))
	if err != nil {
		return fail(err)
	}

	keys := make([]string, 0, len(jobs))
	for i := range jobs {
		keys = append(keys, jobs[i].JobKey())
	}
	seen, err := s.alerts.SeenJobKeys(ctx, alert.ID, keys)
	if err != nil {
		return fail(err)
	}

	var newJobs []model.JobDraft
	var newKeys []string
	for i := range jobs {
		key := jobs[i].JobKey()
		if _, ok := seen[key]; ok {
			continue
		}
		newJobs = append(newJobs, jobs[i])
		newKeys = append(newKeys, key)
	}

	if len(newJobs) == 0 {
		subject := fmt.Sprintf("jobradar alert #%d", alert.ID)
		s.recordOutcome(ctx, alert, now, model.AlertDelivery{
			AlertID: alert.ID,
			SentAt:  now,
			Status:  model.DeliveryStatusNoop,
			Subject: &subject,
		}, nil)
		return model.DeliveryStatusNoop, 0
	}

	subject := fmt.Sprintf("jobradar alert: %d new jobs", len(newJobs))
	err = s.sender.Send(ctx, core.OutboundMessage{
		To:      email,
		Subject: subject,
		Body:    renderAlertEmail(alert, newJobs, now),
	})
	if err != nil {
		return fail(err)
	}

	if err := s.alerts.MarkSeen(ctx, alert.ID, newKeys, now); err != nil {
		return fail(err)
	}
	s.recordOutcome(ctx, alert, now, model.AlertDelivery{
		AlertID:   alert.ID,
		SentAt:    now,
		Status:    model.DeliveryStatusSent,
		JobsCount: len(newJobs),
		Subject:   &subject,
	}, &now)
	return model.DeliveryStatusSent, len(newJobs)
}

// recordOutcome writes the delivery audit row and reschedules the alert.
// Bookkeeping failures are logged, not propagated; the evaluation outcome
// already stands.
func (s *AlertRunnerService) recordOutcome(ctx context.Context, alert *model.SavedSearchAlert, now time.Time, delivery model.AlertDelivery, sentAt *time.Time) {
	if err := s.alerts.RecordDelivery(ctx, delivery); err != nil {
		s.logger.Error("recording alert delivery failed", "alert_id", alert.ID, "error", err)
	}

	frequency := alert.FrequencyMinutes
	if frequency <= 0 {
		frequency = model.DefaultFrequencyMins
	}
	err := s.alerts.CompleteRun(ctx, core.AlertRunUpdate{
		AlertID:   alert.ID,
		NextRunAt: now.Add(time.Duration(frequency) * time.Minute),
		RanAt:     now,
		SentAt:    sentAt,
	})
	if err != nil {
		s.logger.Error("rescheduling alert failed", "alert_id", alert.ID, "error", err)
	}
}

func queryFromAlert(alert *model.SavedSearchAlert) QueryOptions {
	opts := QueryOptions{
		Remote:        alert.Remote,
		MinScore:      alert.MinScore,
		MaxAgeDays:    alert.MaxAgeDays,
		Cities:        alert.Cities,
		Keywords:      alert.Keywords,
		TitleKeywords: alert.TitleKeywords,
		OnlyActive:    &alert.OnlyActive,
		Limit:         alert.SendLimit,
		Offset:        0,
	}
	if alert.Provider != nil {
		opts.Provider = *alert.Provider
	}
	if opts.Remote == "" {
		opts.Remote = "any"
	}
	if opts.Limit <= 0 {
		opts.Limit = model.DefaultSendLimit
	}
	return opts
}

// renderAlertEmail produces the plain-text notification body. At most
// alertEmailJobCap jobs are listed; the subject still carries the full count.
func renderAlertEmail(alert *model.SavedSearchAlert, jobs []model.JobDraft, now time.Time) string {
	lines := []string{
		fmt.Sprintf("jobradar alert #%d", alert.ID),
		"Generated at: " + now.UTC().Format("2006-01-02 15:04") + " UTC",
		"",
	}
	if alert.Name != nil && *alert.Name != "" {
		lines = append(lines, "Name: "+*alert.Name)
	}
	if len(alert.Cities) > 0 {
		lines = append(lines, "Cities: "+strings.Join(alert.Cities, ", "))
	}
	if len(alert.TitleKeywords) > 0 {
		lines = append(lines, "Title keywords: "+strings.Join(alert.TitleKeywords, ", "))
	}
	if len(alert.Keywords) > 0 {
		lines = append(lines, "Keywords: "+strings.Join(alert.Keywords, ", "))
	}
	lines = append(lines, "", fmt.Sprintf("New jobs: %d", len(jobs)), "")

	listed := jobs
	if len(listed) > alertEmailJobCap {
		listed = listed[:alertEmailJobCap]
	}
	for i, job := range listed {
		title := job.Title
		if title == "" {
			title = "Untitled"
		}
		company := job.CompanyName
		if company == "" {
			company = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, title, company))
		if loc := strings.TrimSpace(job.Location); loc != "" {
			lines = append(lines, "   Location: "+loc)
		}
		if prov := strings.TrimSpace(job.Provider); prov != "" {
			lines = append(lines, "   Provider: "+prov)
		}
		if job.CreatedAt != nil {
			lines = append(lines, "   Date: "+job.CreatedAt.Format("2006-01-02"))
		}
		if u := strings.TrimSpace(job.URL); u != "" {
			lines = append(lines, "   Link: "+u)
		}
		lines = append(lines, "")
	}
	if len(jobs) > alertEmailJobCap {
		lines = append(lines, fmt.Sprintf("Only the first %d jobs are listed in this email.", alertEmailJobCap))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \n\t") + "\n"
}
