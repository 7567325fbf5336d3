package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// AlertService manages saved-search alert subscriptions.
type AlertService struct {
	alerts core.AlertRepository
	logger *slog.Logger
}

// AlertServiceOptions contains dependencies for AlertService.
type AlertServiceOptions struct {
	Alerts core.AlertRepository
	Logger *slog.Logger
}

// NewAlertService creates an AlertService with the given options.
func NewAlertService(opts AlertServiceOptions) *AlertService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AlertService{alerts: opts.Alerts, logger: opts.Logger}
}

// Upsert creates or updates the alert identified by the canonicalized filter
// set. The second return reports whether a new alert was created.
func (s *AlertService) Upsert(ctx context.Context, req model.UpsertAlertRequest) (*model.SavedSearchAlert, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	user, err := s.alerts.GetOrCreateUser(ctx, req.Email)
	if err != nil {
		return nil, false, err
	}

	var name *string
	if trimmed := strings.TrimSpace(req.Name); trimmed != "" {
		name = &trimmed
	}
	alert, created, err := s.alerts.UpsertAlert(ctx, user.ID, name, req.CanonicalizeAlertFilters())
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("alert upserted",
		"alert_id", alert.ID, "created", created, "email", user.Email)
	return alert, created, nil
}

// List returns all alerts owned by the email's user.
func (s *AlertService) List(ctx context.Context, email string) ([]model.SavedSearchAlert, error) {
	if model.NormalizeEmail(email) == "" {
		return nil, model.ErrEmailRequired
	}
	return s.alerts.ListAlerts(ctx, email)
}

// Get fetches one alert. A non-empty email scopes the lookup to that owner.
func (s *AlertService) Get(ctx context.Context, id int64, email string) (*model.SavedSearchAlert, error) {
	return s.alerts.GetAlert(ctx, id, email)
}

// Delete removes one alert, scoped to the owner when email is non-empty.
func (s *AlertService) Delete(ctx context.Context, id int64, email string) error {
	return s.alerts.DeleteAlert(ctx, id, email)
}
