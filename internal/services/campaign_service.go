package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/lure/internal/models"
	"github.com/BradenHooton/lure/pkg/logger"
	"github.com/google/uuid"
)

const (
	DefaultAttemptPageSize = 100
	MaxAttemptPageSize     = 500
)

// CampaignRepository defines campaign data access
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	List(ctx context.Context) ([]*models.Campaign, error)
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Delete(ctx context.Context, id string) error
}

// AttemptReader lists the attempts captured for a campaign
type AttemptReader interface {
	ListByCampaign(ctx context.Context, filter models.AttemptFilter) ([]*models.LoginAttempt, error)
	CountByCampaign(ctx context.Context, filter models.AttemptFilter) (int64, error)
}

// CampaignService handles campaign administration
type CampaignService struct {
	campaigns CampaignRepository
	attempts  AttemptReader
	audit     *logger.AuditLogger
	logger    *slog.Logger
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(campaigns CampaignRepository, attempts AttemptReader, audit *logger.AuditLogger, logger *slog.Logger) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		attempts:  attempts,
		audit:     audit,
		logger:    logger,
	}
}

// Create stores a new campaign owned by actorID
func (s *CampaignService) Create(ctx context.Context, name, description, actorID string) (*models.Campaign, error) {
	campaign, err := s.campaigns.Create(ctx, &models.Campaign{
		Name:        name,
		Description: description,
		CreatedBy:   actorID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create campaign", slog.Any("error", err))
		return nil, err
	}

	s.logAction(ctx, "campaign_created", campaign.ID, actorID, true)
	return campaign, nil
}

// List returns every campaign, newest first
func (s *CampaignService) List(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.campaigns.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list campaigns", slog.Any("error", err))
		return nil, err
	}
	return campaigns, nil
}

// Get returns models.ErrBadRequest for malformed ids and models.ErrNotFound for unknown ones
func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrBadRequest
	}
	return s.campaigns.GetByID(ctx, id)
}

// Delete removes a campaign and, through the store, all of its attempts
func (s *CampaignService) Delete(ctx context.Context, id, actorID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrBadRequest
	}

	if err := s.campaigns.Delete(ctx, id); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to delete campaign",
				slog.String("campaign_id", id),
				slog.Any("error", err),
			)
		}
		s.logAction(ctx, "campaign_deleted", id, actorID, false)
		return err
	}

	s.logAction(ctx, "campaign_deleted", id, actorID, true)
	return nil
}

// ListAttempts returns one page of a campaign's attempts and the total matching count
func (s *CampaignService) ListAttempts(ctx context.Context, filter models.AttemptFilter) ([]*models.LoginAttempt, int64, error) {
	if _, err := s.Get(ctx, filter.CampaignID); err != nil {
		return nil, 0, err
	}

	filter = NormalizeAttemptFilter(filter)

	total, err := s.attempts.CountByCampaign(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count attempts", slog.Any("error", err))
		return nil, 0, err
	}

	attempts, err := s.attempts.ListByCampaign(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list attempts", slog.Any("error", err))
		return nil, 0, err
	}

	return attempts, total, nil
}

// NormalizeAttemptFilter clamps pagination to the supported range
func NormalizeAttemptFilter(filter models.AttemptFilter) models.AttemptFilter {
	if filter.Limit <= 0 {
		filter.Limit = DefaultAttemptPageSize
	}
	if filter.Limit > MaxAttemptPageSize {
		filter.Limit = MaxAttemptPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}

func (s *CampaignService) logAction(ctx context.Context, action, campaignID, actorID string, success bool) {
	if s.audit != nil {
		s.audit.LogCampaignAction(ctx, action, campaignID, actorID, success)
	}
}
