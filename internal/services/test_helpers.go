package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/BradenHooton/lure/internal/geo"
	"github.com/BradenHooton/lure/internal/models"
)

// MockAttemptRepository implements AttemptRepository for testing
type MockAttemptRepository struct {
	CreateFunc func(ctx context.Context, attempt *models.LoginAttempt) error
	Created    []*models.LoginAttempt
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.LoginAttempt) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, attempt); err != nil {
			return err
		}
	}
	m.Created = append(m.Created, attempt)
	return nil
}

// MockLocator implements geo.Locator for testing
type MockLocator struct {
	LookupFunc func(ctx context.Context, ip string) (geo.Location, error)
	Calls      []string
}

func (m *MockLocator) Lookup(ctx context.Context, ip string) (geo.Location, error) {
	m.Calls = append(m.Calls, ip)
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, ip)
	}
	return geo.Location{}, nil
}

// MockCampaignRepository implements CampaignRepository for testing
type MockCampaignRepository struct {
	CreateFunc  func(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	ListFunc    func(ctx context.Context) ([]*models.Campaign, error)
	GetByIDFunc func(ctx context.Context, id string) (*models.Campaign, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, campaign)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCampaignRepository) List(ctx context.Context) ([]*models.Campaign, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Campaign{}, nil
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCampaignRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockAttemptReader implements AttemptReader for testing
type MockAttemptReader struct {
	ListByCampaignFunc  func(ctx context.Context, filter models.AttemptFilter) ([]*models.LoginAttempt, error)
	CountByCampaignFunc func(ctx context.Context, filter models.AttemptFilter) (int64, error)
}

func (m *MockAttemptReader) ListByCampaign(ctx context.Context, filter models.AttemptFilter) ([]*models.LoginAttempt, error) {
	if m.ListByCampaignFunc != nil {
		return m.ListByCampaignFunc(ctx, filter)
	}
	return []*models.LoginAttempt{}, nil
}

func (m *MockAttemptReader) CountByCampaign(ctx context.Context, filter models.AttemptFilter) (int64, error) {
	if m.CountByCampaignFunc != nil {
		return m.CountByCampaignFunc(ctx, filter)
	}
	return 0, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
