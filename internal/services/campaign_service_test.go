package services

import (
	"context"
	"testing"
	"time"

	"github.com/BradenHooton/lure/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCampaignID = "3f1b2c4d-5e6f-4a8b-9c0d-1e2f3a4b5c6d"

func newTestCampaignService(campaigns *MockCampaignRepository, attempts *MockAttemptReader) *CampaignService {
	return NewCampaignService(campaigns, attempts, nil, discardLogger())
}

func TestCampaignService_Create(t *testing.T) {
	var received *models.Campaign
	repo := &MockCampaignRepository{
		CreateFunc: func(ctx context.Context, c *models.Campaign) (*models.Campaign, error) {
			received = c
			out := *c
			out.ID = testCampaignID
			out.CreatedAt = time.Now()
			return &out, nil
		},
	}
	svc := newTestCampaignService(repo, &MockAttemptReader{})

	campaign, err := svc.Create(context.Background(), "Q3 payroll", "finance team", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, testCampaignID, campaign.ID)
	assert.Equal(t, "admin-1", received.CreatedBy)
	assert.Equal(t, "Q3 payroll", received.Name)
}

func TestCampaignService_Get(t *testing.T) {
	t.Run("malformed id", func(t *testing.T) {
		svc := newTestCampaignService(&MockCampaignRepository{}, &MockAttemptReader{})
		_, err := svc.Get(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestCampaignService(&MockCampaignRepository{}, &MockAttemptReader{})
		_, err := svc.Get(context.Background(), testCampaignID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("found", func(t *testing.T) {
		repo := &MockCampaignRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.Campaign, error) {
				return &models.Campaign{ID: id, Name: "x", AttemptCount: 3}, nil
			},
		}
		svc := newTestCampaignService(repo, &MockAttemptReader{})
		c, err := svc.Get(context.Background(), testCampaignID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), c.AttemptCount)
	})
}

func TestCampaignService_Delete(t *testing.T) {
	var deleted string
	repo := &MockCampaignRepository{
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestCampaignService(repo, &MockAttemptReader{})

	require.NoError(t, svc.Delete(context.Background(), testCampaignID, "admin-1"))
	assert.Equal(t, testCampaignID, deleted)

	assert.ErrorIs(t, svc.Delete(context.Background(), "bogus", "admin-1"), models.ErrBadRequest)

	repo.DeleteFunc = func(ctx context.Context, id string) error { return models.ErrNotFound }
	assert.ErrorIs(t, svc.Delete(context.Background(), testCampaignID, "admin-1"), models.ErrNotFound)
}

func TestCampaignService_ListAttempts(t *testing.T) {
	var listed, counted models.AttemptFilter
	campaigns := &MockCampaignRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Campaign, error) {
			return &models.Campaign{ID: id}, nil
		},
	}
	attempts := &MockAttemptReader{
		ListByCampaignFunc: func(ctx context.Context, f models.AttemptFilter) ([]*models.LoginAttempt, error) {
			listed = f
			return []*models.LoginAttempt{{ID: "a1", CampaignID: f.CampaignID}}, nil
		},
		CountByCampaignFunc: func(ctx context.Context, f models.AttemptFilter) (int64, error) {
			counted = f
			return 42, nil
		},
	}
	svc := newTestCampaignService(campaigns, attempts)

	list, total, err := svc.ListAttempts(context.Background(), models.AttemptFilter{
		CampaignID: testCampaignID,
		Search:     "alice",
		Limit:      10000,
		Offset:     -5,
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(42), total)
	assert.Equal(t, MaxAttemptPageSize, listed.Limit)
	assert.Equal(t, 0, listed.Offset)
	assert.Equal(t, "alice", counted.Search)
}

func TestCampaignService_ListAttemptsUnknownCampaign(t *testing.T) {
	svc := newTestCampaignService(&MockCampaignRepository{}, &MockAttemptReader{})
	_, _, err := svc.ListAttempts(context.Background(), models.AttemptFilter{CampaignID: testCampaignID})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestNormalizeAttemptFilter(t *testing.T) {
	tests := []struct {
		name       string
		in         models.AttemptFilter
		wantLimit  int
		wantOffset int
	}{
		{"defaults", models.AttemptFilter{}, DefaultAttemptPageSize, 0},
		{"within range", models.AttemptFilter{Limit: 25, Offset: 50}, 25, 50},
		{"clamped", models.AttemptFilter{Limit: 501, Offset: -1}, MaxAttemptPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAttemptFilter(tt.in)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}
