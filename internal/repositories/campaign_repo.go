package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/lure/internal/database"
	"github.com/BradenHooton/lure/internal/models"
	"github.com/jackc/pgx/v5"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// CampaignRepository handles campaign data access
type CampaignRepository struct {
	db *database.DB
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *database.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignSelect = `
		SELECT c.id, c.name, c.description, c.created_by, c.created_at,
		       (SELECT COUNT(*) FROM login_attempts a WHERE a.campaign_id = c.id) AS attempt_count
		FROM campaigns c`

func scanCampaignRow(row rowScanner) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt, &c.AttemptCount)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

// Create inserts a campaign and returns it with store-assigned fields
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	query := `
		INSERT INTO campaigns (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, created_by, created_at, 0::bigint
	`

	result, err := scanCampaignRow(r.db.Pool.QueryRow(ctx, query,
		campaign.Name, campaign.Description, campaign.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return result, nil
}

// List returns all campaigns, newest first, with their attempt counts
func (r *CampaignRepository) List(ctx context.Context) ([]*models.Campaign, error) {
	rows, err := r.db.Pool.Query(ctx, campaignSelect+` ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	return scanCampaignRows(rows)
}

func scanCampaignRows(rows pgx.Rows) ([]*models.Campaign, error) {
	defer rows.Close()

	campaigns := make([]*models.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaignRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign rows: %w", err)
	}

	return campaigns, nil
}

// GetByID returns models.ErrNotFound when no campaign has the id
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	return scanCampaignRow(r.db.Pool.QueryRow(ctx, campaignSelect+` WHERE c.id = $1`, id))
}

// Delete removes a campaign; its attempts go with it through the foreign key cascade
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
