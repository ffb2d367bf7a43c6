package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/lure/internal/database"
	"github.com/BradenHooton/lure/internal/models"
	"github.com/jackc/pgx/v5"
)

const attemptColumns = `id, campaign_id, entered_email, entered_password, ip_address, city, country,
		       browser, os, device_type, screen_resolution, user_agent, created_at`

// LoginAttemptRepository handles database operations for captured login attempts.
// Attempts are append-only; there is deliberately no update method.
type LoginAttemptRepository struct {
	db *database.DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

func scanAttemptRow(row rowScanner) (*models.LoginAttempt, error) {
	var a models.LoginAttempt
	err := row.Scan(
		&a.ID, &a.CampaignID, &a.EnteredEmail, &a.EnteredPassword, &a.IPAddress,
		&a.City, &a.Country, &a.Browser, &a.OS, &a.DeviceType,
		&a.ScreenResolution, &a.UserAgent, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAttemptRows(rows pgx.Rows) ([]*models.LoginAttempt, error) {
	defer rows.Close()

	attempts := make([]*models.LoginAttempt, 0)
	for rows.Next() {
		a, err := scanAttemptRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating login attempt rows: %w", err)
	}

	return attempts, nil
}

// Create inserts one attempt and fills in the store-assigned id and created_at.
// The raw driver error is returned so callers can surface the store message.
func (r *LoginAttemptRepository) Create(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (
			campaign_id, entered_email, entered_password, ip_address, city, country,
			browser, os, device_type, screen_resolution, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	return r.db.Pool.QueryRow(ctx, query,
		attempt.CampaignID,
		attempt.EnteredEmail,
		attempt.EnteredPassword,
		attempt.IPAddress,
		attempt.City,
		attempt.Country,
		attempt.Browser,
		attempt.OS,
		attempt.DeviceType,
		attempt.ScreenResolution,
		attempt.UserAgent,
	).Scan(&attempt.ID, &attempt.CreatedAt)
}

// searchClause appends the optional free-text predicate and returns the extended args
func searchClause(query string, args []interface{}, search string) (string, []interface{}) {
	search = strings.TrimSpace(search)
	if search == "" {
		return query, args
	}

	args = append(args, "%"+escapeLike(search)+"%")
	n := len(args)
	query += fmt.Sprintf(` AND (entered_email ILIKE $%[1]d ESCAPE '\'
		OR ip_address ILIKE $%[1]d ESCAPE '\'
		OR city ILIKE $%[1]d ESCAPE '\'
		OR country ILIKE $%[1]d ESCAPE '\')`, n)
	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListByCampaign returns a page of a campaign's attempts, newest first
func (r *LoginAttemptRepository) ListByCampaign(ctx context.Context, filter models.AttemptFilter) ([]*models.LoginAttempt, error) {
	query, args := searchClause(
		`SELECT `+attemptColumns+` FROM login_attempts WHERE campaign_id = $1`,
		[]interface{}{filter.CampaignID},
		filter.Search,
	)

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", database.MapPostgresError(err))
	}

	return scanAttemptRows(rows)
}

// CountByCampaign counts the attempts matching filter, ignoring its pagination
func (r *LoginAttemptRepository) CountByCampaign(ctx context.Context, filter models.AttemptFilter) (int64, error) {
	query, args := searchClause(
		`SELECT COUNT(*) FROM login_attempts WHERE campaign_id = $1`,
		[]interface{}{filter.CampaignID},
		filter.Search,
	)

	var count int64
	if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count login attempts: %w", database.MapPostgresError(err))
	}

	return count, nil
}

// ListOlderThan returns every attempt created before cutoff, oldest first
func (r *LoginAttemptRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*models.LoginAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM login_attempts WHERE created_at < $1 ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired login attempts: %w", err)
	}

	return scanAttemptRows(rows)
}

// DeleteOlderThan removes attempts created before cutoff and reports how many were removed
func (r *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired login attempts: %w", err)
	}
	return result.RowsAffected(), nil
}
