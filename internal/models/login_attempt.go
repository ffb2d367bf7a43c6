package models

import "time"

// UnknownIP is stored when no client address could be derived from the request
const UnknownIP = "unknown"

// LoginAttempt is one captured submission to a decoy login page.
// Records are append-only: they are created once and never updated.
type LoginAttempt struct {
	ID               string    `db:"id" json:"id"`
	CampaignID       string    `db:"campaign_id" json:"campaign_id"`
	EnteredEmail     string    `db:"entered_email" json:"entered_email"`
	EnteredPassword  string    `db:"entered_password" json:"entered_password"`
	IPAddress        string    `db:"ip_address" json:"ip_address"`
	City             string    `db:"city" json:"city"`
	Country          string    `db:"country" json:"country"`
	Browser          string    `db:"browser" json:"browser"`
	OS               string    `db:"os" json:"os"`
	DeviceType       string    `db:"device_type" json:"device_type"`
	ScreenResolution string    `db:"screen_resolution" json:"screen_resolution"`
	UserAgent        string    `db:"user_agent" json:"user_agent"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// AttemptFilter narrows a campaign's attempt listing
type AttemptFilter struct {
	CampaignID string
	Search     string // case-insensitive match on email, ip, city or country
	Limit      int
	Offset     int
}
