package logger

import (
	"context"
	"log/slog"
	"time"
)

// CaptureEvent describes one persisted phishing submission
type CaptureEvent struct {
	AttemptID  string
	CampaignID string
	Email      string
	IPAddress  string
	Browser    string
	OS         string
	DeviceType string
	Located    bool
}

// AuditLogger writes security audit entries through a dedicated slog logger
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAttemptCaptured records a stored attempt. The entered password is never logged
// and the email is masked.
func (al *AuditLogger) LogAttemptCaptured(ctx context.Context, event CaptureEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "capture"),
		slog.String("event_type", "attempt_captured"),
		slog.String("attempt_id", event.AttemptID),
		slog.String("campaign_id", event.CampaignID),
		slog.String("ip_address", event.IPAddress),
		slog.String("browser", event.Browser),
		slog.String("os", event.OS),
		slog.String("device_type", event.DeviceType),
		slog.Bool("located", event.Located),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}

// LogCampaignAction records an administrative change to a campaign
func (al *AuditLogger) LogCampaignAction(ctx context.Context, action, campaignID, actorID string, success bool) {
	attrs := []slog.Attr{
		slog.String("audit_type", "campaign"),
		slog.String("event_type", action),
		slog.Bool("success", success),
		slog.String("campaign_id", campaignID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if actorID != "" {
		attrs = append(attrs, slog.String("actor_id", actorID))
	}

	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogRetentionPurge records a completed retention cycle
func (al *AuditLogger) LogRetentionPurge(ctx context.Context, cutoff time.Time, deleted int64, archiveKey string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "retention"),
		slog.String("event_type", "attempts_purged"),
		slog.Int64("deleted", deleted),
		slog.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
	}

	if archiveKey != "" {
		attrs = append(attrs, slog.String("archive_key", archiveKey))
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}
