package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/lure/internal/geo"
	"github.com/BradenHooton/lure/internal/models"
	"github.com/BradenHooton/lure/internal/useragent"
	pkghttp "github.com/BradenHooton/lure/pkg/http"
	"github.com/BradenHooton/lure/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultStoreWriteTimeout bounds the insert when no timeout is configured
const DefaultStoreWriteTimeout = 5 * time.Second

// AttemptRepository persists captured attempts
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.LoginAttempt) error
}

// Submission is the decoded ingestion payload plus the transport metadata the
// enrichment stages read
type Submission struct {
	CampaignID       string `json:"campaign_id"`
	EnteredEmail     string `json:"entered_email"`
	EnteredPassword  string `json:"entered_password"`
	ScreenResolution string `json:"screen_resolution"`
	UserAgent        string `json:"user_agent"`

	HeaderUserAgent string `json:"-"`
	ClientIP        string `json:"-"`
}

// EffectiveUserAgent prefers the body value and falls back to the request header
func (s Submission) EffectiveUserAgent() string {
	if s.UserAgent != "" {
		return s.UserAgent
	}
	return s.HeaderUserAgent
}

// Stage fills in part of an attempt. A failing stage leaves its fields at their
// zero values and never aborts the capture.
type Stage func(ctx context.Context, attempt *models.LoginAttempt, sub Submission) error

type namedStage struct {
	name string
	run  Stage
}

// PersistenceError reports that the store rejected an otherwise valid attempt
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist attempt: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Message is the store's own description of the failure
func (e *PersistenceError) Message() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Message
	}
	return e.Err.Error()
}

// AttemptService turns a Submission into a stored LoginAttempt
type AttemptService struct {
	repo         AttemptRepository
	locator      geo.Locator
	audit        *logger.AuditLogger
	logger       *slog.Logger
	storeTimeout time.Duration
	stages       []namedStage
}

// NewAttemptService creates a new AttemptService
func NewAttemptService(repo AttemptRepository, locator geo.Locator, audit *logger.AuditLogger, logger *slog.Logger, storeTimeout time.Duration) *AttemptService {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreWriteTimeout
	}
	if locator == nil {
		locator = geo.Disabled{}
	}

	s := &AttemptService{
		repo:         repo,
		locator:      locator,
		audit:        audit,
		logger:       logger,
		storeTimeout: storeTimeout,
	}

	s.stages = []namedStage{
		{name: "classify", run: classifyStage},
		{name: "client_ip", run: clientIPStage},
		{name: "geolocate", run: s.geolocateStage},
	}

	return s
}

// Capture validates, enriches and stores one submission. Only validation and
// persistence failures are returned; the latter as *PersistenceError.
func (s *AttemptService) Capture(ctx context.Context, sub Submission) (*models.LoginAttempt, error) {
	if sub.CampaignID == "" {
		return nil, models.ErrCampaignIDRequired
	}

	attempt := &models.LoginAttempt{
		CampaignID:       sub.CampaignID,
		EnteredEmail:     sub.EnteredEmail,
		EnteredPassword:  sub.EnteredPassword,
		ScreenResolution: sub.ScreenResolution,
		UserAgent:        sub.EffectiveUserAgent(),
	}

	for _, stage := range s.stages {
		if err := stage.run(ctx, attempt, sub); err != nil {
			level := slog.LevelWarn
			if errors.Is(err, geo.ErrLookupSkipped) {
				level = slog.LevelDebug
			}
			s.logger.Log(ctx, level, "attempt enrichment stage failed",
				slog.String("stage", stage.name),
				slog.String("campaign_id", attempt.CampaignID),
				slog.Any("error", err),
			)
		}
	}

	// A client hang-up must not drop a capture that already reached this point
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	if err := s.repo.Create(storeCtx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "failed to store login attempt",
			slog.String("campaign_id", attempt.CampaignID),
			slog.Any("error", err),
		)
		return nil, &PersistenceError{Err: err}
	}

	if s.audit != nil {
		s.audit.LogAttemptCaptured(ctx, logger.CaptureEvent{
			AttemptID:  attempt.ID,
			CampaignID: attempt.CampaignID,
			Email:      attempt.EnteredEmail,
			IPAddress:  attempt.IPAddress,
			Browser:    attempt.Browser,
			OS:         attempt.OS,
			DeviceType: attempt.DeviceType,
			Located:    attempt.City != "" || attempt.Country != "",
		})
	}

	return attempt, nil
}

func classifyStage(_ context.Context, attempt *models.LoginAttempt, _ Submission) error {
	c := useragent.Classify(attempt.UserAgent)
	attempt.Browser = c.Browser.String()
	attempt.OS = c.OS.String()
	attempt.DeviceType = c.DeviceType.String()
	return nil
}

func clientIPStage(_ context.Context, attempt *models.LoginAttempt, sub Submission) error {
	attempt.IPAddress = sub.ClientIP
	if attempt.IPAddress == "" {
		attempt.IPAddress = models.UnknownIP
	}
	return nil
}

func (s *AttemptService) geolocateStage(ctx context.Context, attempt *models.LoginAttempt, _ Submission) error {
	if !pkghttp.IsLookupable(attempt.IPAddress) {
		return fmt.Errorf("%w: %s", geo.ErrLookupSkipped, attempt.IPAddress)
	}

	loc, err := s.locator.Lookup(ctx, attempt.IPAddress)
	if err != nil {
		return err
	}

	attempt.City = loc.City
	attempt.Country = loc.Country
	return nil
}
