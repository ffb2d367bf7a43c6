package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/lure/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPurger struct {
	ListOlderThanFunc   func(ctx context.Context, cutoff time.Time) ([]*models.LoginAttempt, error)
	DeleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)
	deleteCalls         int
	deleteCutoff        time.Time
}

func (m *mockPurger) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*models.LoginAttempt, error) {
	if m.ListOlderThanFunc != nil {
		return m.ListOlderThanFunc(ctx, cutoff)
	}
	return nil, nil
}

func (m *mockPurger) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.deleteCalls++
	m.deleteCutoff = cutoff
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

type mockArchiver struct {
	err      error
	archived []*models.LoginAttempt
}

func (m *mockArchiver) Archive(ctx context.Context, attempts []*models.LoginAttempt, at time.Time) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.archived = append(m.archived, attempts...)
	return "attempts/key.jsonl.gz", nil
}

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestManager(repo AttemptPurger, archiver Archiver, maxAge time.Duration) *RetentionManager {
	rm := NewRetentionManager(repo, archiver, nil, slog.New(slog.NewJSONHandler(io.Discard, nil)), maxAge, time.Hour)
	rm.now = func() time.Time { return fixedNow }
	return rm
}

func TestRunOnce_PurgesWithoutArchive(t *testing.T) {
	repo := &mockPurger{
		DeleteOlderThanFunc: func(ctx context.Context, cutoff time.Time) (int64, error) { return 4, nil },
	}
	rm := newTestManager(repo, nil, 30*24*time.Hour)

	deleted, err := rm.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.Equal(t, fixedNow.Add(-30*24*time.Hour), repo.deleteCutoff)
}

func TestRunOnce_ArchivesBeforePurging(t *testing.T) {
	expired := []*models.LoginAttempt{{ID: "a1"}, {ID: "a2"}}
	var listCutoff time.Time
	repo := &mockPurger{
		ListOlderThanFunc: func(ctx context.Context, cutoff time.Time) ([]*models.LoginAttempt, error) {
			listCutoff = cutoff
			return expired, nil
		},
		DeleteOlderThanFunc: func(ctx context.Context, cutoff time.Time) (int64, error) { return 2, nil },
	}
	archiver := &mockArchiver{}
	rm := newTestManager(repo, archiver, time.Hour)

	deleted, err := rm.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, expired, archiver.archived)
	assert.Equal(t, listCutoff, repo.deleteCutoff, "list and delete must use the same cutoff")
}

func TestRunOnce_ArchiveFailureSkipsPurge(t *testing.T) {
	repo := &mockPurger{
		ListOlderThanFunc: func(ctx context.Context, cutoff time.Time) ([]*models.LoginAttempt, error) {
			return []*models.LoginAttempt{{ID: "a1"}}, nil
		},
	}
	rm := newTestManager(repo, &mockArchiver{err: errors.New("access denied")}, time.Hour)

	_, err := rm.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, repo.deleteCalls)
}

func TestRunOnce_NothingExpiredWithArchive(t *testing.T) {
	repo := &mockPurger{}
	archiver := &mockArchiver{}
	rm := newTestManager(repo, archiver, time.Hour)

	deleted, err := rm.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Zero(t, repo.deleteCalls)
	assert.Empty(t, archiver.archived)
}

func TestStart_DisabledReturnsImmediately(t *testing.T) {
	repo := &mockPurger{}
	rm := newTestManager(repo, nil, 0)

	done := make(chan struct{})
	go func() {
		rm.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return for disabled retention")
	}
	assert.Zero(t, repo.deleteCalls)
}

func TestStart_RunsImmediatelyAndStops(t *testing.T) {
	deleted := make(chan struct{}, 1)
	repo := &mockPurger{
		DeleteOlderThanFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			select {
			case deleted <- struct{}{}:
			default:
			}
			return 0, nil
		},
	}
	rm := newTestManager(repo, nil, time.Hour)

	done := make(chan struct{})
	go func() {
		rm.Start(context.Background())
		close(done)
	}()

	select {
	case <-deleted:
	case <-time.After(time.Second):
		t.Fatal("initial retention cycle did not run")
	}

	rm.Stop()
	rm.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retention manager did not stop")
	}
}
