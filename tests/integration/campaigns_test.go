//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/lure/internal/handlers"
)

func TestCampaignLifecycle(t *testing.T) {
	resetDatabase(t)

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	// Create
	resp, err := ts.RequestAsAdmin(http.MethodPost, "/api/admin/campaigns", map[string]string{
		"name":        "Benefits enrolment",
		"description": "HR themed lure",
	})
	require.NoError(t, err)
	var created handlers.CampaignResponse
	require.NoError(t, ParseJSONResponse(resp, &created))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "http://decoy.test/login?c="+created.ID, created.PhishingURL)

	// Capture two attempts through the public endpoint
	for _, email := range []string{"alice@corp.test", "bob@corp.test"} {
		resp, err := ts.Request(http.MethodPost, "/functions/v1/log-attempt", map[string]string{
			"campaign_id":   created.ID,
			"entered_email": email,
		}, map[string]string{"CF-Connecting-IP": "198.51.100.20"})
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// List shows the attempt count
	resp, err = ts.RequestAsAdmin(http.MethodGet, "/api/admin/campaigns", nil)
	require.NoError(t, err)
	var list []handlers.CampaignResponse
	require.NoError(t, ParseJSONResponse(resp, &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].AttemptCount)

	// Search is case-insensitive and reports the filtered total
	resp, err = ts.RequestAsAdmin(http.MethodGet, "/api/admin/campaigns/"+created.ID+"/attempts?q=ALICE", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", resp.Header.Get("X-Total-Count"))
	var page handlers.AttemptListResponse
	require.NoError(t, ParseJSONResponse(resp, &page))
	require.Len(t, page.Attempts, 1)
	assert.Equal(t, "alice@corp.test", page.Attempts[0].EnteredEmail)
	assert.Equal(t, "Testville", page.Attempts[0].City)

	// A literal percent sign is not a wildcard
	resp, err = ts.RequestAsAdmin(http.MethodGet, "/api/admin/campaigns/"+created.ID+"/attempts?q=%25", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "0", resp.Header.Get("X-Total-Count"))

	// Delete cascades to attempts
	resp, err = ts.RequestAsAdmin(http.MethodDelete, "/api/admin/campaigns/"+created.ID, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var remaining int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM login_attempts").Scan(&remaining))
	assert.Zero(t, remaining)

	resp, err = ts.RequestAsAdmin(http.MethodGet, "/api/admin/campaigns/"+created.ID, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCampaignAPI_RejectsMissingToken(t *testing.T) {
	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	resp, err := ts.Request(http.MethodGet, "/api/admin/campaigns", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
