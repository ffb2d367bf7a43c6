package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Lookup_Success(t *testing.T) {
	var gotPath, gotFields string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFields = r.URL.Query().Get("fields")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"city":"Berlin","country":"Germany"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/json/", Timeout: time.Second})

	loc, err := client.Lookup(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, Location{City: "Berlin", Country: "Germany"}, loc)
	assert.Equal(t, "/json/203.0.113.9", gotPath)
	assert.Equal(t, "city,country", gotFields)
}

func TestClient_Lookup_MissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	}))
	defer srv.Close()

	loc, err := NewClient(Config{BaseURL: srv.URL}).Lookup(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Empty(t, loc.City)
	assert.Empty(t, loc.Country)
}

func TestClient_Lookup_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-success status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>rate limited</html>`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(Config{BaseURL: srv.URL, Timeout: 100 * time.Millisecond})
			loc, err := client.Lookup(context.Background(), "198.51.100.4")

			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrLookupFailed))
			assert.Equal(t, Location{}, loc)
		})
	}
}

func TestClient_Lookup_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: addr, Timeout: 200 * time.Millisecond}).Lookup(context.Background(), "198.51.100.4")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, 2*time.Second, client.timeout)
}

func TestDisabled_Lookup(t *testing.T) {
	loc, err := Disabled{}.Lookup(context.Background(), "8.8.8.8")
	assert.NoError(t, err)
	assert.Equal(t, Location{}, loc)
}
