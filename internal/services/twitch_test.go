package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packvault/internal/config"
)

// fakeHelix stands in for both the token endpoint and the Helix
// subscriptions API. subStatus maps broadcaster_id to the HTTP status
// the subscription lookup should answer with.
func fakeHelix(t *testing.T, subStatus map[string]int) *TwitchService {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"app-token","expires_in":3600}`))
	})
	mux.HandleFunc("/helix/subscriptions/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))
		assert.Equal(t, "test-client", r.Header.Get("Client-Id"))
		status, ok := subStatus[r.URL.Query().Get("broadcaster_id")]
		if !ok {
			status = http.StatusNotFound
		}
		w.WriteHeader(status)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.LoadTestConfig().Twitch
	cfg.APIBaseURL = srv.URL + "/helix"
	cfg.TokenURL = srv.URL + "/oauth2/token"
	return NewTwitchService(cfg)
}

func TestCanUserAccessModpackSubscribed(t *testing.T) {
	svc := fakeHelix(t, map[string]int{
		"chan-a": http.StatusNotFound,
		"chan-b": http.StatusOK,
	})

	allowed, err := svc.CanUserAccessModpack(context.Background(), "tw-1", []string{"chan-a", "chan-b"})
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanUserAccessModpackNotSubscribedAnywhere(t *testing.T) {
	svc := fakeHelix(t, map[string]int{
		"chan-a": http.StatusNotFound,
		"chan-b": http.StatusNotFound,
	})

	allowed, err := svc.CanUserAccessModpack(context.Background(), "tw-1", []string{"chan-a", "chan-b"})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanUserAccessModpackHelixFailure(t *testing.T) {
	svc := fakeHelix(t, map[string]int{
		"chan-a": http.StatusInternalServerError,
	})

	_, err := svc.CanUserAccessModpack(context.Background(), "tw-1", []string{"chan-a"})
	assert.Error(t, err)
}

func TestAppAccessTokenIsReused(t *testing.T) {
	svc := fakeHelix(t, map[string]int{"chan-a": http.StatusOK})

	ctx := context.Background()
	first, err := svc.appAccessToken(ctx)
	require.NoError(t, err)
	second, err := svc.appAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "app-token", first)
}
