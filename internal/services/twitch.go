package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"packvault/internal/acquisition"
	"packvault/internal/config"
	"packvault/internal/utils/logger"
)

// TwitchService checks channel subscriptions through the Helix API
// using app credentials. It satisfies the acquisition gate's
// TwitchChecker collaborator.
type TwitchService struct {
	cfg    config.TwitchConfig
	client *http.Client
	log    *logger.Logger

	mu          sync.Mutex
	appToken    string
	tokenExpiry time.Time
}

var _ acquisition.TwitchChecker = (*TwitchService)(nil)

func NewTwitchService(cfg config.TwitchConfig) *TwitchService {
	return &TwitchService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger.New("twitch_service"),
	}
}

// CheckUserSubscription reports whether the Twitch user subscribes to
// one channel. Helix returns 404 for "not subscribed", which is a
// business answer, not a failure.
func (s *TwitchService) CheckUserSubscription(ctx context.Context, twitchUserID, channelID string) (bool, error) {
	token, err := s.appAccessToken(ctx)
	if err != nil {
		return false, err
	}

	endpoint := fmt.Sprintf("%s/subscriptions/user?broadcaster_id=%s&user_id=%s",
		s.cfg.APIBaseURL, url.QueryEscape(channelID), url.QueryEscape(twitchUserID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", s.cfg.ClientID)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("helix request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("helix returned status %d", resp.StatusCode)
	}
}

// CanUserAccessModpack checks the user against each gating channel and
// allows on the first subscription found.
func (s *TwitchService) CanUserAccessModpack(ctx context.Context, twitchUserID string, channelIDs []string) (bool, error) {
	for _, channelID := range channelIDs {
		subscribed, err := s.CheckUserSubscription(ctx, twitchUserID, channelID)
		if err != nil {
			return false, err
		}
		if subscribed {
			return true, nil
		}
	}
	return false, nil
}

func (s *TwitchService) appAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.appToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.appToken, nil
	}

	form := url.Values{}
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitch token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("twitch token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	s.appToken = body.AccessToken
	// Refresh a minute early so in-flight checks never race expiry.
	s.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn-60) * time.Second)

	return s.appToken, nil
}
