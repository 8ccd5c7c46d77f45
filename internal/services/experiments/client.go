// Package experiments provides a small client for the experiment platform
// API used to look up candidate-search status for a batch's experiment.
package experiments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"statmatch/internal/config"
	"statmatch/internal/services"
)

// HTTPDoer abstracts the HTTP client for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the experiment platform API. Tokens are obtained with the
// OAuth password grant and cached until shortly before expiry.
type Client struct {
	baseURL        string
	tokenURL       string
	clientID       string
	username       string
	password       string
	organizationID string
	httpClient     HTTPDoer

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// SearchStatus is the candidate-search state reported for an experiment.
// Raw carries the unmodified response body so callers can republish it as
// a batch request.
type SearchStatus struct {
	ExperimentID string `json:"experimentId"`
	Status       string `json:"status"`
	Raw          []byte `json:"-"`
}

// New builds a client from configuration. Returns nil when no API base URL
// is configured; callers treat a nil client as the feature being disabled.
func New(cfg *config.Config) *Client {
	if cfg == nil || strings.TrimSpace(cfg.API.BaseURL) == "" {
		return nil
	}
	timeout := time.Duration(cfg.API.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.API.BaseURL, "/"),
		tokenURL:       cfg.API.TokenURL,
		clientID:       cfg.API.ClientID,
		username:       cfg.API.Username,
		password:       cfg.API.Password,
		organizationID: cfg.API.OrganizationID,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// NewWithDoer builds a client with an explicit HTTP doer.
func NewWithDoer(cfg *config.Config, doer HTTPDoer) *Client {
	client := New(cfg)
	if client != nil && doer != nil {
		client.httpClient = doer
	}
	return client
}

// CandidateSearchStatus fetches the candidate-search status for the given
// experiment within the configured organization.
func (c *Client) CandidateSearchStatus(ctx context.Context, experimentID string) (*SearchStatus, error) {
	if strings.TrimSpace(experimentID) == "" {
		return nil, services.Wrap(services.ErrValidation, "experiments", "search-status", "experiment id is required", nil)
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/fedml-experiments/%s/%s/candidate_search_status",
		c.baseURL, url.PathEscape(c.organizationID), url.PathEscape(experimentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "experiments", "search-status", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "experiments", "search-status", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "experiments", "search-status", "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "experiments", "search-status",
			fmt.Sprintf("experiment %s not found", experimentID), nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.invalidateToken()
		return nil, services.Wrap(services.ErrTransient, "experiments", "search-status",
			fmt.Sprintf("request rejected with status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrTransient, "experiments", "search-status",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var status SearchStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, services.Wrap(services.ErrTransient, "experiments", "search-status", "decode response", err)
	}
	if status.ExperimentID == "" {
		status.ExperimentID = experimentID
	}
	status.Raw = body
	return &status, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.clientID)
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "experiments", "token", "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "experiments", "token", "token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "experiments", "token", "read token response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "experiments", "token",
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode), nil)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", services.Wrap(services.ErrTransient, "experiments", "token", "decode token response", err)
	}
	if grant.AccessToken == "" {
		return "", services.Wrap(services.ErrTransient, "experiments", "token", "token response missing access_token", nil)
	}

	c.accessToken = grant.AccessToken
	lifetime := time.Duration(grant.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = time.Minute
	}
	// Refresh a little early so in-flight requests never carry a token that
	// expires mid-request.
	c.tokenExpiry = time.Now().Add(lifetime - 10*time.Second)
	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}
