package experiments

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"statmatch/internal/config"
	"statmatch/internal/services"
)

type fakeDoer struct {
	responses []*http.Response
	requests  []*http.Request
	err       error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return jsonResponse(http.StatusInternalServerError, `{}`), nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func testConfig() *config.Config {
	defaults := config.Default()
	cfg := &defaults
	cfg.API.BaseURL = "https://platform.example"
	cfg.API.TokenURL = "https://auth.example/token"
	cfg.API.ClientID = "statmatch"
	cfg.API.Username = "svc"
	cfg.API.Password = "secret"
	cfg.API.OrganizationID = "org-1"
	return cfg
}

func TestNewDisabledWithoutBaseURL(t *testing.T) {
	cfg := config.Default()
	if client := New(&cfg); client != nil {
		t.Error("expected nil client when base_url is unset")
	}
}

func TestCandidateSearchStatus(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		jsonResponse(http.StatusOK, `{"access_token": "tok-1", "expires_in": 300}`),
		jsonResponse(http.StatusOK, `{"experimentId": "exp-1", "status": "running"}`),
	}}
	client := NewWithDoer(testConfig(), doer)

	status, err := client.CandidateSearchStatus(context.Background(), "exp-1")
	if err != nil {
		t.Fatalf("search status: %v", err)
	}
	if status.Status != "running" {
		t.Errorf("status = %q, want running", status.Status)
	}
	if string(status.Raw) != `{"experimentId": "exp-1", "status": "running"}` {
		t.Errorf("raw body not preserved: %s", status.Raw)
	}

	if len(doer.requests) != 2 {
		t.Fatalf("got %d requests, want 2", len(doer.requests))
	}
	tokenReq := doer.requests[0]
	if tokenReq.URL.String() != "https://auth.example/token" {
		t.Errorf("token url = %s", tokenReq.URL)
	}
	apiReq := doer.requests[1]
	wantPath := "/api/fedml-experiments/org-1/exp-1/candidate_search_status"
	if apiReq.URL.Path != wantPath {
		t.Errorf("path = %s, want %s", apiReq.URL.Path, wantPath)
	}
	if got := apiReq.Header.Get("Authorization"); got != "Bearer tok-1" {
		t.Errorf("authorization = %q", got)
	}
}

func TestTokenReuse(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		jsonResponse(http.StatusOK, `{"access_token": "tok-1", "expires_in": 300}`),
		jsonResponse(http.StatusOK, `{"status": "running"}`),
		jsonResponse(http.StatusOK, `{"status": "completed"}`),
	}}
	client := NewWithDoer(testConfig(), doer)
	ctx := context.Background()

	if _, err := client.CandidateSearchStatus(ctx, "exp-1"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := client.CandidateSearchStatus(ctx, "exp-1"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	// Token endpoint hit once, API endpoint twice.
	if len(doer.requests) != 3 {
		t.Fatalf("got %d requests, want 3", len(doer.requests))
	}
}

func TestNotFoundMapsToErrNotFound(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		jsonResponse(http.StatusOK, `{"access_token": "tok-1", "expires_in": 300}`),
		jsonResponse(http.StatusNotFound, `{}`),
	}}
	client := NewWithDoer(testConfig(), doer)

	_, err := client.CandidateSearchStatus(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		jsonResponse(http.StatusOK, `{"access_token": "tok-1", "expires_in": 300}`),
		jsonResponse(http.StatusUnauthorized, `{}`),
		jsonResponse(http.StatusOK, `{"access_token": "tok-2", "expires_in": 300}`),
		jsonResponse(http.StatusOK, `{"status": "running"}`),
	}}
	client := NewWithDoer(testConfig(), doer)
	ctx := context.Background()

	if _, err := client.CandidateSearchStatus(ctx, "exp-1"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}

	// A retry must fetch a fresh token.
	if _, err := client.CandidateSearchStatus(ctx, "exp-1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	last := doer.requests[len(doer.requests)-1]
	if got := last.Header.Get("Authorization"); got != "Bearer tok-2" {
		t.Errorf("authorization = %q, want Bearer tok-2", got)
	}
}

func TestEmptyExperimentIDRejected(t *testing.T) {
	client := NewWithDoer(testConfig(), &fakeDoer{})
	_, err := client.CandidateSearchStatus(context.Background(), " ")
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
