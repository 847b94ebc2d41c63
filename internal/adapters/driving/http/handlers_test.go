package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driving"
)

// Mock services for testing

type mockOAuth1FlowService struct {
	beginFn    func(ctx context.Context, req driving.OAuth1BeginRequest) (*driving.OAuth1BeginResponse, error)
	completeFn func(ctx context.Context, req driving.OAuth1CompleteRequest) (*driving.OAuth1CompleteResponse, error)
}

func (m *mockOAuth1FlowService) Begin(ctx context.Context, req driving.OAuth1BeginRequest) (*driving.OAuth1BeginResponse, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOAuth1FlowService) Complete(ctx context.Context, req driving.OAuth1CompleteRequest) (*driving.OAuth1CompleteResponse, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockOAuth2FlowService struct {
	beginFn    func(ctx context.Context, req driving.OAuth2BeginRequest) (*driving.OAuth2BeginResponse, error)
	completeFn func(ctx context.Context, req driving.OAuth2CompleteRequest) (*driving.OAuth2CompleteResponse, error)
}

func (m *mockOAuth2FlowService) Begin(ctx context.Context, req driving.OAuth2BeginRequest) (*driving.OAuth2BeginResponse, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOAuth2FlowService) Complete(ctx context.Context, req driving.OAuth2CompleteRequest) (*driving.OAuth2CompleteResponse, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockModerationService struct {
	runFn      func(ctx context.Context, req driving.RunRequest) (*driving.RunResponse, error)
	getRunFn   func(ctx context.Context, auth domain.AuthContext, runID string) (*domain.ModerationRun, error)
	listRunsFn func(ctx context.Context, auth domain.AuthContext, limit int) ([]*domain.ModerationRun, error)
}

func (m *mockModerationService) Run(ctx context.Context, req driving.RunRequest) (*driving.RunResponse, error) {
	if m.runFn != nil {
		return m.runFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockModerationService) GetRun(ctx context.Context, auth domain.AuthContext, runID string) (*domain.ModerationRun, error) {
	if m.getRunFn != nil {
		return m.getRunFn(ctx, auth, runID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockModerationService) ListRuns(ctx context.Context, auth domain.AuthContext, limit int) ([]*domain.ModerationRun, error) {
	if m.listRunsFn != nil {
		return m.listRunsFn(ctx, auth, limit)
	}
	return nil, errors.New("not implemented")
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

// withAuth injects an authenticated context the way the middleware does.
func withAuth(req *http.Request) *http.Request {
	authCtx := &domain.AuthContext{Email: "alice@example.com", SessionID: "sess-1"}
	ctx := context.WithValue(req.Context(), authContextKey, authCtx)
	return req.WithContext(ctx)
}

func TestHealthHandler(t *testing.T) {
	server := &Server{version: "test"}

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("expected status 'ok', got %s", response["status"])
	}
}

func TestReadyHandler(t *testing.T) {
	server := &Server{db: &mockPinger{}, redisClient: &mockPinger{}}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	server.handleReady(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestReadyHandler_DatabaseDown(t *testing.T) {
	server := &Server{db: &mockPinger{err: errors.New("connection refused")}}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	server.handleReady(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestVersionHandler(t *testing.T) {
	server := &Server{version: "1.2.3"}

	req := httptest.NewRequest("GET", "/version", nil)
	rr := httptest.NewRecorder()

	server.handleVersion(rr, req)

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["version"] != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %s", response["version"])
	}
}

func TestHandleOAuth1Begin_Success(t *testing.T) {
	mock := &mockOAuth1FlowService{
		beginFn: func(ctx context.Context, req driving.OAuth1BeginRequest) (*driving.OAuth1BeginResponse, error) {
			if req.Auth.Email != "alice@example.com" {
				t.Errorf("expected auth email to be forwarded, got %s", req.Auth.Email)
			}
			return &driving.OAuth1BeginResponse{
				AuthorizationURL: "https://provider.example/oauth/authorize?oauth_token=tok-1",
				RequestToken:     "tok-1",
				ExpiresAt:        time.Now().Add(10 * time.Minute).Format(time.RFC3339),
			}, nil
		},
	}
	server := &Server{oauth1Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth1/begin", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth1Begin(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var response driving.OAuth1BeginResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.RequestToken != "tok-1" {
		t.Errorf("expected request token 'tok-1', got %s", response.RequestToken)
	}
}

func TestHandleOAuth1Begin_NoAuthContext(t *testing.T) {
	server := &Server{oauth1Service: &mockOAuth1FlowService{}}

	req := httptest.NewRequest("GET", "/api/v1/oauth1/begin", nil)
	rr := httptest.NewRecorder()

	server.handleOAuth1Begin(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleOAuth1Callback_Success(t *testing.T) {
	mock := &mockOAuth1FlowService{
		completeFn: func(ctx context.Context, req driving.OAuth1CompleteRequest) (*driving.OAuth1CompleteResponse, error) {
			if req.OAuthToken != "tok-1" || req.OAuthVerifier != "ver-1" {
				t.Errorf("expected callback params forwarded, got token=%s verifier=%s", req.OAuthToken, req.OAuthVerifier)
			}
			return &driving.OAuth1CompleteResponse{
				Phase:      driving.PhaseReconciled,
				Credential: &domain.CredentialSummary{UserEmail: req.Auth.Email, DisplayName: "alice_handle", HasToken: true},
				Message:    "Connected as @alice_handle",
			}, nil
		},
	}
	server := &Server{oauth1Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth1/callback?oauth_token=tok-1&oauth_verifier=ver-1", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth1Callback(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var response driving.OAuth1CompleteResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Phase != driving.PhaseReconciled {
		t.Errorf("expected phase reconciled, got %s", response.Phase)
	}
}

func TestHandleOAuth1Begin_ProviderFailure(t *testing.T) {
	mock := &mockOAuth1FlowService{
		beginFn: func(ctx context.Context, req driving.OAuth1BeginRequest) (*driving.OAuth1BeginResponse, error) {
			return nil, fmt.Errorf("fetch request token: %w", &driven.ProviderError{Status: 503, Body: "over capacity"})
		},
	}
	server := &Server{oauth1Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth1/begin", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth1Begin(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rr.Code)
	}
}

func TestHandleOAuth1Callback_Denied(t *testing.T) {
	mock := &mockOAuth1FlowService{
		completeFn: func(ctx context.Context, req driving.OAuth1CompleteRequest) (*driving.OAuth1CompleteResponse, error) {
			if req.Denied != "tok-1" {
				t.Errorf("expected denied param forwarded, got %s", req.Denied)
			}
			return nil, driving.ErrDenied
		},
	}
	server := &Server{oauth1Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth1/callback?denied=tok-1", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth1Callback(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}

	var response driving.FlowError
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "denied" {
		t.Errorf("expected error code 'denied', got %s", response.Code)
	}
}

func TestHandleOAuth1Callback_MissingSessionSecret(t *testing.T) {
	mock := &mockOAuth1FlowService{
		completeFn: func(ctx context.Context, req driving.OAuth1CompleteRequest) (*driving.OAuth1CompleteResponse, error) {
			return nil, driving.ErrMissingSessionSecret
		},
	}
	server := &Server{oauth1Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth1/callback?oauth_token=tok-x&oauth_verifier=v", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth1Callback(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleOAuth1Callback_ExchangeFailure(t *testing.T) {
	mock := &mockOAuth1FlowService{
		completeFn: func(ctx context.Context, req driving.OAuth1CompleteRequest) (*driving.OAuth1CompleteResponse, error) {
			return nil, &driving.TokenExchangeError{Status: 401, Body: "invalid verifier"}
		},
	}
	server := &Server{oauth1Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth1/callback?oauth_token=tok-1&oauth_verifier=bad", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth1Callback(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rr.Code)
	}
}

func TestHandleOAuth2Callback_StateMismatch(t *testing.T) {
	mock := &mockOAuth2FlowService{
		completeFn: func(ctx context.Context, req driving.OAuth2CompleteRequest) (*driving.OAuth2CompleteResponse, error) {
			return nil, driving.ErrStateMismatch
		},
	}
	server := &Server{oauth2Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth2/callback?code=c&state=wrong", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth2Callback(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var response driving.FlowError
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "state_mismatch" {
		t.Errorf("expected error code 'state_mismatch', got %s", response.Code)
	}
}

func TestHandleOAuth2Callback_IntegrityConflict(t *testing.T) {
	mock := &mockOAuth2FlowService{
		completeFn: func(ctx context.Context, req driving.OAuth2CompleteRequest) (*driving.OAuth2CompleteResponse, error) {
			return nil, &driving.IntegrityError{ProviderUserID: "12345"}
		},
	}
	server := &Server{oauth2Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth2/callback?code=c&state=s", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth2Callback(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestHandleOAuth2Begin_Success(t *testing.T) {
	mock := &mockOAuth2FlowService{
		beginFn: func(ctx context.Context, req driving.OAuth2BeginRequest) (*driving.OAuth2BeginResponse, error) {
			return &driving.OAuth2BeginResponse{
				AuthorizationURL: "https://provider.example/i/oauth2/authorize?state=st-1",
				State:            "st-1",
				ExpiresAt:        time.Now().Add(10 * time.Minute).Format(time.RFC3339),
			}, nil
		},
	}
	server := &Server{oauth2Service: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/oauth2/begin", nil))
	rr := httptest.NewRecorder()

	server.handleOAuth2Begin(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var response driving.OAuth2BeginResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.State != "st-1" {
		t.Errorf("expected state 'st-1', got %s", response.State)
	}
}

func TestHandleModerationRun_Success(t *testing.T) {
	mock := &mockModerationService{
		runFn: func(ctx context.Context, req driving.RunRequest) (*driving.RunResponse, error) {
			if req.Auth.Email != "alice@example.com" {
				t.Errorf("expected auth taken from context, got %s", req.Auth.Email)
			}
			if req.Channel != "somechannel" {
				t.Errorf("expected channel 'somechannel', got %s", req.Channel)
			}
			run := &domain.ModerationRun{
				ID:        "run_abc",
				UserEmail: req.Auth.Email,
				Channel:   req.Channel,
				StartedAt: time.Now(),
				EndedAt:   time.Now(),
			}
			run.Record(domain.ActionOutcome{Target: "imposter1", Action: domain.ActionMute, Succeeded: true})
			return &driving.RunResponse{Run: run}, nil
		},
	}
	server := &Server{moderationService: mock}

	body, _ := json.Marshal(driving.RunRequest{Channel: "somechannel"})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/moderation/run", bytes.NewBuffer(body)))
	rr := httptest.NewRecorder()

	server.handleModerationRun(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var response driving.RunResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Run.ID != "run_abc" {
		t.Errorf("expected run id 'run_abc', got %s", response.Run.ID)
	}
	if response.Run.MutedCount != 1 {
		t.Errorf("expected muted count 1, got %d", response.Run.MutedCount)
	}
}

func TestHandleModerationRun_AuthNotTrustedFromBody(t *testing.T) {
	mock := &mockModerationService{
		runFn: func(ctx context.Context, req driving.RunRequest) (*driving.RunResponse, error) {
			if req.Auth.Email != "alice@example.com" {
				t.Errorf("expected auth overridden from context, got %s", req.Auth.Email)
			}
			return &driving.RunResponse{Run: &domain.ModerationRun{ID: "run_abc"}}, nil
		},
	}
	server := &Server{moderationService: mock}

	// A body that tries to smuggle in another identity
	body := []byte(`{"channel":"somechannel","auth":{"email":"mallory@example.com"}}`)
	req := withAuth(httptest.NewRequest("POST", "/api/v1/moderation/run", bytes.NewBuffer(body)))
	rr := httptest.NewRecorder()

	server.handleModerationRun(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestHandleModerationRun_InvalidJSON(t *testing.T) {
	server := &Server{moderationService: &mockModerationService{}}

	req := withAuth(httptest.NewRequest("POST", "/api/v1/moderation/run", bytes.NewBufferString("{not json")))
	rr := httptest.NewRecorder()

	server.handleModerationRun(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleModerationRun_AlreadyInProgress(t *testing.T) {
	mock := &mockModerationService{
		runFn: func(ctx context.Context, req driving.RunRequest) (*driving.RunResponse, error) {
			return nil, domain.ErrRunInProgress
		},
	}
	server := &Server{moderationService: mock}

	body, _ := json.Marshal(driving.RunRequest{Channel: "somechannel"})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/moderation/run", bytes.NewBuffer(body)))
	rr := httptest.NewRecorder()

	server.handleModerationRun(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestHandleModerationRun_NoCredential(t *testing.T) {
	mock := &mockModerationService{
		runFn: func(ctx context.Context, req driving.RunRequest) (*driving.RunResponse, error) {
			return nil, domain.ErrNoCredential
		},
	}
	server := &Server{moderationService: mock}

	body, _ := json.Marshal(driving.RunRequest{Channel: "somechannel"})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/moderation/run", bytes.NewBuffer(body)))
	rr := httptest.NewRecorder()

	server.handleModerationRun(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestHandleModerationRun_ChannelNotFound(t *testing.T) {
	mock := &mockModerationService{
		runFn: func(ctx context.Context, req driving.RunRequest) (*driving.RunResponse, error) {
			return nil, domain.ErrNotFound
		},
	}
	server := &Server{moderationService: mock}

	body, _ := json.Marshal(driving.RunRequest{Channel: "nosuchchannel"})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/moderation/run", bytes.NewBuffer(body)))
	rr := httptest.NewRecorder()

	server.handleModerationRun(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleGetRun_Success(t *testing.T) {
	mock := &mockModerationService{
		getRunFn: func(ctx context.Context, auth domain.AuthContext, runID string) (*domain.ModerationRun, error) {
			if runID != "run_abc" {
				t.Errorf("expected run id 'run_abc', got %s", runID)
			}
			return &domain.ModerationRun{ID: runID, UserEmail: auth.Email}, nil
		},
	}
	server := &Server{moderationService: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/moderation/runs/run_abc", nil))
	req.SetPathValue("id", "run_abc")
	rr := httptest.NewRecorder()

	server.handleGetRun(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestHandleGetRun_Forbidden(t *testing.T) {
	mock := &mockModerationService{
		getRunFn: func(ctx context.Context, auth domain.AuthContext, runID string) (*domain.ModerationRun, error) {
			return nil, domain.ErrForbidden
		},
	}
	server := &Server{moderationService: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/moderation/runs/run_other", nil))
	req.SetPathValue("id", "run_other")
	rr := httptest.NewRecorder()

	server.handleGetRun(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rr.Code)
	}
}

func TestHandleGetRun_NotFound(t *testing.T) {
	mock := &mockModerationService{
		getRunFn: func(ctx context.Context, auth domain.AuthContext, runID string) (*domain.ModerationRun, error) {
			return nil, domain.ErrNotFound
		},
	}
	server := &Server{moderationService: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/moderation/runs/run_missing", nil))
	req.SetPathValue("id", "run_missing")
	rr := httptest.NewRecorder()

	server.handleGetRun(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleListRuns_Success(t *testing.T) {
	mock := &mockModerationService{
		listRunsFn: func(ctx context.Context, auth domain.AuthContext, limit int) ([]*domain.ModerationRun, error) {
			if limit != 5 {
				t.Errorf("expected limit 5, got %d", limit)
			}
			return []*domain.ModerationRun{{ID: "run_1"}, {ID: "run_2"}}, nil
		},
	}
	server := &Server{moderationService: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/moderation/runs?limit=5", nil))
	rr := httptest.NewRecorder()

	server.handleListRuns(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var response []*domain.ModerationRun
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 2 {
		t.Errorf("expected 2 runs, got %d", len(response))
	}
}

func TestHandleListRuns_EmptyIsArray(t *testing.T) {
	mock := &mockModerationService{
		listRunsFn: func(ctx context.Context, auth domain.AuthContext, limit int) ([]*domain.ModerationRun, error) {
			return nil, nil
		},
	}
	server := &Server{moderationService: mock}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/moderation/runs", nil))
	rr := httptest.NewRecorder()

	server.handleListRuns(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", got)
	}
}

func TestHandleListRuns_InvalidLimit(t *testing.T) {
	server := &Server{moderationService: &mockModerationService{}}

	req := withAuth(httptest.NewRequest("GET", "/api/v1/moderation/runs?limit=abc", nil))
	rr := httptest.NewRecorder()

	server.handleListRuns(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"key": "value"})

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content type application/json, got %s", ct)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusBadRequest, "bad input")

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["error"] != "bad input" {
		t.Errorf("expected error 'bad input', got %s", response["error"])
	}
}
