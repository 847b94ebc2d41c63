package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks database and cache connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// OAuth 1.0a endpoints

// handleOAuth1Begin godoc
// @Summary      Begin OAuth 1.0a flow
// @Description  Obtains a request token and returns the provider authorization URL
// @Tags         OAuth1
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driving.OAuth1BeginResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      502  {object}  ErrorResponse  "Provider request failed"
// @Router       /api/v1/oauth1/begin [get]
func (s *Server) handleOAuth1Begin(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp, err := s.oauth1Service.Begin(r.Context(), driving.OAuth1BeginRequest{Auth: *authCtx})
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleOAuth1Callback godoc
// @Summary      Complete OAuth 1.0a flow
// @Description  Consumes the provider callback, exchanges for an access token, and stores the credential
// @Tags         OAuth1
// @Produce      json
// @Security     BearerAuth
// @Param        oauth_token     query  string  false  "Request token returned by the provider"
// @Param        oauth_verifier  query  string  false  "Verifier returned by the provider"
// @Param        denied          query  string  false  "Set when the user declined authorization"
// @Success      200  {object}  driving.OAuth1CompleteResponse
// @Failure      400  {object}  ErrorResponse  "Missing or invalid callback parameters"
// @Failure      403  {object}  ErrorResponse  "User declined authorization"
// @Failure      409  {object}  ErrorResponse  "Credential conflict"
// @Failure      502  {object}  ErrorResponse  "Provider request failed"
// @Router       /api/v1/oauth1/callback [get]
func (s *Server) handleOAuth1Callback(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	req := driving.OAuth1CompleteRequest{
		Auth:          *authCtx,
		OAuthToken:    q.Get("oauth_token"),
		OAuthVerifier: q.Get("oauth_verifier"),
		Denied:        q.Get("denied"),
	}

	resp, err := s.oauth1Service.Complete(r.Context(), req)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// OAuth 2.0 endpoints

// handleOAuth2Begin godoc
// @Summary      Begin OAuth 2.0 PKCE flow
// @Description  Generates PKCE credentials and returns the provider authorization URL
// @Tags         OAuth2
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driving.OAuth2BeginResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Router       /api/v1/oauth2/begin [get]
func (s *Server) handleOAuth2Begin(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp, err := s.oauth2Service.Begin(r.Context(), driving.OAuth2BeginRequest{Auth: *authCtx})
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleOAuth2Callback godoc
// @Summary      Complete OAuth 2.0 PKCE flow
// @Description  Validates the callback, exchanges the code for tokens, and stores the credential
// @Tags         OAuth2
// @Produce      json
// @Security     BearerAuth
// @Param        code   query  string  false  "Authorization code"
// @Param        state  query  string  false  "CSRF state"
// @Param        error  query  string  false  "Provider error indicator"
// @Success      200  {object}  driving.OAuth2CompleteResponse
// @Failure      400  {object}  ErrorResponse  "Missing or invalid callback parameters"
// @Failure      403  {object}  ErrorResponse  "User declined authorization"
// @Failure      409  {object}  ErrorResponse  "Credential conflict"
// @Failure      502  {object}  ErrorResponse  "Provider request failed"
// @Router       /api/v1/oauth2/callback [get]
func (s *Server) handleOAuth2Callback(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	req := driving.OAuth2CompleteRequest{
		Auth:  *authCtx,
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	}

	resp, err := s.oauth2Service.Complete(r.Context(), req)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Moderation endpoints

// handleModerationRun godoc
// @Summary      Run the moderation pipeline
// @Description  Mutes, blocks, and reports every impersonator of the named channel
// @Tags         Moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.RunRequest  true  "Channel to moderate"
// @Success      200      {object}  driving.RunResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body or channel"
// @Failure      404      {object}  ErrorResponse  "Channel target list not found"
// @Failure      409      {object}  ErrorResponse  "Run already in progress or no credential"
// @Router       /api/v1/moderation/run [post]
func (s *Server) handleModerationRun(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req driving.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Auth = *authCtx

	resp, err := s.moderationService.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRunInProgress):
			writeError(w, http.StatusConflict, "a moderation run is already in progress")
		case errors.Is(err, domain.ErrNoCredential):
			writeError(w, http.StatusConflict, "no active credential; connect an account first")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "no target list for channel")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid channel")
		default:
			writeError(w, http.StatusInternalServerError, "moderation run failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetRun godoc
// @Summary      Get a moderation run
// @Description  Retrieves a persisted run with its full outcome log
// @Tags         Moderation
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Run ID"
// @Success      200  {object}  domain.ModerationRun
// @Failure      403  {object}  ErrorResponse  "Run belongs to another user"
// @Failure      404  {object}  ErrorResponse  "Run not found"
// @Router       /api/v1/moderation/runs/{id} [get]
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	runID := r.PathValue("id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	run, err := s.moderationService.GetRun(r.Context(), *authCtx, runID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "run not found")
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, "run belongs to another user")
		default:
			writeError(w, http.StatusInternalServerError, "failed to get run")
		}
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleListRuns godoc
// @Summary      List moderation runs
// @Description  Lists the authenticated user's recent runs, newest first
// @Tags         Moderation
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query  int  false  "Maximum runs to return (default 20, max 100)"
// @Success      200  {array}  domain.ModerationRun
// @Router       /api/v1/moderation/runs [get]
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.moderationService.ListRuns(r.Context(), *authCtx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	if runs == nil {
		runs = []*domain.ModerationRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// Helpers

// writeFlowError maps flow-controller failures onto HTTP statuses. Flow
// errors serialize with their stable code so callers can branch on it.
func writeFlowError(w http.ResponseWriter, err error) {
	var flowErr *driving.FlowError
	if errors.As(err, &flowErr) {
		status := http.StatusBadRequest
		if flowErr == driving.ErrDenied {
			status = http.StatusForbidden
		}
		writeJSON(w, status, flowErr)
		return
	}

	var exchangeErr *driving.TokenExchangeError
	if errors.As(err, &exchangeErr) {
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	var identityErr *driving.IdentityFetchError
	if errors.As(err, &identityErr) {
		writeError(w, http.StatusBadGateway, "identity fetch failed")
		return
	}

	// Provider failures outside the exchange/identity legs, such as the
	// request-token call at flow begin.
	var providerErr *driven.ProviderError
	if errors.As(err, &providerErr) {
		writeError(w, http.StatusBadGateway, "provider request failed")
		return
	}

	var integrityErr *driving.IntegrityError
	if errors.As(err, &integrityErr) {
		writeError(w, http.StatusConflict, "provider account already belongs to another user")
		return
	}

	var reconcileErr *driving.ReconciliationError
	if errors.As(err, &reconcileErr) {
		writeError(w, http.StatusConflict, "credential reconciliation failed")
		return
	}

	writeError(w, http.StatusInternalServerError, "flow failed")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
