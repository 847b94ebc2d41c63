package services

import (
	"context"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// mockOAuth1Store implements driven.OAuth1CredentialStore for testing
type mockOAuth1Store struct {
	byEmail map[string]*domain.OAuth1Credential
}

func newMockOAuth1Store() *mockOAuth1Store {
	return &mockOAuth1Store{byEmail: make(map[string]*domain.OAuth1Credential)}
}

func (m *mockOAuth1Store) Create(ctx context.Context, cred *domain.OAuth1Credential) error {
	if _, ok := m.byEmail[cred.UserEmail]; ok {
		return &domain.ConstraintViolationError{Constraint: domain.ConstraintOwner}
	}
	for _, c := range m.byEmail {
		if c.Token == cred.Token && c.TokenSecret == cred.TokenSecret {
			return &domain.ConstraintViolationError{Constraint: domain.ConstraintTokenPair}
		}
		if c.ProviderUserID == cred.ProviderUserID {
			return &domain.ConstraintViolationError{Constraint: domain.ConstraintProviderUserID}
		}
	}
	copied := *cred
	m.byEmail[cred.UserEmail] = &copied
	return nil
}

func (m *mockOAuth1Store) GetByUser(ctx context.Context, userEmail string) (*domain.OAuth1Credential, error) {
	c, ok := m.byEmail[userEmail]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (m *mockOAuth1Store) GetByProviderUserID(ctx context.Context, providerUserID string) (*domain.OAuth1Credential, error) {
	for _, c := range m.byEmail {
		if c.ProviderUserID == providerUserID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockOAuth1Store) GetByTokenPair(ctx context.Context, token, tokenSecret string) (*domain.OAuth1Credential, error) {
	for _, c := range m.byEmail {
		if c.Token == token && c.TokenSecret == tokenSecret {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockOAuth1Store) RefreshInPlace(ctx context.Context, userEmail string, cred *domain.OAuth1Credential) error {
	rec, ok := m.byEmail[userEmail]
	if !ok {
		return domain.ErrNotFound
	}
	m.overwrite(rec, userEmail, cred)
	return nil
}

func (m *mockOAuth1Store) ArchiveAndReplace(ctx context.Context, userEmail string, cred *domain.OAuth1Credential) error {
	rec, ok := m.byEmail[userEmail]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.ProviderUserID != cred.ProviderUserID {
		rec.History = append(rec.History, rec.Snapshot(time.Now()))
	}
	m.overwrite(rec, userEmail, cred)
	return nil
}

// overwrite applies cred's fields to rec, preserving creation time and
// history, and re-keys the record when ownership changes.
func (m *mockOAuth1Store) overwrite(rec *domain.OAuth1Credential, oldEmail string, cred *domain.OAuth1Credential) {
	rec.ProviderUserID = cred.ProviderUserID
	rec.DisplayName = cred.DisplayName
	rec.Token = cred.Token
	rec.TokenSecret = cred.TokenSecret
	rec.Verifier = cred.Verifier
	rec.LastRefreshedAt = cred.LastRefreshedAt
	if cred.UserEmail != oldEmail {
		delete(m.byEmail, oldEmail)
		rec.UserEmail = cred.UserEmail
		m.byEmail[rec.UserEmail] = rec
	}
}

// mockOAuth2Store implements driven.OAuth2CredentialStore for testing
type mockOAuth2Store struct {
	byEmail map[string]*domain.OAuth2Credential
}

func newMockOAuth2Store() *mockOAuth2Store {
	return &mockOAuth2Store{byEmail: make(map[string]*domain.OAuth2Credential)}
}

func (m *mockOAuth2Store) Create(ctx context.Context, cred *domain.OAuth2Credential) error {
	if _, ok := m.byEmail[cred.UserEmail]; ok {
		return &domain.ConstraintViolationError{Constraint: domain.ConstraintOwner}
	}
	for _, c := range m.byEmail {
		if c.ProviderUserID == cred.ProviderUserID {
			return &domain.ConstraintViolationError{Constraint: domain.ConstraintProviderUserID}
		}
	}
	copied := *cred
	m.byEmail[cred.UserEmail] = &copied
	return nil
}

func (m *mockOAuth2Store) GetByUser(ctx context.Context, userEmail string) (*domain.OAuth2Credential, error) {
	c, ok := m.byEmail[userEmail]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (m *mockOAuth2Store) Update(ctx context.Context, cred *domain.OAuth2Credential) error {
	if _, ok := m.byEmail[cred.UserEmail]; !ok {
		return domain.ErrNotFound
	}
	for email, c := range m.byEmail {
		if email != cred.UserEmail && c.ProviderUserID == cred.ProviderUserID {
			return &domain.ConstraintViolationError{Constraint: domain.ConstraintProviderUserID}
		}
	}
	copied := *cred
	m.byEmail[cred.UserEmail] = &copied
	return nil
}

// mockFlowStateStore implements driven.FlowStateStore for testing
type mockFlowStateStore struct {
	states map[string]*driven.FlowState
}

func newMockFlowStateStore() *mockFlowStateStore {
	return &mockFlowStateStore{states: make(map[string]*driven.FlowState)}
}

func (m *mockFlowStateStore) Save(ctx context.Context, state *driven.FlowState) error {
	m.states[state.SessionID] = state
	return nil
}

func (m *mockFlowStateStore) GetAndDelete(ctx context.Context, sessionID string) (*driven.FlowState, error) {
	s, ok := m.states[sessionID]
	if !ok {
		return nil, nil
	}
	delete(m.states, sessionID)
	if time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

func (m *mockFlowStateStore) Cleanup(ctx context.Context) error {
	now := time.Now()
	for k, v := range m.states {
		if now.After(v.ExpiresAt) {
			delete(m.states, k)
		}
	}
	return nil
}

// mockSecretCache implements driven.RequestSecretCache for testing
type mockSecretCache struct {
	entries map[string]string
}

func newMockSecretCache() *mockSecretCache {
	return &mockSecretCache{entries: make(map[string]string)}
}

func (m *mockSecretCache) Put(ctx context.Context, token, secretHash string) error {
	m.entries[token] = secretHash
	return nil
}

func (m *mockSecretCache) Get(ctx context.Context, token string) (string, error) {
	return m.entries[token], nil
}

func (m *mockSecretCache) Delete(ctx context.Context, token string) error {
	delete(m.entries, token)
	return nil
}

func (m *mockSecretCache) Cleanup(ctx context.Context) error { return nil }

// plainHasher implements driven.SecretHasher with a reversible marker so
// tests can assert what was cached without a real KDF.
type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }

func (plainHasher) Verify(secret, hash string) bool { return hash == "hashed:"+secret }

// mockOAuth1Provider implements driven.OAuth1Provider for testing
type mockOAuth1Provider struct {
	requestToken *driven.RequestToken
	accessToken  *driven.AccessToken
	identity     *driven.Identity

	fetchErr    error
	exchangeErr error
	verifyErr   error

	exchangedVerifier string
}

func (m *mockOAuth1Provider) FetchRequestToken(ctx context.Context, callbackURL string) (*driven.RequestToken, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.requestToken, nil
}

func (m *mockOAuth1Provider) AuthorizationURL(requestToken string) string {
	return "https://provider.example/oauth/authorize?oauth_token=" + requestToken
}

func (m *mockOAuth1Provider) ExchangeAccessToken(ctx context.Context, reqToken *driven.RequestToken, verifier string) (*driven.AccessToken, error) {
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	m.exchangedVerifier = verifier
	return m.accessToken, nil
}

func (m *mockOAuth1Provider) VerifyIdentity(ctx context.Context, token *driven.AccessToken) (*driven.Identity, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.identity, nil
}

func (m *mockOAuth1Provider) RefreshCredential(ctx context.Context, token *driven.AccessToken) (*driven.AccessToken, error) {
	return token, nil
}

// mockOAuth2Provider implements driven.OAuth2Provider for testing
type mockOAuth2Provider struct {
	token    *driven.OAuth2Token
	identity *driven.Identity

	exchangeErr error
	userInfoErr error

	authState     string
	authChallenge string
	exchangedCode     string
	exchangedVerifier string
}

func (m *mockOAuth2Provider) BuildAuthURL(state, codeChallenge string) string {
	m.authState = state
	m.authChallenge = codeChallenge
	return "https://provider.example/i/oauth2/authorize?state=" + state + "&code_challenge=" + codeChallenge
}

func (m *mockOAuth2Provider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*driven.OAuth2Token, error) {
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	m.exchangedCode = code
	m.exchangedVerifier = codeVerifier
	return m.token, nil
}

func (m *mockOAuth2Provider) RefreshToken(ctx context.Context, refreshToken string) (*driven.OAuth2Token, error) {
	return m.token, nil
}

func (m *mockOAuth2Provider) GetUserInfo(ctx context.Context, accessToken string) (*driven.Identity, error) {
	if m.userInfoErr != nil {
		return nil, m.userInfoErr
	}
	return m.identity, nil
}

// mockModerationAPI implements driven.ModerationAPI for testing. It records
// calls in order and fails those listed in failOn.
type mockModerationAPI struct {
	calls  []string
	failOn map[string]error
}

func newMockModerationAPI() *mockModerationAPI {
	return &mockModerationAPI{failOn: make(map[string]error)}
}

func (m *mockModerationAPI) call(kind, target string) error {
	key := kind + ":" + target
	m.calls = append(m.calls, key)
	if err, ok := m.failOn[key]; ok {
		return err
	}
	return nil
}

func (m *mockModerationAPI) Mute(ctx context.Context, token *driven.AccessToken, target string) error {
	return m.call("mute", target)
}

func (m *mockModerationAPI) Block(ctx context.Context, token *driven.AccessToken, target string) error {
	return m.call("block", target)
}

func (m *mockModerationAPI) ReportSpam(ctx context.Context, token *driven.AccessToken, target string) error {
	return m.call("report", target)
}

// mockTargetResolver implements driven.TargetResolver for testing
type mockTargetResolver struct {
	channels map[string][]string
}

func (m *mockTargetResolver) Resolve(ctx context.Context, channel string) ([]string, error) {
	targets, ok := m.channels[channel]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return targets, nil
}

// mockRunStore implements driven.RunStore for testing
type mockRunStore struct {
	runs      map[string]*domain.ModerationRun
	lastLimit int
}

func newMockRunStore() *mockRunStore {
	return &mockRunStore{runs: make(map[string]*domain.ModerationRun)}
}

func (m *mockRunStore) Save(ctx context.Context, run *domain.ModerationRun) error {
	m.runs[run.ID] = run
	return nil
}

func (m *mockRunStore) Get(ctx context.Context, id string) (*domain.ModerationRun, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (m *mockRunStore) ListByUser(ctx context.Context, userEmail string, limit int) ([]*domain.ModerationRun, error) {
	m.lastLimit = limit
	var out []*domain.ModerationRun
	for _, run := range m.runs {
		if run.UserEmail == userEmail {
			out = append(out, run)
		}
	}
	return out, nil
}

// mockLock implements driven.DistributedLock for testing
type mockLock struct {
	held map[string]bool
}

func newMockLock() *mockLock {
	return &mockLock{held: make(map[string]bool)}
}

func (m *mockLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.held[name] {
		return false, nil
	}
	m.held[name] = true
	return true, nil
}

func (m *mockLock) Release(ctx context.Context, name string) error {
	delete(m.held, name)
	return nil
}

func (m *mockLock) Extend(ctx context.Context, name string, ttl time.Duration) error { return nil }

func (m *mockLock) Ping(ctx context.Context) error { return nil }
