package domain

// AuthContext contains the authenticated identity for a request.
// Flow controllers receive this explicitly; nothing is read from ambient
// or process-global state.
type AuthContext struct {
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
