package types

import "github.com/golang-jwt/jwt/v5"

// RecoveryOperation is the purpose carried by password recovery tokens.
const RecoveryOperation = "recovery"

// JWTClaims are carried by access and refresh tokens.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// RecoveryClaims are carried by password recovery tokens.
type RecoveryClaims struct {
	UserID    string `json:"id"`
	Operation string `json:"operation"`
	jwt.RegisteredClaims
}

// Tokens is the token pair issued for a session.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
