package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Ways a session can be opened.
const (
	SessionOriginLogin    = "login"
	SessionOriginRegister = "register"
	SessionOriginRecovery = "recovery"
)

// Session is an authenticated user session. Its tokens are never serialized to clients.
type Session struct {
	ID                    bson.ObjectID `bson:"_id,omitempty"            json:"id"`
	UserID                string        `bson:"user_id"                  json:"userId"`
	Origin                string        `bson:"origin"                   json:"origin"`
	AccessToken           string        `bson:"access_token"             json:"-"`
	RefreshToken          string        `bson:"refresh_token"            json:"-"`
	AccessTokenExpiresAt  time.Time     `bson:"access_token_expires_at"  json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time     `bson:"refresh_token_expires_at" json:"refreshTokenExpiresAt"`
	IPAddress             *string       `bson:"ip_address,omitempty"     json:"ipAddress,omitempty"`
	UserAgent             *string       `bson:"user_agent,omitempty"     json:"userAgent,omitempty"`
	CreatedAt             time.Time     `bson:"created_at"               json:"createdAt"`
	UpdatedAt             time.Time     `bson:"updated_at"               json:"updatedAt"`
}
