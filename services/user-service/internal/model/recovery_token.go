package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RecoveryToken tracks the consumption of a signed recovery token by its JTI.
// The signed token remains the authority; this record only makes it single use.
type RecoveryToken struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	JTI       string        `bson:"jti"`
	Used      bool          `bson:"used"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}
