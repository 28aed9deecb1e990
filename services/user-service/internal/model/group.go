package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Group is a named collection of users. Membership is stored on User.Groups only.
type Group struct {
	ID        bson.ObjectID `bson:"_id,omitempty"   json:"id"`
	Name      string        `bson:"name"            json:"name"`
	Color     string        `bson:"color,omitempty" json:"color,omitempty"`
	CreatedAt time.Time     `bson:"created_at"      json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at"      json:"updatedAt"`
}
