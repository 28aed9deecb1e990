package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account of the platform.
// Password always holds an encoded hash and is never serialized to clients.
type User struct {
	ID        bson.ObjectID   `bson:"_id,omitempty"        json:"id"`
	Username  string          `bson:"username"             json:"username"`
	Email     string          `bson:"email"                json:"email"`
	Name      string          `bson:"name"                 json:"name"`
	Phone     string          `bson:"phone,omitempty"      json:"phone,omitempty"`
	Password  string          `bson:"password"             json:"-"`
	Active    bool            `bson:"active"               json:"active"`
	Deleted   bool            `bson:"deleted"              json:"-"`
	DeletedAt *time.Time      `bson:"deleted_at,omitempty" json:"-"`
	Role      *bson.ObjectID  `bson:"role,omitempty"       json:"role,omitempty"`
	Groups    []bson.ObjectID `bson:"groups"               json:"groups"`
	Avatar    string          `bson:"avatar,omitempty"     json:"avatar,omitempty"`
	AvatarURL string          `bson:"avatar_url,omitempty" json:"avatarurl,omitempty"`
	CreatedAt time.Time       `bson:"created_at"           json:"createdAt"`
	UpdatedAt time.Time       `bson:"updated_at"           json:"updatedAt"`
}

// InGroup reports whether the user is a member of the group.
func (u *User) InGroup(groupID bson.ObjectID) bool {
	for _, g := range u.Groups {
		if g == groupID {
			return true
		}
	}
	return false
}
