package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Audit actions recorded for identity-affecting mutations.
const (
	AuditUserCreated                = "userCreated"
	AuditUserRegistered             = "userRegistered"
	AuditUserModified               = "userModified"
	AuditUserDeleted                = "userDeleted"
	AuditUserPasswordChange         = "userPasswordChange"
	AuditChangePasswordAdmin        = "changePasswordAdmin"
	AuditAdminPasswordChange        = "adminPasswordChange"
	AuditAvatarChange               = "avatarChange"
	AuditPasswordRecovery           = "passwordRecovery"
	AuditUserRecoveryPasswordChange = "userRecoveryPasswordChange"
	AuditGroupMemberAdded           = "groupMemberAdded"
	AuditGroupMemberRemoved         = "groupMemberRemoved"
)

// AuditRecord is an immutable log entry. A nil Actor marks a system initiated action.
type AuditRecord struct {
	ID        bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Actor     *bson.ObjectID `bson:"actor"         json:"actor"`
	Subject   bson.ObjectID  `bson:"subject"       json:"subject"`
	Action    string         `bson:"action"        json:"action"`
	CreatedAt time.Time      `bson:"created_at"    json:"createdAt"`
}
