// internal/domain/models/user.go
package models

import "time"

const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

// User is a member of staff who can sign in.
//
// Team membership lives on the user (TeamID); teams do not embed members.
// Executives without a team carry the Unassigned sentinel.
type User struct {
	ID           string     `bson:"_id" json:"id"`
	Name         string     `bson:"name" json:"name"`
	Email        string     `bson:"email" json:"email"`
	Phone        string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         Role       `bson:"role" json:"role"`
	TeamID       string     `bson:"team_id,omitempty" json:"team_id,omitempty"`
	Status       string     `bson:"status" json:"status"`
	PasswordHash string     `bson:"password_hash,omitempty" json:"-"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// User field names as stored.
const (
	UserFieldName         = "name"
	UserFieldEmail        = "email"
	UserFieldRole         = "role"
	UserFieldTeamID       = "team_id"
	UserFieldStatus       = "status"
	UserFieldPasswordHash = "password_hash"
	UserFieldCreatedAt    = "created_at"
	UserFieldUpdatedAt    = "updated_at"
)

// Actor returns the session identity for u.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role, TeamID: u.TeamID}
}
