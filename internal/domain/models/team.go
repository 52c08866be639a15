// internal/domain/models/team.go
package models

import "time"

// Team groups executives under an optional supervisor.
// Members are derived from users.team_id.
type Team struct {
	ID           string     `bson:"_id" json:"id"`
	Name         string     `bson:"name" json:"name"`
	SupervisorID string     `bson:"supervisor_id,omitempty" json:"supervisor_id,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

const (
	TeamFieldName         = "name"
	TeamFieldSupervisorID = "supervisor_id"
	TeamFieldCreatedAt    = "created_at"
	TeamFieldUpdatedAt    = "updated_at"
)
