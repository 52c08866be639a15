// internal/domain/models/lead.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Lead pipeline statuses used by the UI. Status is free text in storage;
// these are the values the application writes itself.
const (
	StatusNew                  = "New"
	StatusContacted            = "Contacted"
	StatusInFollowUp           = "In Follow-up"
	StatusInterested           = "Interested"
	StatusApplicationSubmitted = "Application Submitted"
	StatusConverted            = "Converted"
	StatusNotInterested        = "Not Interested"
	StatusLost                 = "Lost"
)

// Aura is a lead's temperature.
const (
	AuraHot  = "Hot"
	AuraMild = "Mild"
	AuraCold = "Cold"
	AuraDead = "Dead"
)

// ValidAura reports whether s is a known aura value.
func ValidAura(s string) bool {
	switch s {
	case AuraHot, AuraMild, AuraCold, AuraDead:
		return true
	}
	return false
}

const (
	LeadTypeStudent = "Student"
	LeadTypeOther   = "Other"
)

// Timeline event kinds.
const (
	EventCreate = "create"
	EventNote   = "note"
	EventStatus = "status"
)

// TimelineEvent is an immutable entry in a lead's history.
type TimelineEvent struct {
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ActorName string    `bson:"actor_name" json:"actor_name"`
	Kind      string    `bson:"kind" json:"kind"`
	Text      string    `bson:"text" json:"text"`
}

// Lead is a prospective customer record.
//
// EnteredBy and TeamID are stamped once at creation from the acting user.
// Timeline is append-only. Fields not modelled here (type-dependent extras
// such as "Stream" or "Occupation") are kept verbatim in Extra.
type Lead struct {
	ID            string          `bson:"_id" json:"id"`
	Name          string          `bson:"name" json:"name"`
	Phone         string          `bson:"phone" json:"phone"`
	LeadType      string          `bson:"lead_type,omitempty" json:"lead_type,omitempty"`
	Status        string          `bson:"status" json:"status"`
	Aura          string          `bson:"aura" json:"aura"`
	OriginType    string          `bson:"origin_type,omitempty" json:"origin_type,omitempty"`
	Route         string          `bson:"route,omitempty" json:"route,omitempty"`
	School        string          `bson:"school,omitempty" json:"school,omitempty"`
	Institute     string          `bson:"institute,omitempty" json:"institute,omitempty"`
	Course        string          `bson:"course,omitempty" json:"course,omitempty"`
	Class         string          `bson:"class,omitempty" json:"class,omitempty"`
	ContactPerson string          `bson:"contact_person,omitempty" json:"contact_person,omitempty"`
	VillageCity   string          `bson:"village_city,omitempty" json:"village_city,omitempty"`
	Notes         string          `bson:"notes,omitempty" json:"notes,omitempty"`
	IsDuplicate   bool            `bson:"is_duplicate,omitempty" json:"is_duplicate,omitempty"`
	EnteredBy     string          `bson:"entered_by" json:"entered_by"`
	TeamID        string          `bson:"team_id" json:"team_id"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt     *time.Time      `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	Timeline      []TimelineEvent `bson:"timeline" json:"timeline"`

	Extra bson.M `bson:",inline" json:"extra,omitempty"`
}

// Lead field names as stored.
const (
	LeadFieldName        = "name"
	LeadFieldPhone       = "phone"
	LeadFieldLeadType    = "lead_type"
	LeadFieldStatus      = "status"
	LeadFieldAura        = "aura"
	LeadFieldOriginType  = "origin_type"
	LeadFieldRoute       = "route"
	LeadFieldCourse      = "course"
	LeadFieldIsDuplicate = "is_duplicate"
	LeadFieldEnteredBy   = "entered_by"
	LeadFieldTeamID      = "team_id"
	LeadFieldCreatedAt   = "created_at"
	LeadFieldUpdatedAt   = "updated_at"
	LeadFieldTimeline    = "timeline"
)
