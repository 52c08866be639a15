// internal/domain/models/collections.go
package models

// Logical collection names.
const (
	CollUsers    = "users"
	CollTeams    = "teams"
	CollLeads    = "leads"
	CollSettings = "settings"
	CollAudit    = "audit_events"
)

// SettingsID is the key of the settings singleton document.
const SettingsID = "meta"

// Unassigned is the team id sentinel for users and leads without a team.
const Unassigned = "Unassigned"
