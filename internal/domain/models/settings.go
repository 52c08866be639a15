// internal/domain/models/settings.go
package models

// Settings is the singleton taxonomy document (settings/meta).
//
// Keys are admin-defined dropdown lists, for example
//
//	OriginType: [{value: "Walk-in"}, {value: "Referral"}]
//	RouteData:  {"North": ["School A", "School B"]}
//
// Values are stored verbatim; the shape of each key is owned by the UI.
type Settings map[string]any

// Option is one entry of a {value} list.
type Option struct {
	Value string `bson:"value" json:"value"`
}
