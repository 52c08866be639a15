// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Store is always set. The Mongo fields are nil when the memory backend
// is selected.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Store         docstore.Store
	Metrics       *prometheus.Registry
}
