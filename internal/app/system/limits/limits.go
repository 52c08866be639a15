// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size for a JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxSnapshotBody is the maximum size for an uploaded backup snapshot.
	// Snapshots hold every record, so this is far above MaxJSONBody.
	MaxSnapshotBody = 256 << 20 // 256 MB
)
