// Package webhook models inbound courier platform callbacks: request
// authentication, the typed payload decoded at the boundary, the mapping of
// platform status vocabulary onto order events, and the persisted event row
// used for deduplication.
package webhook
