// Package services holds domain logic that spans aggregates.
//
// The package includes:
//   - BranchResolver: maps a delivery address onto the operating branch
//     that serves its zone
package services
