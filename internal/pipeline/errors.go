// Package pipeline assembles parcel resolution and address geocoding into the
// two operations the application exposes: single and batch property lookup.
package pipeline

import "fmt"

// ResolutionError means every strategy in the parcel resolver chain was
// exhausted without producing an address.
type ResolutionError struct {
	Geocode string
	Reason  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution failed for geocode %s: %s", e.Geocode, e.Reason)
}

// DataIntegrityError means a source reported success but returned a
// structurally invalid payload. Hard error, never silently downgraded, so
// garbage records don't propagate.
type DataIntegrityError struct {
	Geocode string
	Reason  string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity failure for geocode %s: %s", e.Geocode, e.Reason)
}
