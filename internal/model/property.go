// Package model defines the records exchanged between the parcel resolution
// pipeline and its callers.
package model

import "time"

// Polygon is a GeoJSON-shaped parcel boundary: outer ring first, each ring an
// ordered sequence of [longitude, latitude] pairs.
type Polygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LookupResult is the outcome of resolving a geocode against the cadastral
// sources. Exactly one of (Success with a non-empty Address) or (!Success
// with a non-empty Error) holds.
type LookupResult struct {
	Success        bool     `json:"success"`
	Address        string   `json:"address,omitempty"`
	Geocode        string   `json:"geocode,omitempty"`
	ParcelGeometry *Polygon `json:"parcel_geometry,omitempty"`
	Source         string   `json:"source,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// PropertyInfo is the assembled, user-facing property record. Constructed
// fresh per lookup and never mutated afterwards.
type PropertyInfo struct {
	Geocode        string   `json:"geocode"`
	Address        string   `json:"address"`
	County         string   `json:"county,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
	Coordinates    string   `json:"coordinates,omitempty"`
	CoordSource    string   `json:"coord_source,omitempty"`
	ParcelGeometry *Polygon `json:"parcel_geometry,omitempty"`
}

// BatchPropertyResult is one batch item outcome, tagged with its input geocode.
type BatchPropertyResult struct {
	Geocode     string        `json:"geocode"`
	Success     bool          `json:"success"`
	Data        *PropertyInfo `json:"data,omitempty"`
	Error       string        `json:"error,omitempty"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// BatchSummary aggregates a batch lookup. TotalSuccessful + TotalFailed ==
// TotalRequested == len(Results) always holds.
type BatchSummary struct {
	Results         []BatchPropertyResult `json:"results"`
	TotalRequested  int                   `json:"total_requested"`
	TotalSuccessful int                   `json:"total_successful"`
	TotalFailed     int                   `json:"total_failed"`
}
