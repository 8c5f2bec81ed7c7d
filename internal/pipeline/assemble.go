package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/big-sky-labs/parcel-cli/internal/geometry"
	"github.com/big-sky-labs/parcel-cli/internal/model"
	"github.com/big-sky-labs/parcel-cli/pkg/geocoder"
)

// LocateFunc turns an address into a reconciled coordinate. It never returns
// nil; centroid fallbacks stand in when no provider matches.
type LocateFunc func(ctx context.Context, address string) *geocoder.Location

// CoordSourceParcel marks coordinates derived from the parcel boundary itself
// rather than from an address geocoder.
const CoordSourceParcel = "parcel_centroid"

// Assemble turns a raw resolver outcome into the user-facing property record.
// Coordinates come from the parcel boundary centroid when geometry is present,
// shifted by offset, and from the address geocoder otherwise.
func Assemble(ctx context.Context, lr *model.LookupResult, locate LocateFunc, offset model.Coordinate) (*model.PropertyInfo, error) {
	if lr == nil || !lr.Success {
		reason := "no source produced an address"
		geocode := ""
		if lr != nil {
			geocode = lr.Geocode
			if lr.Error != "" {
				reason = lr.Error
			}
		}
		return nil, &ResolutionError{Geocode: geocode, Reason: reason}
	}
	if strings.TrimSpace(lr.Address) == "" {
		return nil, &DataIntegrityError{Geocode: lr.Geocode, Reason: "successful result with empty address"}
	}

	info := &model.PropertyInfo{
		Geocode:        lr.Geocode,
		Address:        lr.Address,
		County:         DeriveCounty(lr.Address),
		ParcelGeometry: lr.ParcelGeometry,
	}

	if lr.ParcelGeometry != nil {
		centroid, err := geometry.CentroidOf(lr.ParcelGeometry)
		if err == nil {
			lat := centroid.Lat + offset.Lat
			lng := centroid.Lng + offset.Lng
			info.Lat = &lat
			info.Lng = &lng
			info.CoordSource = CoordSourceParcel
			info.Coordinates = formatCoordinates(lat, lng)
			return info, nil
		}
		zap.L().Debug("parcel centroid unavailable, geocoding address instead",
			zap.String("geocode", lr.Geocode),
			zap.Error(err))
	}

	loc := locate(ctx, lr.Address)
	lat, lng := loc.Coordinate.Lat, loc.Coordinate.Lng
	info.Lat = &lat
	info.Lng = &lng
	info.CoordSource = loc.Source
	info.Coordinates = formatCoordinates(lat, lng)
	return info, nil
}

func formatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}
