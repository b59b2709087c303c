// Package geo holds the coordinate arithmetic of the service: public
// location generalization, bounding boxes for candidate search and
// great-circle distance.
package geo

import (
	"math"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

const (
	// GridStep is the rounding step for FOUND locations, about 1.1 km.
	GridStep = 0.01

	// KmPerDegree is the flat conversion used for bounding boxes.
	KmPerDegree = 111.0

	earthRadiusKm = 6371.0
)

// Generalize returns the location other users may see and the original
// point. Found items are snapped to a GridStep grid with area precision so
// the custody spot stays hidden; lost reports stay exact.
func Generalize(flow models.Flow, p models.Point) (models.Location, models.Point) {
	if flow == models.FlowFound {
		return models.Location{
			Lat:       RoundCoordinate(p.Lat, GridStep),
			Lng:       RoundCoordinate(p.Lng, GridStep),
			Precision: models.PrecisionArea,
		}, p
	}
	return models.Location{Lat: p.Lat, Lng: p.Lng, Precision: models.PrecisionPoint}, p
}

// RoundCoordinate rounds v to the nearest multiple of step.
func RoundCoordinate(v, step float64) float64 {
	return math.Round(v/step) * step
}

// Finite reports whether both axes are usable numbers.
func Finite(p models.Point) bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// BoundingBox returns the square of half-side radiusKm around center.
func BoundingBox(center models.Point, radiusKm float64) models.BoundingBox {
	d := radiusKm / KmPerDegree
	return models.BoundingBox{
		MinLat: center.Lat - d,
		MaxLat: center.Lat + d,
		MinLng: center.Lng - d,
		MaxLng: center.Lng + d,
	}
}

// DistanceKm is the haversine distance between a and b.
func DistanceKm(a, b models.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
