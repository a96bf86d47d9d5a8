package spatial

import (
	"github.com/golang/geo/s2"

	"github.com/jengzang/tableviz/internal/models"
)

// ValidPosition reports whether lat/lon (degrees) is a real location on the sphere
func ValidPosition(lat, lon float64) bool {
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// Extent returns the bounding rectangle of the given points.
// ok is false when points is empty.
func Extent(points []models.DataPoint) (models.Bounds, bool) {
	if len(points) == 0 {
		return models.Bounds{}, false
	}

	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Position.Lat, p.Position.Lon))
	}

	lo, hi := rect.Lo(), rect.Hi()
	return models.Bounds{
		MinLat: lo.Lat.Degrees(),
		MinLon: lo.Lng.Degrees(),
		MaxLat: hi.Lat.Degrees(),
		MaxLon: hi.Lng.Degrees(),
	}, true
}

// Center returns the midpoint of a bounds rectangle
func Center(b models.Bounds) models.Position {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(b.MinLat, b.MinLon)).
		AddPoint(s2.LatLngFromDegrees(b.MaxLat, b.MaxLon))
	c := rect.Center()
	return models.Position{Lon: c.Lng.Degrees(), Lat: c.Lat.Degrees()}
}
