// Package geo provides area-of-interest geometry on the sphere: validation, buffer
// rings sent to the processing platform, area and cache fingerprints.
package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/hyperjump/glacierwatch/internal/models"
)

// EarthRadiusKm is the mean Earth radius used for buffer and area math.
const EarthRadiusKm = 6371.0088

// ringVertices is the number of vertices used to approximate a circular buffer.
const ringVertices = 64

// minPolygonAreaKm2 rejects degenerate (collinear or repeated) polygons.
const minPolygonAreaKm2 = 1e-4

// Validate checks that aoi is non-empty and well formed.
func Validate(aoi *models.AreaOfInterest) error {
	if aoi.IsEmpty() {
		return fmt.Errorf("%w: area of interest is empty", models.ErrInvalidRequest)
	}
	if aoi.Center != nil {
		if err := aoi.Center.Validate(); err != nil {
			return err
		}
		if aoi.RadiusKm < models.MinRadiusKm || aoi.RadiusKm > models.MaxRadiusKm {
			return fmt.Errorf("%w: radius %.1f km outside [%.0f, %.0f]",
				models.ErrInvalidRequest, aoi.RadiusKm, models.MinRadiusKm, models.MaxRadiusKm)
		}
		return nil
	}
	for _, p := range aoi.Polygon {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if len(distinct(aoi.Polygon)) < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 distinct vertices", models.ErrInvalidRequest)
	}
	if AreaKm2(aoi) < minPolygonAreaKm2 {
		return fmt.Errorf("%w: polygon has no area", models.ErrInvalidRequest)
	}
	return nil
}

// Ring returns the AOI boundary as a closed ring (first vertex repeated last), in the
// order GeoJSON expects. Point AOIs are approximated by a geodesic circle.
func Ring(aoi *models.AreaOfInterest) []models.LatLon {
	var ring []models.LatLon
	if aoi.Center != nil {
		ring = make([]models.LatLon, 0, ringVertices+1)
		for i := 0; i < ringVertices; i++ {
			bearing := 2 * math.Pi * float64(i) / ringVertices
			ring = append(ring, Destination(*aoi.Center, bearing, aoi.RadiusKm))
		}
	} else {
		ring = distinct(aoi.Polygon)
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// AreaKm2 returns the AOI area in square kilometres.
func AreaKm2(aoi *models.AreaOfInterest) float64 {
	if aoi.IsEmpty() {
		return 0
	}
	if aoi.Center != nil {
		return circleCap(aoi).Area() * EarthRadiusKm * EarthRadiusKm
	}
	loop := polygonLoop(aoi.Polygon)
	if loop == nil {
		return 0
	}
	return loop.Area() * EarthRadiusKm * EarthRadiusKm
}

// Fingerprint returns a stable key for the AOI geometry, rounded to ~1 m.
func Fingerprint(aoi *models.AreaOfInterest) string {
	if aoi.IsEmpty() {
		return ""
	}
	if aoi.Center != nil {
		return fmt.Sprintf("c:%.5f,%.5f,r:%.3f", aoi.Center.Lat, aoi.Center.Lon, aoi.RadiusKm)
	}
	parts := make([]string, 0, len(aoi.Polygon))
	for _, p := range distinct(aoi.Polygon) {
		parts = append(parts, fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon))
	}
	return "p:" + strings.Join(parts, ";")
}

// Destination returns the point reached from origin after travelling distanceKm along
// the great circle with the given initial bearing (radians, clockwise from north).
func Destination(origin models.LatLon, bearing, distanceKm float64) models.LatLon {
	d := distanceKm / EarthRadiusKm
	lat1 := origin.Lat * math.Pi / 180
	lon1 := origin.Lon * math.Pi / 180
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(math.Sin(bearing)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	lon := math.Mod(lon2*180/math.Pi+540, 360) - 180
	return models.LatLon{Lat: lat2 * 180 / math.Pi, Lon: lon}
}

func circleCap(aoi *models.AreaOfInterest) s2.Cap {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(aoi.Center.Lat, aoi.Center.Lon))
	return s2.CapFromCenterAngle(center, s1.Angle(aoi.RadiusKm/EarthRadiusKm))
}

func polygonLoop(vertices []models.LatLon) *s2.Loop {
	pts := distinct(vertices)
	if len(pts) < 3 {
		return nil
	}
	points := make([]s2.Point, len(pts))
	for i, p := range pts {
		points[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	loop := s2.LoopFromPoints(points)
	loop.Normalize()
	return loop
}

// distinct drops consecutive duplicates and a trailing closing vertex.
func distinct(vertices []models.LatLon) []models.LatLon {
	out := make([]models.LatLon, 0, len(vertices))
	for _, v := range vertices {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
