// Package models defines core data structures for areas of interest, velocity fields,
// climate layers and assistant sessions.
package models

import "fmt"

const (
	// MinRadiusKm and MaxRadiusKm bound the analysis buffer around a point AOI.
	MinRadiusKm = 1.0
	MaxRadiusKm = 15.0
	// DefaultRadiusKm is used when a point AOI omits its radius.
	DefaultRadiusKm = 5.0
)

// LatLon is a geographic coordinate in degrees.
type LatLon struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Validate checks that the coordinate is inside the valid degree ranges.
func (p LatLon) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %.4f outside [-90, 90]", ErrInvalidRequest, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %.4f outside [-180, 180]", ErrInvalidRequest, p.Lon)
	}
	return nil
}

// AreaOfInterest is the spatial filter for every downstream query. It is either a
// buffered point (Center + RadiusKm) or an explicit polygon.
type AreaOfInterest struct {
	Name     string   `json:"name"`
	Preset   string   `json:"preset,omitempty"`
	Center   *LatLon  `json:"center,omitempty"`
	RadiusKm float64  `json:"radius_km,omitempty"`
	Polygon  []LatLon `json:"polygon,omitempty"`
	Zoom     int      `json:"zoom,omitempty"`
}

// IsEmpty reports whether the AOI has neither a center nor a polygon.
func (a *AreaOfInterest) IsEmpty() bool {
	return a == nil || (a.Center == nil && len(a.Polygon) == 0)
}

// GlacierPreset is a named glacier location offered for quick selection.
type GlacierPreset struct {
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
	Zoom int     `json:"zoom" yaml:"zoom"`
}

// AOI returns a buffered-point AOI for the preset with the given radius.
// A non-positive radius uses DefaultRadiusKm.
func (g GlacierPreset) AOI(radiusKm float64) *AreaOfInterest {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &AreaOfInterest{
		Name:     g.Name,
		Preset:   g.Name,
		Center:   &LatLon{Lat: g.Lat, Lon: g.Lon},
		RadiusKm: radiusKm,
		Zoom:     g.Zoom,
	}
}
