package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/s2"

	"github.com/hyperjump/glacierwatch/internal/models"
)

func pindari(radius float64) *models.AreaOfInterest {
	return &models.AreaOfInterest{Name: "Pindari Glacier", Center: &models.LatLon{Lat: 30.32, Lon: 79.96}, RadiusKm: radius}
}

func TestValidate(t *testing.T) {
	square := []models.LatLon{{Lat: 35.0, Lon: 76.0}, {Lat: 35.0, Lon: 76.1}, {Lat: 35.1, Lon: 76.1}, {Lat: 35.1, Lon: 76.0}}
	tests := []struct {
		name    string
		aoi     *models.AreaOfInterest
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", &models.AreaOfInterest{Name: "nothing"}, true},
		{"point ok", pindari(5), false},
		{"radius too small", pindari(0.5), true},
		{"radius too large", pindari(20), true},
		{"bad latitude", &models.AreaOfInterest{Center: &models.LatLon{Lat: 95}, RadiusKm: 5}, true},
		{"polygon ok", &models.AreaOfInterest{Polygon: square}, false},
		{"closed polygon ok", &models.AreaOfInterest{Polygon: append(square, square[0])}, false},
		{"two vertices", &models.AreaOfInterest{Polygon: square[:2]}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.aoi)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, models.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestRing_circleIsClosedAtRadius(t *testing.T) {
	aoi := pindari(5)
	ring := Ring(aoi)
	if len(ring) != ringVertices+1 {
		t.Fatalf("ring length: got %d, want %d", len(ring), ringVertices+1)
	}
	if ring[0] != ring[len(ring)-1] {
		t.Error("ring should be closed")
	}
	for i, p := range ring {
		c := s2.LatLngFromDegrees(aoi.Center.Lat, aoi.Center.Lon)
		if d := c.Distance(s2.LatLngFromDegrees(p.Lat, p.Lon)).Radians() * EarthRadiusKm; math.Abs(d-5) > 0.01 {
			t.Errorf("vertex %d at %.4f km, want 5", i, d)
		}
	}
}

func TestAreaKm2(t *testing.T) {
	got := AreaKm2(pindari(5))
	want := math.Pi * 25
	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("circle area: got %.3f, want ~%.3f", got, want)
	}
	// 0.1 deg square near the equator is about 11.1 km on a side.
	sq := &models.AreaOfInterest{Polygon: []models.LatLon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.1}, {Lat: 0.1, Lon: 0.1}, {Lat: 0.1, Lon: 0}}}
	if a := AreaKm2(sq); a < 120 || a > 126 {
		t.Errorf("square area: got %.3f", a)
	}
	if AreaKm2(&models.AreaOfInterest{}) != 0 {
		t.Error("empty AOI should have zero area")
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint(pindari(5)) != Fingerprint(pindari(5)) {
		t.Error("fingerprint should be stable")
	}
	if Fingerprint(pindari(5)) == Fingerprint(pindari(6)) {
		t.Error("radius should change the fingerprint")
	}
	if Fingerprint(nil) != "" {
		t.Error("empty AOI fingerprint should be empty")
	}
}
