package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestLatLon_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       LatLon
		wantErr bool
	}{
		{"valid", LatLon{Lat: 30.32, Lon: 79.96}, false},
		{"poles and antimeridian", LatLon{Lat: -90, Lon: 180}, false},
		{"latitude too high", LatLon{Lat: 90.5, Lon: 0}, true},
		{"longitude too low", LatLon{Lat: 0, Lon: -181}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestAreaOfInterest_IsEmpty(t *testing.T) {
	var nilAOI *AreaOfInterest
	if !nilAOI.IsEmpty() {
		t.Error("nil AOI should be empty")
	}
	if !(&AreaOfInterest{Name: "x"}).IsEmpty() {
		t.Error("AOI without center or polygon should be empty")
	}
	if (&AreaOfInterest{Center: &LatLon{}}).IsEmpty() {
		t.Error("AOI with center should not be empty")
	}
}

func TestGlacierPreset_AOI(t *testing.T) {
	p := GlacierPreset{Name: "Pindari Glacier", Lat: 30.32, Lon: 79.96, Zoom: 12}
	aoi := p.AOI(0)
	if aoi.RadiusKm != DefaultRadiusKm {
		t.Errorf("radius: got %v, want default %v", aoi.RadiusKm, DefaultRadiusKm)
	}
	if aoi.Preset != "Pindari Glacier" || aoi.Center.Lat != 30.32 || aoi.Zoom != 12 {
		t.Errorf("unexpected AOI: %+v", aoi)
	}
	if got := p.AOI(8).RadiusKm; got != 8 {
		t.Errorf("radius: got %v, want 8", got)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("date 2030-01-01: %w", ErrDateOutOfRange), "date_out_of_range"},
		{fmt.Errorf("search: %w", ErrNoImageryFound), "no_imagery_found"},
		{ErrAssistantUnavailable, "assistant_unavailable"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
