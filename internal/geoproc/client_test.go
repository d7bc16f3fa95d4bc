package geoproc

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperjump/glacierwatch/internal/models"
)

func testAOI() *models.AreaOfInterest {
	return &models.AreaOfInterest{Center: &models.LatLon{Lat: 35.71, Lon: 76.43}, RadiusKm: 5}
}

func TestGeometryFromAOI(t *testing.T) {
	g := GeometryFromAOI(testAOI())
	if g.Type != "Polygon" || len(g.Coordinates) != 1 {
		t.Fatalf("unexpected geometry: %+v", g)
	}
	ring := g.Coordinates[0]
	if ring[0] != ring[len(ring)-1] {
		t.Error("ring should be closed")
	}
	// GeoJSON order is [lon, lat].
	if ring[0][0] < 76 || ring[0][0] > 77 {
		t.Errorf("first coordinate should be a longitude near 76.43, got %v", ring[0])
	}
}

func TestClient_SearchScenes(t *testing.T) {
	var gotAuth, gotPath string
	var gotQuery SceneQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotQuery)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"scenes": []map[string]interface{}{
				{"id": "S2A_1", "acquired_at": "2021-06-03T05:10:00Z", "cloud_percent": 4.5},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", 0)
	scenes, err := c.SearchScenes(context.Background(), SceneQuery{Collection: "S2", MaxCloudPercent: 20, Geometry: GeometryFromAOI(testAOI())})
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header: got %q", gotAuth)
	}
	if gotPath != "/v1/scenes:search" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotQuery.MaxCloudPercent != 20 || gotQuery.Collection != "S2" {
		t.Errorf("query not forwarded: %+v", gotQuery)
	}
	if len(scenes) != 1 || scenes[0].ID != "S2A_1" || scenes[0].CloudPercent != 4.5 {
		t.Errorf("scenes: got %+v", scenes)
	}
	if !scenes[0].AcquiredAt.Equal(time.Date(2021, 6, 3, 5, 10, 0, 0, time.UTC)) {
		t.Errorf("acquired_at: got %v", scenes[0].AcquiredAt)
	}
}

func TestClient_TrackDisplacement_nullIsMasked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"handle":"h1","width":2,"height":1,"pixel_size_m":100,"dx":[3,null],"dy":[4,null]}`))
	}))
	defer srv.Close()

	raster, err := NewClient(srv.URL, "", time.Second).TrackDisplacement(context.Background(), TrackingRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if raster.Handle != "h1" || raster.DX[0] != 3 || raster.DY[0] != 4 {
		t.Errorf("unexpected raster: %+v", raster)
	}
	if !math.IsNaN(raster.DX[1]) || !math.IsNaN(raster.DY[1]) {
		t.Error("null samples should decode as NaN")
	}
}

func TestClient_TrackDisplacement_malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"handle":"h1","width":2,"height":2,"dx":[1],"dy":[1]}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "", time.Second).TrackDisplacement(context.Background(), TrackingRequest{}); err == nil {
		t.Error("expected error for sample count mismatch")
	}
}

func TestClient_errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		credential bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, true},
		{"forbidden", http.StatusForbidden, `denied`, true},
		{"server error", http.StatusInternalServerError, `{"error":"computation timed out"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "k", time.Second).CountFeatures(context.Background(), FeatureQuery{})
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, models.ErrCredential) != tt.credential {
				t.Errorf("credential classification wrong: %v", err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Errorf("expected APIError with status %d, got %v", tt.status, err)
			}
		})
	}
}

func TestClient_SampleClimate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/climate:sample" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"handle":"c1","tile_url":"https://tiles/{z}/{x}/{y}","image_count":1,"stats":{"mean":270.5,"min":265,"max":275}}`))
	}))
	defer srv.Close()

	sample, err := NewClient(srv.URL, "", time.Second).SampleClimate(context.Background(), ClimateQuery{Band: "Tair_f_tavg"})
	if err != nil {
		t.Fatal(err)
	}
	if sample.ImageCount != 1 || sample.Stats == nil || sample.Stats.Mean != 270.5 {
		t.Errorf("unexpected sample: %+v", sample)
	}
}
