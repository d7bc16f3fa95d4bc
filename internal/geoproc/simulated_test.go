package geoproc

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/hyperjump/glacierwatch/internal/models"
)

func TestSimulatedPlatform_deterministicScenes(t *testing.T) {
	q := SceneQuery{
		Geometry:        GeometryFromAOI(testAOI()),
		Start:           time.Date(2021, 5, 2, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC),
		MaxCloudPercent: 60,
	}
	a, err := NewSimulatedPlatform().SearchScenes(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewSimulatedPlatform().SearchScenes(context.Background(), q)
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("expected identical non-empty results, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("scene %d differs: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].AcquiredAt.Before(q.Start) || a[i].AcquiredAt.After(q.End) {
			t.Errorf("scene outside window: %v", a[i].AcquiredAt)
		}
	}

	q.MaxCloudPercent = 0
	none, _ := NewSimulatedPlatform().SearchScenes(context.Background(), q)
	if len(none) != 0 {
		t.Errorf("zero cloud tolerance should exclude every scene, got %d", len(none))
	}
}

func TestSimulatedPlatform_TrackDisplacement(t *testing.T) {
	p := NewSimulatedPlatform()
	ctx := context.Background()
	geom := GeometryFromAOI(testAOI())
	s1, _ := p.SearchScenes(ctx, SceneQuery{Geometry: geom, Start: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC), MaxCloudPercent: 60})
	s2, _ := p.SearchScenes(ctx, SceneQuery{Geometry: geom, Start: time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC), MaxCloudPercent: 60})
	if len(s1) == 0 || len(s2) == 0 {
		t.Fatal("expected simulated scenes in both windows")
	}
	raster, err := p.TrackDisplacement(ctx, TrackingRequest{ReferenceID: s1[0].ID, TargetID: s2[0].ID, Geometry: geom, MaxOffsetMeters: 100, ScaleMeters: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(raster.DX) != raster.Width*raster.Height {
		t.Fatalf("sample count mismatch")
	}
	if !raster.Simulated {
		t.Error("simulated raster should be flagged")
	}
	if !math.IsNaN(raster.DX[0]) {
		t.Error("corner pixel should be masked")
	}
	valid := 0
	for _, v := range raster.DX {
		if !math.IsNaN(v) {
			valid++
		}
	}
	if valid == 0 {
		t.Error("expected unmasked pixels")
	}

	if _, err := p.TrackDisplacement(ctx, TrackingRequest{ReferenceID: "nope", TargetID: s2[0].ID}); err == nil {
		t.Error("expected error for unknown scene")
	}
	if _, err := p.TrackDisplacement(ctx, TrackingRequest{ReferenceID: "SIM_notatime_00000000", TargetID: s2[0].ID}); err == nil {
		t.Error("expected error for malformed scene time")
	}
}

func TestSimulatedPlatform_scenesNeedNoState(t *testing.T) {
	ctx := context.Background()
	geom := GeometryFromAOI(testAOI())
	s1, _ := NewSimulatedPlatform().SearchScenes(ctx, SceneQuery{Geometry: geom, Start: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC), MaxCloudPercent: 60})
	s2, _ := NewSimulatedPlatform().SearchScenes(ctx, SceneQuery{Geometry: geom, Start: time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC), MaxCloudPercent: 60})
	if len(s1) == 0 || len(s2) == 0 {
		t.Fatal("expected simulated scenes in both windows")
	}

	// A fresh instance that never searched can still track the pair.
	req := TrackingRequest{ReferenceID: s1[0].ID, TargetID: s2[0].ID, Geometry: geom, MaxOffsetMeters: 100, ScaleMeters: 100}
	a, err := NewSimulatedPlatform().TrackDisplacement(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSimulatedPlatform().TrackDisplacement(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.DX {
		if a.DX[i] != b.DX[i] && !(math.IsNaN(a.DX[i]) && math.IsNaN(b.DX[i])) {
			t.Fatalf("pixel %d differs between instances", i)
		}
	}
}

func TestSimulatedPlatform_SampleClimateFlagged(t *testing.T) {
	s, err := NewSimulatedPlatform().SampleClimate(context.Background(), ClimateQuery{
		Band:          "SnowDepth_inst",
		Start:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Visualization: models.ColorRamp{Min: 0, Max: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !s.Simulated {
		t.Error("simulated climate sample should be flagged")
	}
}
