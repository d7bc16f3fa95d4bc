package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/glacierwatch/internal/config"
	"github.com/hyperjump/glacierwatch/internal/models"
)

func newTestSession(id string) *models.Session {
	return &models.Session{
		ID: id,
		AOI: models.AreaOfInterest{
			Name:     "Gangotri Glacier",
			Center:   &models.LatLon{Lat: 30.93, Lon: 79.08},
			RadiusKm: 5,
		},
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStore_CRUD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.Create(ctx, newTestSession("s1")); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AOI.Name != "Gangotri Glacier" || got.AOI.Center == nil || got.AOI.RadiusKm != 5 {
		t.Errorf("aoi = %+v", got.AOI)
	}
	if !got.CreatedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", got.CreatedAt)
	}
	if got.LastVelocity != nil || got.LastClimate != nil || len(got.Turns) != 0 {
		t.Errorf("new session should be blank: %+v", got)
	}

	field := &models.VelocityField{Handle: "h1", TimeGapDays: 92, Summary: models.VelocitySummary{MeanMPerDay: 0.4}}
	if err := store.SaveVelocity(ctx, "s1", field); err != nil {
		t.Fatal(err)
	}
	layer := &models.ClimateLayer{Handle: "c1", Stats: &models.RegionStats{Mean: 270}}
	if err := store.SaveClimate(ctx, "s1", layer); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get(ctx, "s1")
	if got.LastVelocity == nil || got.LastVelocity.Summary.MeanMPerDay != 0.4 {
		t.Errorf("velocity = %+v", got.LastVelocity)
	}
	if got.LastClimate == nil || got.LastClimate.Stats.Mean != 270 {
		t.Errorf("climate = %+v", got.LastClimate)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count = %d, %v", n, err)
	}
	list, err := store.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("List = %v, %v", list, err)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
}

func TestSQLiteStore_TurnsPreserveOrder(t *testing.T) {
	store, err := NewSQLiteStore(config.MemoryDatabase)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	_ = store.Create(ctx, newTestSession("s1"))

	asked := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, q := range []string{"first", "second", "third"} {
		if err := store.AppendTurn(ctx, "s1", models.ConversationTurn{Question: q, Answer: "a-" + q, AskedAt: asked}); err != nil {
			t.Fatal(err)
		}
	}
	turns, err := store.Turns(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns", len(turns))
	}
	for i, want := range []string{"first", "second", "third"} {
		if turns[i].Question != want || turns[i].Answer != "a-"+want {
			t.Errorf("turn %d = %+v", i, turns[i])
		}
	}
}

func TestSQLiteStore_UnknownSession(t *testing.T) {
	store, err := NewSQLiteStore("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	checks := map[string]error{
		"SaveVelocity": store.SaveVelocity(ctx, "missing", &models.VelocityField{}),
		"SaveClimate":  store.SaveClimate(ctx, "missing", &models.ClimateLayer{}),
		"AppendTurn":   store.AppendTurn(ctx, "missing", models.ConversationTurn{Question: "q"}),
		"Delete":       store.Delete(ctx, "missing"),
	}
	for name, err := range checks {
		if !errors.Is(err, models.ErrSessionNotFound) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
	if _, err := store.Turns(ctx, "missing"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Turns: err = %v", err)
	}
}

func TestSQLiteStore_MemorySharedAcrossCalls(t *testing.T) {
	store, err := NewSQLiteStore(config.MemoryDatabase)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Create(ctx, newTestSession(id)); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
