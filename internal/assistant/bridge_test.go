package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/glacierwatch/internal/models"
)

type fakeGenerator struct {
	answer string
	err    error
	calls  int
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.answer, f.err
}

func (f *fakeGenerator) Model() string { return "fake" }

func TestBridge_Ask(t *testing.T) {
	answer := "  Meltwater lubricates the bed.\n\n**Bold** stays.  "
	gen := &fakeGenerator{answer: answer}
	b := NewBridge(gen)

	turn, err := b.Ask(context.Background(), Context{GlacierName: "Gangotri"}, "  Why is it fast?  ")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if turn.Answer != answer {
		t.Errorf("answer altered: %q", turn.Answer)
	}
	if turn.Question != "Why is it fast?" {
		t.Errorf("question = %q", turn.Question)
	}
	if turn.Model != "fake" || turn.AskedAt.IsZero() {
		t.Errorf("turn metadata = %+v", turn)
	}
	if !strings.Contains(gen.prompt, "**User Question:** Why is it fast?") {
		t.Errorf("prompt missing question:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "Gangotri") {
		t.Error("prompt missing glacier name")
	}
}

func TestBridge_EmptyQuestion(t *testing.T) {
	gen := &fakeGenerator{answer: "x"}
	_, err := NewBridge(gen).Ask(context.Background(), Context{}, "   ")
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times", gen.calls)
	}
}

func TestBridge_GeneratorFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	_, err := NewBridge(&fakeGenerator{err: cause}).Ask(context.Background(), Context{}, "q")
	if !errors.Is(err, models.ErrAssistantUnavailable) {
		t.Fatalf("err = %v, want ErrAssistantUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved")
	}
}

func TestBridge_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &fakeGenerator{err: context.Canceled}
	_, err := NewBridge(gen).Ask(ctx, Context{}, "q")
	if !errors.Is(err, models.ErrAssistantUnavailable) || !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestContextFromSession(t *testing.T) {
	date := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	s := &models.Session{
		AOI: models.AreaOfInterest{
			Name:    "Square",
			Polygon: []models.LatLon{{Lat: 30, Lon: 79}, {Lat: 30, Lon: 80}, {Lat: 31, Lon: 80}, {Lat: 31, Lon: 79}},
		},
		LastClimate: &models.ClimateLayer{Date: date},
	}
	c := ContextFromSession(s)
	if c.GlacierName != "Square" || !c.Date.Equal(date) {
		t.Errorf("context = %+v", c)
	}
	if c.Location == nil || c.Location.Lat != 30.5 || c.Location.Lon != 79.5 {
		t.Errorf("location = %+v", c.Location)
	}
}
