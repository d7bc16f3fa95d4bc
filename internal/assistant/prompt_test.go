package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/glacierwatch/internal/climate"
	"github.com/hyperjump/glacierwatch/internal/models"
)

func TestContext_Render(t *testing.T) {
	temp, _ := climate.Lookup("Tair_f_tavg")
	c := Context{
		GlacierName: "Pindari Glacier",
		Location:    &models.LatLon{Lat: 30.2673, Lon: 80.0076},
		Date:        time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		Climate: &models.ClimateLayer{
			Variable: temp,
			Stats:    &models.RegionStats{Mean: 273.15, Min: 260, Max: 280},
		},
	}
	out := c.Render()
	for _, want := range []string{
		"Pindari Glacier",
		"30.2673°N, 80.0076°E",
		"2023-06-15",
		"Tair_f_tavg",
		"273.15 K (0.00 °C)",
		"Average Velocity: Not Calculated",
		"Scientific Background",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestContext_RenderVelocity(t *testing.T) {
	c := Context{
		Velocity: &models.VelocityField{
			DateA:       time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
			DateB:       time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC),
			TimeGapDays: 92,
			Summary:     models.VelocitySummary{MeanMPerDay: 0.25, MaxMPerDay: 1.5, AnnualMPerYear: 91.3125},
		},
	}
	out := c.Render()
	for _, want := range []string{"(92 days)", "0.2500 m/day", "1.5000 m/day", "91.3 m/year", "Coordinates: N/A"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Not Calculated") {
		t.Error("velocity rendered as not calculated")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Context{}, "What next?")
	if !strings.HasPrefix(p, SystemPrompt) {
		t.Error("prompt does not start with system prompt")
	}
	if !strings.HasSuffix(p, "**User Question:** What next?") {
		t.Errorf("prompt suffix wrong: %q", p[len(p)-40:])
	}
}

func TestSuggestQuestions(t *testing.T) {
	if got := SuggestQuestions("Siachen Glacier", "Rainf_f_tavg", false); len(got) != 2 {
		t.Errorf("without velocity: %d questions", len(got))
	} else if !strings.Contains(got[0], "Siachen Glacier") || !strings.Contains(got[0], "Rainf_f_tavg") {
		t.Errorf("first question = %q", got[0])
	}
	if got := SuggestQuestions("", "", true); len(got) != 4 {
		t.Errorf("with velocity: %d questions", len(got))
	} else if !strings.Contains(got[0], "this glacier") {
		t.Errorf("fallback name missing: %q", got[0])
	}
}
