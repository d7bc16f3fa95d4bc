// Package cli renders API results for the glacierwatch command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/glacierwatch/internal/climate"
	"github.com/hyperjump/glacierwatch/internal/models"
	"github.com/hyperjump/glacierwatch/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────"

const simulatedNote = "NOTE: synthetic values from the simulated processing platform"

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteGlaciers writes the preset list.
func WriteGlaciers(w io.Writer, presets []models.GlacierPreset, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, presets)
	}
	for _, p := range presets {
		fmt.Fprintf(w, "%-22s %8.4f°N %9.4f°E  zoom %d\n", p.Name, p.Lat, p.Lon, p.Zoom)
	}
	return nil
}

// WriteVariables writes the climate variable registry with legend ranges.
func WriteVariables(w io.Writer, vars []models.ClimateVariable, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, vars)
	}
	for _, v := range vars {
		l := climate.Legend(v)
		fmt.Fprintf(w, "%-20s %-15s %-9s %g .. %g .. %g\n", v.ID, v.Band, v.Unit, l.Min, l.Mid, l.Max)
	}
	return nil
}

// WriteSession writes one session's state.
func WriteSession(w io.Writer, s *models.Session, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Session: %s\n", s.ID)
	fmt.Fprintf(w, "Location: %s\n", describeAOI(&s.AOI))
	fmt.Fprintf(w, "Created: %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"))
	if s.LastVelocity != nil {
		fmt.Fprintf(w, "Last velocity: %.4f m/day average (%s to %s)\n", s.LastVelocity.Summary.MeanMPerDay,
			s.LastVelocity.DateA.Format("2006-01-02"), s.LastVelocity.DateB.Format("2006-01-02"))
	}
	if s.LastClimate != nil {
		fmt.Fprintf(w, "Last climate layer: %s, %s\n", s.LastClimate.Variable.ID, s.LastClimate.Month.Format("January 2006"))
	}
	fmt.Fprintf(w, "Questions asked: %d\n", len(s.Turns))
	return nil
}

// WriteSessions writes a one-line summary per session.
func WriteSessions(w io.Writer, sessions []*models.Session, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04"), utils.Truncate(describeAOI(&s.AOI), 60))
	}
	return nil
}

func describeAOI(a *models.AreaOfInterest) string {
	if a.Center != nil {
		return fmt.Sprintf("%s (%.4f°N, %.4f°E, %.0f km radius)", a.Name, a.Center.Lat, a.Center.Lon, a.RadiusKm)
	}
	return fmt.Sprintf("%s (polygon, %d vertices)", a.Name, len(a.Polygon))
}

// WriteVelocity writes a velocity result.
func WriteVelocity(w io.Writer, v *models.VelocityField, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, v)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Period: %s to %s (%d days)\n", v.DateA.Format("2006-01-02"), v.DateB.Format("2006-01-02"), v.TimeGapDays)
	fmt.Fprintf(w, "Scenes: %s (%s, %.1f%% cloud) -> %s (%s, %.1f%% cloud)\n",
		v.Pair.Reference.ID, v.Pair.Reference.AcquiredAt.Format("2006-01-02"), v.Pair.Reference.CloudPercent,
		v.Pair.Target.ID, v.Pair.Target.AcquiredAt.Format("2006-01-02"), v.Pair.Target.CloudPercent)
	fmt.Fprintf(w, "Glacier outlines: %d | Window: %d px | Cloud tolerance: %.0f%%\n",
		v.GlacierCount, v.WindowSize, v.Pair.CloudTolerance)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Average Velocity:       %.4f m/day\n", v.Summary.MeanMPerDay)
	fmt.Fprintf(w, "Max Velocity:           %.4f m/day\n", v.Summary.MaxMPerDay)
	fmt.Fprintf(w, "Min Velocity:           %.4f m/day\n", v.Summary.MinMPerDay)
	fmt.Fprintf(w, "Estimated Annual Speed: %.1f m/year\n", v.Summary.AnnualMPerYear)
	fmt.Fprintf(w, "Valid pixels:           %d\n", v.Summary.ValidPixels)
	if v.Simulated {
		fmt.Fprintln(w, simulatedNote)
	}
	return nil
}

// WriteClimate writes a climate layer with its statistics and legend.
func WriteClimate(w io.Writer, c *models.ClimateLayer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, c)
	}
	fmt.Fprintf(w, "%s (%s), %s\n", c.Variable.ID, c.Variable.Band, c.Month.Format("January 2006"))
	fmt.Fprintf(w, "Images: %d\n", c.ImageCount)
	if s := c.Stats; s != nil {
		if climate.IsTemperature(c.Variable) {
			fmt.Fprintf(w, "Mean: %.2f K (%.2f °C)\n", s.Mean, climate.KelvinToCelsius(s.Mean))
		} else {
			fmt.Fprintf(w, "Mean: %.6g %s\n", s.Mean, c.Variable.Unit)
		}
		fmt.Fprintf(w, "Range: %.6g to %.6g %s\n", s.Min, s.Max, c.Variable.Unit)
	} else {
		fmt.Fprintln(w, "No pixels over the area of interest.")
	}
	fmt.Fprintf(w, "Legend: %g | %g | %g %s\n", c.Legend.Min, c.Legend.Mid, c.Legend.Max, c.Legend.Unit)
	if c.TileURL != "" {
		fmt.Fprintf(w, "Tiles: %s\n", c.TileURL)
	}
	if c.Simulated {
		fmt.Fprintln(w, simulatedNote)
	}
	return nil
}

// WriteTurn writes one assistant answer verbatim.
func WriteTurn(w io.Writer, t models.ConversationTurn, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, t)
	}
	fmt.Fprintf(w, "Question: %s\n\nAnswer:\n%s\n", t.Question, t.Answer)
	return nil
}

// WriteTurns writes the conversation in order.
func WriteTurns(w io.Writer, turns []models.ConversationTurn, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, turns)
	}
	if len(turns) == 0 {
		fmt.Fprintln(w, "No questions asked yet.")
		return nil
	}
	for i, t := range turns {
		if i > 0 {
			fmt.Fprintln(w, rule)
		}
		_ = WriteTurn(w, t, OutputText)
	}
	return nil
}

// WriteSuggestions writes numbered suggested questions.
func WriteSuggestions(w io.Writer, questions []string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, questions)
	}
	for i, q := range questions {
		fmt.Fprintf(w, "%d. %s\n", i+1, q)
	}
	return nil
}
