package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/glacierwatch/internal/climate"
	"github.com/hyperjump/glacierwatch/internal/models"
)

// SystemPrompt frames every question sent to the model.
const SystemPrompt = `You are an expert in glaciology and remote sensing. Your role is to analyze the provided data context and answer the user's question.
- Be concise and clear.
- Directly use the data from the context (e.g., temperature values, velocity).
- Explain the scientific reasoning behind your answer.
- If data is missing, state what is missing and how it would improve the analysis.
- Keep your response to 2-3 paragraphs.`

const scientificBackground = `**Scientific Background:**
- Glacier velocity often increases with temperature due to surface meltwater lubricating the glacier bed.
- Summer velocities are typically higher than winter velocities.
- Air temperature is a primary driver of glacier melt. A mean temperature above 0°C is significant.
- Snowfall (accumulation) and melting (ablation) determine a glacier's mass balance and health.
`

// Context is the analysis state the assistant is asked about.
type Context struct {
	GlacierName string
	Location    *models.LatLon
	Date        time.Time
	Climate     *models.ClimateLayer
	Velocity    *models.VelocityField
}

// ContextFromSession builds a Context from the session's AOI and last results.
func ContextFromSession(s *models.Session) Context {
	c := Context{
		GlacierName: s.AOI.Name,
		Location:    centroid(&s.AOI),
		Climate:     s.LastClimate,
		Velocity:    s.LastVelocity,
	}
	if s.LastClimate != nil {
		c.Date = s.LastClimate.Date
	}
	return c
}

// Render formats the context as the markdown block embedded in prompts.
func (c Context) Render() string {
	var b strings.Builder
	b.WriteString("**GLACIER ANALYSIS CONTEXT:**\n\n")

	b.WriteString("**Location Information:**\n")
	fmt.Fprintf(&b, "- Glacier/Location: %s\n", orNA(c.GlacierName, "Unknown"))
	if c.Location != nil {
		fmt.Fprintf(&b, "- Coordinates: %.4f°N, %.4f°E\n", c.Location.Lat, c.Location.Lon)
	} else {
		b.WriteString("- Coordinates: N/A\n")
	}
	if !c.Date.IsZero() {
		fmt.Fprintf(&b, "- Analysis Date: %s\n", c.Date.Format("2006-01-02"))
	} else {
		b.WriteString("- Analysis Date: N/A\n")
	}

	b.WriteString("\n**Climate Data (Source: FLDAS):**\n")
	if c.Climate != nil {
		fmt.Fprintf(&b, "- Selected Variable: %s (%s)\n", c.Climate.Variable.ID, c.Climate.Variable.Band)
		if s := c.Climate.Stats; s != nil {
			if climate.IsTemperature(c.Climate.Variable) {
				fmt.Fprintf(&b, "- Mean Temperature: %.2f K (%.2f °C)\n", s.Mean, climate.KelvinToCelsius(s.Mean))
			} else {
				fmt.Fprintf(&b, "- Mean Value: %.4f %s\n", s.Mean, c.Climate.Variable.Unit)
			}
			fmt.Fprintf(&b, "- Range: %.4f to %.4f %s\n", s.Min, s.Max, c.Climate.Variable.Unit)
		}
	} else {
		b.WriteString("- Selected Variable: N/A\n")
	}

	if v := c.Velocity; v != nil {
		b.WriteString("\n**Glacier Velocity Analysis (Source: Sentinel-2):**\n")
		fmt.Fprintf(&b, "- Time Period: %s to %s (%d days)\n", v.DateA.Format("2006-01-02"), v.DateB.Format("2006-01-02"), v.TimeGapDays)
		fmt.Fprintf(&b, "- Average Velocity: %.4f m/day\n", v.Summary.MeanMPerDay)
		fmt.Fprintf(&b, "- Max Velocity: %.4f m/day\n", v.Summary.MaxMPerDay)
		fmt.Fprintf(&b, "- Estimated Annual Speed: %.1f m/year\n", v.Summary.AnnualMPerYear)
	} else {
		b.WriteString("\n**Glacier Velocity Analysis (Source: Sentinel-2):**\n")
		b.WriteString("- Average Velocity: Not Calculated\n")
		b.WriteString("- Max Velocity: Not Calculated\n")
	}

	b.WriteString("\n")
	b.WriteString(scientificBackground)
	return b.String()
}

// BuildPrompt combines the system prompt, rendered context and question.
func BuildPrompt(c Context, question string) string {
	return fmt.Sprintf("%s\n\n%s\n\n**User Question:** %s", SystemPrompt, c.Render(), question)
}

// SuggestQuestions returns starter questions for the current analysis.
func SuggestQuestions(glacierName, variable string, hasVelocity bool) []string {
	glacierName = orNA(glacierName, "this glacier")
	variable = orNA(variable, "climate data")
	questions := []string{
		fmt.Sprintf("How might current %s conditions affect %s?", variable, glacierName),
		fmt.Sprintf("What does this %s data tell us about the glacier's health?", variable),
	}
	if hasVelocity {
		questions = append(questions,
			"How does the measured velocity relate to the climate conditions?",
			"Is this velocity typical for a glacier in this region?",
		)
	}
	return questions
}

// centroid returns the AOI center, or the vertex mean of its polygon.
func centroid(aoi *models.AreaOfInterest) *models.LatLon {
	if aoi.Center != nil {
		c := *aoi.Center
		return &c
	}
	if len(aoi.Polygon) == 0 {
		return nil
	}
	var lat, lon float64
	for _, p := range aoi.Polygon {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(aoi.Polygon))
	return &models.LatLon{Lat: lat / n, Lon: lon / n}
}

func orNA(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
