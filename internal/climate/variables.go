package climate

import (
	"strings"

	"github.com/hyperjump/glacierwatch/internal/models"
)

// registry lists the recognized climate variables in display order.
var registry = []models.ClimateVariable{
	{
		ID: "Air Temperature", Band: "Tair_f_tavg", Unit: "K",
		Description: "Near-surface air temperature, monthly mean",
		Ramp: models.ColorRamp{Min: 250, Max: 285, Palette: []string{
			"#313695", "#4575b4", "#74add1", "#abd9e9", "#e0f3f8", "#ffffbf",
			"#fee090", "#fdae61", "#f46d43", "#d73027", "#a50026",
		}},
	},
	{
		ID: "Rainfall Rate", Band: "Rainf_f_tavg", Unit: "kg/m²/s",
		Description: "Rainfall flux, monthly mean",
		Ramp: models.ColorRamp{Min: 0, Max: 0.001, Palette: []string{
			"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#084594",
		}},
	},
	{
		ID: "Snowfall Rate", Band: "Snowf_tavg", Unit: "kg/m²/s",
		Description: "Snowfall flux, monthly mean",
		Ramp: models.ColorRamp{Min: 0, Max: 0.001, Palette: []string{
			"#f7f7f7", "#d9d9d9", "#bdbdbd", "#969696", "#737373", "#525252", "#252525",
		}},
	},
	{
		ID: "Snow Depth", Band: "SnowDepth_inst", Unit: "m",
		Description: "Snow depth, instantaneous",
		Ramp: models.ColorRamp{Min: 0, Max: 5, Palette: []string{
			"#ffffd9", "#edf8b1", "#c7e9b4", "#7fcdbb", "#41b6c4", "#1d91c0", "#225ea8", "#0c2c84",
		}},
	},
	{
		ID: "Snow Water Content", Band: "SWE_inst", Unit: "kg/m²",
		Description: "Snow-water equivalent, instantaneous",
		Ramp: models.ColorRamp{Min: 0, Max: 500, Palette: []string{
			"#440154", "#414487", "#2a788e", "#22a884", "#7ad151", "#fde725",
		}},
	},
}

// aliases map shorthand identifiers onto registry IDs.
var aliases = map[string]string{
	"temperature": "Air Temperature",
	"rainfall":    "Rainfall Rate",
	"snowfall":    "Snowfall Rate",
	"swe":         "Snow Water Content",
}

// Variables returns the recognized climate variables in display order.
func Variables() []models.ClimateVariable {
	out := make([]models.ClimateVariable, len(registry))
	copy(out, registry)
	return out
}

// Lookup resolves id (display name, band name or alias, case-insensitive).
func Lookup(id string) (models.ClimateVariable, bool) {
	key := strings.TrimSpace(id)
	if alias, ok := aliases[strings.ToLower(key)]; ok {
		key = alias
	}
	for _, v := range registry {
		if strings.EqualFold(v.ID, key) || strings.EqualFold(v.Band, key) {
			return v, true
		}
	}
	return models.ClimateVariable{}, false
}

// Legend returns the legend data for v: min, midpoint and max of its color ramp.
func Legend(v models.ClimateVariable) models.Legend {
	return models.Legend{
		Title:   v.ID,
		Unit:    v.Unit,
		Min:     v.Ramp.Min,
		Mid:     (v.Ramp.Min + v.Ramp.Max) / 2,
		Max:     v.Ramp.Max,
		Palette: append([]string(nil), v.Ramp.Palette...),
	}
}

// IsTemperature reports whether v is measured in kelvin.
func IsTemperature(v models.ClimateVariable) bool {
	return v.Unit == "K"
}

// KelvinToCelsius converts a temperature.
func KelvinToCelsius(k float64) float64 {
	return k - 273.15
}
