package velocity

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hyperjump/glacierwatch/internal/geoproc"
	"github.com/hyperjump/glacierwatch/internal/models"
)

// DaysPerYear annualizes daily speeds.
const DaysPerYear = 365.25

// errNoValidPixels means every pixel of the raster was masked.
var errNoValidPixels = errors.New("displacement raster has no valid pixels")

// Speeds returns the per-pixel horizontal speed in m/day for every unmasked pixel,
// in raster order.
func Speeds(r *geoproc.DisplacementRaster, gapDays int) []float64 {
	if gapDays <= 0 {
		gapDays = 1
	}
	speeds := make([]float64, 0, len(r.DX))
	for i := range r.DX {
		dx, dy := r.DX[i], r.DY[i]
		if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
			continue
		}
		speeds = append(speeds, math.Hypot(dx, dy)/float64(gapDays))
	}
	return speeds
}

// FromDisplacement computes mean, min, max and annualized speed from a displacement raster.
// The result depends only on the raster and gapDays.
func FromDisplacement(r *geoproc.DisplacementRaster, gapDays int) (models.VelocitySummary, error) {
	if r == nil || len(r.DX) != len(r.DY) {
		return models.VelocitySummary{}, fmt.Errorf("malformed displacement raster")
	}
	speeds := Speeds(r, gapDays)
	if len(speeds) == 0 {
		return models.VelocitySummary{}, errNoValidPixels
	}
	mean := stat.Mean(speeds, nil)
	return models.VelocitySummary{
		MeanMPerDay:    mean,
		MaxMPerDay:     floats.Max(speeds),
		MinMPerDay:     floats.Min(speeds),
		AnnualMPerYear: mean * DaysPerYear,
		ValidPixels:    len(speeds),
	}, nil
}

// GapDays returns the whole days between a and b, at least one.
func GapDays(a, b time.Time) int {
	days := int(math.Abs(b.Sub(a).Hours()) / 24)
	if days == 0 {
		return 1
	}
	return days
}
