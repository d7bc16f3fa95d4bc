package geoproc

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/hyperjump/glacierwatch/internal/models"
)

// revisit is the nominal revisit interval of the simulated optical constellation.
const revisit = 5 * 24 * time.Hour

// simulatedEpoch anchors the simulated acquisition calendar.
var simulatedEpoch = time.Date(2017, 3, 28, 0, 0, 0, 0, time.UTC)

// sceneTimeLayout is the acquisition time encoded in simulated scene IDs.
const sceneTimeLayout = "20060102T150405"

// SimulatedPlatform is a deterministic in-process Platform for offline use and tests.
// Scenes fall every five days with a cloud cover derived from a hash of the geometry and
// date, so the same query always yields the same scenes and rasters. Scene IDs carry
// their acquisition time, so no state is kept between calls. Every result is flagged
// Simulated.
type SimulatedPlatform struct{}

// NewSimulatedPlatform returns a simulated platform.
func NewSimulatedPlatform() *SimulatedPlatform {
	return &SimulatedPlatform{}
}

// SearchScenes returns every simulated acquisition in [q.Start, q.End] under the cloud limit.
func (p *SimulatedPlatform) SearchScenes(ctx context.Context, q SceneQuery) ([]models.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := geometryKey(q.Geometry)
	first := simulatedEpoch
	if q.Start.After(first) {
		steps := q.Start.Sub(first) / revisit
		first = first.Add(steps * revisit)
		if first.Before(q.Start) {
			first = first.Add(revisit)
		}
	}
	var out []models.Scene
	for t := first; !t.After(q.End); t = t.Add(revisit) {
		cloud := float64(hash(key, t.Format("20060102")) % 60)
		if cloud >= q.MaxCloudPercent {
			continue
		}
		out = append(out, models.Scene{
			ID:           fmt.Sprintf("SIM_%s_%08x", t.Format(sceneTimeLayout), hash(key)),
			AcquiredAt:   t,
			CloudPercent: cloud,
		})
	}
	return out, nil
}

// sceneTime recovers the acquisition time from a simulated scene ID.
func sceneTime(id string) (time.Time, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[0] != "SIM" {
		return time.Time{}, fmt.Errorf("unknown scene %q", id)
	}
	t, err := time.Parse(sceneTimeLayout, parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown scene %q: %w", id, err)
	}
	return t, nil
}

// CountFeatures returns between one and five features for any geometry.
func (p *SimulatedPlatform) CountFeatures(ctx context.Context, q FeatureQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int(hash(q.Collection, geometryKey(q.Geometry))%5) + 1, nil
}

// TrackDisplacement synthesizes a downslope flow field proportional to the time between
// the two scenes. Border pixels are masked.
func (p *SimulatedPlatform) TrackDisplacement(ctx context.Context, req TrackingRequest) (*DisplacementRaster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref, err := sceneTime(req.ReferenceID)
	if err != nil {
		return nil, err
	}
	tgt, err := sceneTime(req.TargetID)
	if err != nil {
		return nil, err
	}
	days := math.Abs(tgt.Sub(ref).Hours() / 24)
	const size = 16
	raster := &DisplacementRaster{
		Handle:          fmt.Sprintf("sim/displacement/%s/%s", req.ReferenceID, req.TargetID),
		Width:           size,
		Height:          size,
		PixelSizeMeters: req.ScaleMeters,
		DX:              make([]float64, size*size),
		DY:              make([]float64, size*size),
		Simulated:       true,
	}
	base := 0.05 + float64(hash(geometryKey(req.Geometry))%30)/100 // m/day at the centre line
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := y*size + x
			if x == 0 || y == 0 || x == size-1 || y == size-1 {
				raster.DX[i], raster.DY[i] = math.NaN(), math.NaN()
				continue
			}
			// Fastest along the centre line, slowing towards the margins.
			falloff := 1 - math.Abs(float64(x)-size/2)/(size/2)
			speed := base * falloff * days
			raster.DX[i] = speed * 0.6
			raster.DY[i] = -speed * 0.8
			if speed > req.MaxOffsetMeters && req.MaxOffsetMeters > 0 {
				raster.DX[i], raster.DY[i] = math.NaN(), math.NaN()
			}
		}
	}
	return raster, nil
}

// SampleClimate returns one monthly image with statistics placed inside the ramp by season.
func (p *SimulatedPlatform) SampleClimate(ctx context.Context, q ClimateQuery) (*ClimateSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	month := q.Start.Format("200601")
	handle := fmt.Sprintf("sim/climate/%s/%s", q.Band, month)
	lo, hi := q.Visualization.Min, q.Visualization.Max
	season := 0.5 + 0.4*math.Sin(2*math.Pi*float64(q.Start.Month()-4)/12)
	mean := lo + (hi-lo)*season
	spread := (hi - lo) * 0.1
	return &ClimateSample{
		Handle:     handle,
		TileURL:    "sim://tiles/" + handle + "/{z}/{x}/{y}",
		ImageCount: 1,
		Stats:      &models.RegionStats{Mean: mean, Min: math.Max(lo, mean-spread), Max: math.Min(hi, mean+spread)},
		Simulated:  true,
	}, nil
}

func geometryKey(g Geometry) string {
	if len(g.Coordinates) == 0 || len(g.Coordinates[0]) == 0 {
		return ""
	}
	c := g.Coordinates[0][0]
	return fmt.Sprintf("%.4f,%.4f,%d", c[0], c[1], len(g.Coordinates[0]))
}

func hash(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum32()
}
