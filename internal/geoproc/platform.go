// Package geoproc is the client side of the hosted geospatial processing platform:
// scene search, feature counts, displacement tracking and climate sampling.
package geoproc

import (
	"context"
	"time"

	"github.com/hyperjump/glacierwatch/internal/geo"
	"github.com/hyperjump/glacierwatch/internal/models"
)

// Platform is the set of remote primitives the orchestration layer depends on.
type Platform interface {
	SearchScenes(ctx context.Context, q SceneQuery) ([]models.Scene, error)
	CountFeatures(ctx context.Context, q FeatureQuery) (int, error)
	TrackDisplacement(ctx context.Context, req TrackingRequest) (*DisplacementRaster, error)
	SampleClimate(ctx context.Context, q ClimateQuery) (*ClimateSample, error)
}

// Geometry is a GeoJSON polygon. Coordinates are [lon, lat] pairs.
type Geometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// GeometryFromAOI converts an AOI into a closed GeoJSON polygon.
func GeometryFromAOI(aoi *models.AreaOfInterest) Geometry {
	ring := geo.Ring(aoi)
	coords := make([][2]float64, len(ring))
	for i, p := range ring {
		coords[i] = [2]float64{p.Lon, p.Lat}
	}
	return Geometry{Type: "Polygon", Coordinates: [][][2]float64{coords}}
}

// SceneQuery selects optical scenes over a geometry and date window.
type SceneQuery struct {
	Collection      string    `json:"collection"`
	Geometry        Geometry  `json:"geometry"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	CloudProperty   string    `json:"cloud_property"`
	MaxCloudPercent float64   `json:"max_cloud_percent"`
}

// FeatureQuery counts vector features of a collection intersecting a geometry.
type FeatureQuery struct {
	Collection string   `json:"collection"`
	Geometry   Geometry `json:"geometry"`
}

// TrackingRequest asks the platform to run feature tracking between two scenes.
type TrackingRequest struct {
	ReferenceID     string   `json:"reference_id"`
	TargetID        string   `json:"target_id"`
	Band            string   `json:"band"`
	MaxOffsetMeters float64  `json:"max_offset_m"`
	PatchWidth      int      `json:"patch_width"`
	Geometry        Geometry `json:"geometry"`
	MaskCollection  string   `json:"mask_collection,omitempty"`
	ScaleMeters     float64  `json:"scale_m"`
}

// DisplacementRaster is a sampled copy of the per-pixel displacement in metres.
// Masked pixels are NaN. DX and DY are row-major with Width*Height entries.
type DisplacementRaster struct {
	Handle          string
	Width           int
	Height          int
	PixelSizeMeters float64
	DX              []float64
	DY              []float64
	Simulated       bool
}

// ClimateQuery samples one band of a climate dataset over a date range.
type ClimateQuery struct {
	Dataset        string           `json:"dataset"`
	Band           string           `json:"band"`
	Geometry       Geometry         `json:"geometry"`
	Start          time.Time        `json:"start"`
	End            time.Time        `json:"end"`
	MaskCollection string           `json:"mask_collection,omitempty"`
	ScaleMeters    float64          `json:"scale_m"`
	Visualization  models.ColorRamp `json:"visualization"`
}

// ClimateSample is the platform's answer to a ClimateQuery. Stats is nil when the
// composite has no unmasked pixels.
type ClimateSample struct {
	Handle     string              `json:"handle"`
	TileURL    string              `json:"tile_url"`
	ImageCount int                 `json:"image_count"`
	Stats      *models.RegionStats `json:"stats,omitempty"`
	Simulated  bool                `json:"simulated,omitempty"`
}
