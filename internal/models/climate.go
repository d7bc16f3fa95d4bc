package models

import "time"

// ColorRamp maps a value range to a color palette for display.
type ColorRamp struct {
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette"`
}

// ClimateVariable describes a recognized climate raster band.
type ClimateVariable struct {
	ID          string    `json:"id"`
	Band        string    `json:"band"`
	Unit        string    `json:"unit"`
	Description string    `json:"description"`
	Ramp        ColorRamp `json:"ramp"`
}

// Legend is the data behind a map legend: title, unit and tick values.
type Legend struct {
	Title   string   `json:"title"`
	Unit    string   `json:"unit"`
	Min     float64  `json:"min"`
	Mid     float64  `json:"mid"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette"`
}

// RegionStats are reductions of a raster over the AOI.
type RegionStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ClimateLayer is a time-sliced climate raster rendered as a map overlay.
type ClimateLayer struct {
	Variable   ClimateVariable `json:"variable"`
	Date       time.Time       `json:"date"`
	Month      time.Time       `json:"month"`
	Handle     string          `json:"handle"`
	TileURL    string          `json:"tile_url,omitempty"`
	ImageCount int             `json:"image_count"`
	Stats      *RegionStats    `json:"stats,omitempty"`
	Legend     Legend          `json:"legend"`
	Simulated  bool            `json:"simulated,omitempty"`
}
