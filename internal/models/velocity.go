package models

import "time"

// Scene is a dated reference to an optical satellite acquisition.
type Scene struct {
	ID           string    `json:"id"`
	AcquiredAt   time.Time `json:"acquired_at"`
	CloudPercent float64   `json:"cloud_percent"`
}

// ImageAcquisitionPair is the reference and target scenes chosen for tracking.
type ImageAcquisitionPair struct {
	Reference      Scene   `json:"reference"`
	Target         Scene   `json:"target"`
	CloudTolerance float64 `json:"cloud_tolerance"`
}

// VelocitySummary holds scalar summaries of a velocity raster. All speeds are non-negative.
type VelocitySummary struct {
	MeanMPerDay    float64 `json:"mean_m_per_day"`
	MaxMPerDay     float64 `json:"max_m_per_day"`
	MinMPerDay     float64 `json:"min_m_per_day"`
	AnnualMPerYear float64 `json:"annual_m_per_year"`
	ValidPixels    int     `json:"valid_pixels"`
}

// VelocityField is the display-ready result of a velocity request. The raster itself
// stays on the processing platform; Handle references it.
type VelocityField struct {
	Handle       string               `json:"handle"`
	Pair         ImageAcquisitionPair `json:"pair"`
	DateA        time.Time            `json:"date_a"`
	DateB        time.Time            `json:"date_b"`
	TimeGapDays  int                  `json:"time_gap_days"`
	WindowSize   int                  `json:"window_size"`
	GlacierCount int                  `json:"glacier_count"`
	Summary      VelocitySummary      `json:"summary"`
	ComputedAt   time.Time            `json:"computed_at"`
	Simulated    bool                 `json:"simulated,omitempty"`
}
