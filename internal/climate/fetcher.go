// Package climate fetches monthly climate raster slices over an area of interest and
// prepares them for display with a variable-specific color ramp.
package climate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/config"
	"github.com/hyperjump/glacierwatch/internal/geo"
	"github.com/hyperjump/glacierwatch/internal/geoproc"
	"github.com/hyperjump/glacierwatch/internal/models"
)

// Fetcher retrieves climate layers from the processing platform.
type Fetcher struct {
	platform geoproc.Platform
	cfg      *config.ClimateConfig
	start    time.Time
	end      time.Time
	cache    *SampleCache
	logger   *zap.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithLogger sets a logger for fetch tracing.
func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a fetcher over cfg's dataset and coverage.
func NewFetcher(platform geoproc.Platform, cfg *config.ClimateConfig, opts ...FetcherOption) (*Fetcher, error) {
	start, end, err := cfg.Coverage()
	if err != nil {
		return nil, err
	}
	f := &Fetcher{
		platform: platform,
		cfg:      cfg,
		start:    start,
		end:      end,
		logger:   zap.NewNop(),
	}
	if cfg.CacheSize > 0 {
		f.cache = NewSampleCache(cfg.CacheSize, cfg.CacheTTL())
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch returns the climate layer for variableID over the calendar month containing date.
// Unknown variables and dates outside coverage fail before any remote call.
func (f *Fetcher) Fetch(ctx context.Context, variableID string, date time.Time, aoi *models.AreaOfInterest) (*models.ClimateLayer, error) {
	variable, ok := Lookup(variableID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownVariable, variableID)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", models.ErrInvalidRequest)
	}
	d := date.UTC()
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(f.start) || day.After(f.end) {
		return nil, fmt.Errorf("%w: %s outside climate archive [%s, %s]", models.ErrDateOutOfRange,
			day.Format(config.DateLayout), f.start.Format(config.DateLayout), f.end.Format(config.DateLayout))
	}
	if err := geo.Validate(aoi); err != nil {
		return nil, err
	}

	month := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	fingerprint := geo.Fingerprint(aoi)
	sample, hit := f.lookupCache(variable.Band, month, fingerprint)
	if !hit {
		var err error
		sample, err = f.platform.SampleClimate(ctx, geoproc.ClimateQuery{
			Dataset:        f.cfg.Dataset,
			Band:           variable.Band,
			Geometry:       geoproc.GeometryFromAOI(aoi),
			Start:          month,
			End:            month.AddDate(0, 1, 0),
			MaskCollection: f.cfg.MaskCollection,
			ScaleMeters:    f.cfg.ScaleMeters,
			Visualization:  variable.Ramp,
		})
		if err != nil {
			return nil, fmt.Errorf("sampling %s for %s: %w", variable.Band, month.Format("2006-01"), err)
		}
		if sample.ImageCount == 0 {
			return nil, fmt.Errorf("%w: %s %s", models.ErrNoClimateData, variable.ID, month.Format("January 2006"))
		}
		if f.cache != nil {
			f.cache.Put(variable.Band, month, fingerprint, sample)
		}
	}
	f.logger.Debug("climate layer",
		zap.String("band", variable.Band),
		zap.String("month", month.Format("2006-01")),
		zap.Bool("cached", hit))

	return &models.ClimateLayer{
		Variable:   variable,
		Date:       day,
		Month:      month,
		Handle:     sample.Handle,
		TileURL:    sample.TileURL,
		ImageCount: sample.ImageCount,
		Stats:      sample.Stats,
		Legend:     Legend(variable),
		Simulated:  sample.Simulated,
	}, nil
}

func (f *Fetcher) lookupCache(band string, month time.Time, aoi string) (*geoproc.ClimateSample, bool) {
	if f.cache == nil {
		return nil, false
	}
	return f.cache.Get(band, month, aoi)
}
