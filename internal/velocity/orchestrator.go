// Package velocity orchestrates glacier surface velocity requests: validation, scene
// selection, remote feature tracking and summary statistics.
package velocity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/config"
	"github.com/hyperjump/glacierwatch/internal/geo"
	"github.com/hyperjump/glacierwatch/internal/geoproc"
	"github.com/hyperjump/glacierwatch/internal/models"
)

// Request is a velocity estimation request. A zero WindowSize uses the configured default.
type Request struct {
	AOI        *models.AreaOfInterest
	DateA      time.Time
	DateB      time.Time
	WindowSize int
}

// Orchestrator turns a Request into a VelocityField using the processing platform.
type Orchestrator struct {
	platform     geoproc.Platform
	cfg          *config.VelocityConfig
	archiveStart time.Time
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a logger for scene selection and retry decisions.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the clock used for the archive upper bound.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator. cfg must have passed config validation.
func NewOrchestrator(platform geoproc.Platform, cfg *config.VelocityConfig, opts ...Option) (*Orchestrator, error) {
	start, err := cfg.ArchiveStartDate()
	if err != nil {
		return nil, fmt.Errorf("invalid archive start: %w", err)
	}
	o := &Orchestrator{
		platform:     platform,
		cfg:          cfg,
		archiveStart: start,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Validate checks req without contacting the platform and returns the effective window size.
func (o *Orchestrator) Validate(req Request) (int, error) {
	if err := geo.Validate(req.AOI); err != nil {
		return 0, err
	}
	if req.DateA.IsZero() || req.DateB.IsZero() {
		return 0, fmt.Errorf("%w: both dates are required", models.ErrInvalidRequest)
	}
	a, b := day(req.DateA), day(req.DateB)
	if !a.Before(b) {
		return 0, fmt.Errorf("%w: date A (%s) must precede date B (%s)",
			models.ErrInvalidRequest, a.Format(config.DateLayout), b.Format(config.DateLayout))
	}
	latest := day(o.now())
	for _, d := range []time.Time{a, b} {
		if d.Before(o.archiveStart) || d.After(latest) {
			return 0, fmt.Errorf("%w: %s outside imagery archive [%s, %s]", models.ErrDateOutOfRange,
				d.Format(config.DateLayout), o.archiveStart.Format(config.DateLayout), latest.Format(config.DateLayout))
		}
	}
	window := req.WindowSize
	if window == 0 {
		window = o.cfg.DefaultWindowSize
	}
	if window < o.cfg.MinWindowSize || window > o.cfg.MaxWindowSize {
		return 0, fmt.Errorf("%w: window size %d outside [%d, %d]",
			models.ErrInvalidRequest, window, o.cfg.MinWindowSize, o.cfg.MaxWindowSize)
	}
	return window, nil
}

// Estimate validates req, selects the least cloudy scene near each date, runs remote
// feature tracking and summarizes the result. When either date has no scene under the
// cloud tolerance, scene selection is retried once with the widened tolerance.
func (o *Orchestrator) Estimate(ctx context.Context, req Request) (*models.VelocityField, error) {
	window, err := o.Validate(req)
	if err != nil {
		return nil, err
	}
	a, b := day(req.DateA), day(req.DateB)
	geom := geoproc.GeometryFromAOI(req.AOI)

	pair, err := o.selectPair(ctx, geom, a, b, o.cfg.CloudTolerance)
	if errors.Is(err, models.ErrNoImageryFound) {
		o.logger.Info("no imagery under cloud tolerance, retrying widened",
			zap.Float64("tolerance", o.cfg.CloudTolerance),
			zap.Float64("widened", o.cfg.WidenedCloudTolerance),
			zap.Error(err))
		pair, err = o.selectPair(ctx, geom, a, b, o.cfg.WidenedCloudTolerance)
	}
	if err != nil {
		return nil, err
	}

	glaciers, err := o.platform.CountFeatures(ctx, geoproc.FeatureQuery{Collection: o.cfg.MaskCollection, Geometry: geom})
	if err != nil {
		return nil, fmt.Errorf("%w: counting glacier outlines: %w", models.ErrTrackingFailure, err)
	}
	if glaciers == 0 {
		return nil, fmt.Errorf("%w: %s has no %s polygons", models.ErrNoGlacierOutlines, req.AOI.Name, o.cfg.MaskCollection)
	}

	raster, err := o.platform.TrackDisplacement(ctx, geoproc.TrackingRequest{
		ReferenceID:     pair.Reference.ID,
		TargetID:        pair.Target.ID,
		Band:            o.cfg.Band,
		MaxOffsetMeters: o.cfg.MaxOffsetMeters,
		PatchWidth:      window,
		Geometry:        geom,
		MaskCollection:  o.cfg.MaskCollection,
		ScaleMeters:     o.cfg.ScaleMeters,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTrackingFailure, err)
	}

	gap := GapDays(a, b)
	summary, err := FromDisplacement(raster, gap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTrackingFailure, err)
	}
	o.logger.Debug("velocity estimated",
		zap.String("aoi", req.AOI.Name),
		zap.String("reference", pair.Reference.ID),
		zap.String("target", pair.Target.ID),
		zap.Int("gap_days", gap),
		zap.Float64("mean_m_per_day", summary.MeanMPerDay))

	return &models.VelocityField{
		Handle:       raster.Handle,
		Pair:         *pair,
		DateA:        a,
		DateB:        b,
		TimeGapDays:  gap,
		WindowSize:   window,
		GlacierCount: glaciers,
		Summary:      summary,
		ComputedAt:   o.now(),
		Simulated:    raster.Simulated,
	}, nil
}

func (o *Orchestrator) selectPair(ctx context.Context, geom geoproc.Geometry, a, b time.Time, tolerance float64) (*models.ImageAcquisitionPair, error) {
	refs, err := o.candidates(ctx, geom, a, tolerance)
	if err != nil {
		return nil, err
	}
	tgts, err := o.candidates(ctx, geom, b, tolerance)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 || len(tgts) == 0 {
		return nil, fmt.Errorf("%w: %d scene(s) within %d days of %s and %d within %d days of %s under %.0f%% cloud",
			models.ErrNoImageryFound,
			len(refs), o.cfg.ToleranceDays, a.Format(config.DateLayout),
			len(tgts), o.cfg.ToleranceDays, b.Format(config.DateLayout), tolerance)
	}
	// Windows overlap for close dates; fall back to the next best scene on either side.
	for _, ref := range refs {
		for _, tgt := range tgts {
			if ref.ID != tgt.ID && ref.AcquiredAt.Before(tgt.AcquiredAt) {
				return &models.ImageAcquisitionPair{Reference: ref, Target: tgt, CloudTolerance: tolerance}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no distinct scene pair in order between %s and %s under %.0f%% cloud (%d and %d candidates)",
		models.ErrNoImageryFound, a.Format(config.DateLayout), b.Format(config.DateLayout), tolerance, len(refs), len(tgts))
}

// candidates returns the scenes within the tolerance window around date that pass the
// cloud limit, least cloudy first, then nearest to date, then by ID.
func (o *Orchestrator) candidates(ctx context.Context, geom geoproc.Geometry, date time.Time, tolerance float64) ([]models.Scene, error) {
	window := time.Duration(o.cfg.ToleranceDays) * 24 * time.Hour
	start, end := date.Add(-window), date.Add(window)
	scenes, err := o.platform.SearchScenes(ctx, geoproc.SceneQuery{
		Collection:      o.cfg.Collection,
		Geometry:        geom,
		Start:           start,
		End:             end,
		CloudProperty:   o.cfg.CloudProperty,
		MaxCloudPercent: tolerance,
	})
	if err != nil {
		if errors.Is(err, models.ErrCredential) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scene search near %s: %w", models.ErrTrackingFailure, date.Format(config.DateLayout), err)
	}

	out := make([]models.Scene, 0, len(scenes))
	for _, s := range scenes {
		if s.CloudPercent >= tolerance || s.AcquiredAt.Before(start) || s.AcquiredAt.After(end) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i], out[j]
		if ci.CloudPercent != cj.CloudPercent {
			return ci.CloudPercent < cj.CloudPercent
		}
		di, dj := absDuration(ci.AcquiredAt.Sub(date)), absDuration(cj.AcquiredAt.Sub(date))
		if di != dj {
			return di < dj
		}
		return ci.ID < cj.ID
	})
	return out, nil
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
