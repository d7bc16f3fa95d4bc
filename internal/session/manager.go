package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/assistant"
	"github.com/hyperjump/glacierwatch/internal/geo"
	"github.com/hyperjump/glacierwatch/internal/models"
	"github.com/hyperjump/glacierwatch/internal/velocity"
)

// VelocityEstimator runs a velocity request.
type VelocityEstimator interface {
	Estimate(ctx context.Context, req velocity.Request) (*models.VelocityField, error)
}

// ClimateFetcher loads a climate layer for a month.
type ClimateFetcher interface {
	Fetch(ctx context.Context, variableID string, date time.Time, aoi *models.AreaOfInterest) (*models.ClimateLayer, error)
}

// Asker answers questions about an analysis context.
type Asker interface {
	Ask(ctx context.Context, c assistant.Context, question string) (models.ConversationTurn, error)
}

// VelocityParams are the per-request velocity inputs; the AOI comes from the session.
type VelocityParams struct {
	DateA      time.Time
	DateB      time.Time
	WindowSize int
}

// Manager runs analysis operations against stored sessions. Operations on the same
// session are serialized; different sessions proceed concurrently.
type Manager struct {
	store     Store
	velocity  VelocityEstimator
	climate   ClimateFetcher
	assistant Asker
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serializes one session's operations. refs counts holders and waiters;
// the entry is dropped when it reaches zero.
type sessionLock struct {
	sync.Mutex
	refs int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager. asker may be nil when no assistant is configured;
// Ask then fails with models.ErrAssistantUnavailable.
func NewManager(store Store, v VelocityEstimator, c ClimateFetcher, asker Asker, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		velocity:  v,
		climate:   c,
		assistant: asker,
		logger:    zap.NewNop(),
		now:       time.Now,
		locks:     make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates aoi and starts a new session for it.
func (m *Manager) Create(ctx context.Context, aoi models.AreaOfInterest) (*models.Session, error) {
	if aoi.Center != nil && aoi.RadiusKm == 0 {
		aoi.RadiusKm = models.DefaultRadiusKm
	}
	if err := geo.Validate(&aoi); err != nil {
		return nil, err
	}
	if strings.TrimSpace(aoi.Name) == "" {
		aoi.Name = "Custom Location"
	}
	sess := &models.Session{
		ID:        uuid.NewString(),
		AOI:       aoi,
		CreatedAt: m.now(),
		Turns:     []models.ConversationTurn{},
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.logger.Info("session created", zap.String("session", sess.ID), zap.String("aoi", aoi.Name))
	return sess, nil
}

// Get returns the session with its turns.
func (m *Manager) Get(ctx context.Context, id string) (*models.Session, error) {
	return m.store.Get(ctx, id)
}

// List returns all sessions.
func (m *Manager) List(ctx context.Context) ([]*models.Session, error) {
	return m.store.List(ctx)
}

// Count returns the number of live sessions.
func (m *Manager) Count(ctx context.Context) (int64, error) {
	return m.store.Count(ctx)
}

// Delete ends a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("session deleted", zap.String("session", id))
	return nil
}

// Turns returns the session's conversation in order.
func (m *Manager) Turns(ctx context.Context, id string) ([]models.ConversationTurn, error) {
	return m.store.Turns(ctx, id)
}

// Velocity estimates velocity over the session AOI and records it as the last result.
// A failed estimate leaves the previous result in place.
func (m *Manager) Velocity(ctx context.Context, id string, p VelocityParams) (*models.VelocityField, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	field, err := m.velocity.Estimate(ctx, velocity.Request{
		AOI:        &sess.AOI,
		DateA:      p.DateA,
		DateB:      p.DateB,
		WindowSize: p.WindowSize,
	})
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveVelocity(ctx, id, field); err != nil {
		return nil, fmt.Errorf("failed to save velocity: %w", err)
	}
	return field, nil
}

// Climate loads a climate layer over the session AOI and records it as the last layer.
func (m *Manager) Climate(ctx context.Context, id, variableID string, date time.Time) (*models.ClimateLayer, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	layer, err := m.climate.Fetch(ctx, variableID, date, &sess.AOI)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveClimate(ctx, id, layer); err != nil {
		return nil, fmt.Errorf("failed to save climate: %w", err)
	}
	return layer, nil
}

// Ask forwards question with the session's analysis context and appends the turn.
// Exactly one turn is recorded per successful answer.
func (m *Manager) Ask(ctx context.Context, id, question string) (models.ConversationTurn, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return models.ConversationTurn{}, err
	}
	if m.assistant == nil {
		return models.ConversationTurn{}, fmt.Errorf("%w: no assistant configured", models.ErrAssistantUnavailable)
	}
	turn, err := m.assistant.Ask(ctx, assistant.ContextFromSession(sess), question)
	if err != nil {
		return models.ConversationTurn{}, err
	}
	if err := m.store.AppendTurn(ctx, id, turn); err != nil {
		return models.ConversationTurn{}, fmt.Errorf("failed to record turn: %w", err)
	}
	return turn, nil
}

// Suggestions returns starter questions for the session's current analysis.
func (m *Manager) Suggestions(ctx context.Context, id string) ([]string, error) {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	variable := ""
	if sess.LastClimate != nil {
		variable = sess.LastClimate.Variable.ID
	}
	return assistant.SuggestQuestions(sess.AOI.Name, variable, sess.LastVelocity != nil), nil
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
