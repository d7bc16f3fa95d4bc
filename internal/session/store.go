// Package session holds the explicit analysis session: its persistence and the manager
// that runs velocity, climate and assistant operations against it.
package session

import (
	"context"

	"github.com/hyperjump/glacierwatch/internal/models"
)

// Store persists sessions and their conversation turns.
type Store interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context) ([]*models.Session, error)
	SaveVelocity(ctx context.Context, id string, v *models.VelocityField) error
	SaveClimate(ctx context.Context, id string, c *models.ClimateLayer) error
	AppendTurn(ctx context.Context, id string, turn models.ConversationTurn) error
	Turns(ctx context.Context, id string) ([]models.ConversationTurn, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	Close() error
}
