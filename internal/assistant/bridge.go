package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/models"
)

// Bridge sends questions with analysis context to a Generator.
type Bridge struct {
	generator Generator
	logger    *zap.Logger
	now       func() time.Time
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = l }
}

// NewBridge creates a bridge over generator.
func NewBridge(generator Generator, opts ...BridgeOption) *Bridge {
	b := &Bridge{generator: generator, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Model returns the backing model name.
func (b *Bridge) Model() string {
	return b.generator.Model()
}

// Ask answers question about c. The answer is returned verbatim. Any generator failure
// is reported as models.ErrAssistantUnavailable.
func (b *Bridge) Ask(ctx context.Context, c Context, question string) (models.ConversationTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.ConversationTurn{}, fmt.Errorf("%w: please enter a question", models.ErrInvalidRequest)
	}
	start := b.now()
	answer, err := b.generator.Generate(ctx, BuildPrompt(c, question))
	if err != nil {
		b.logger.Warn("assistant call failed", zap.String("model", b.generator.Model()), zap.Error(err))
		return models.ConversationTurn{}, fmt.Errorf("%w: %w", models.ErrAssistantUnavailable, err)
	}
	b.logger.Debug("assistant answered",
		zap.String("model", b.generator.Model()),
		zap.Int("answer_len", len(answer)),
		zap.Duration("elapsed", b.now().Sub(start)))
	return models.ConversationTurn{
		Question: question,
		Answer:   answer,
		Model:    b.generator.Model(),
		AskedAt:  start,
	}, nil
}
