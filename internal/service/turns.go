package service

import (
	"context"
	"fmt"

	"github.com/ayushma-ai/assistant-platform/internal/engine"
	"github.com/ayushma-ai/assistant-platform/internal/model"
	"github.com/ayushma-ai/assistant-platform/internal/store"
	"github.com/ayushma-ai/assistant-platform/pkg/logger"
)

// TurnService answers turns and lists stored turns.
type TurnService struct {
	engine        *engine.Engine
	turns         *store.TurnStore
	conversations *ConversationService
	logger        *logger.Logger
}

// NewTurnService creates a turn service.
func NewTurnService(eng *engine.Engine, turns *store.TurnStore, conversations *ConversationService, log *logger.Logger) *TurnService {
	return &TurnService{
		engine:        eng,
		turns:         turns,
		conversations: conversations,
		logger:        log,
	}
}

// Converse answers one user utterance for a conversation, delivering
// incremental events through emit (may be nil in non-streaming mode). It
// returns the persisted assistant turn.
func (s *TurnService) Converse(ctx context.Context, tenantID, conversationID string, req *model.ConverseRequest, emit engine.EmitFunc) (*model.Turn, error) {
	conv, err := s.conversations.Get(ctx, tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	turn, err := s.engine.Converse(ctx, conv, req, emit)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.RecordTurn(ctx, tenantID, conversationID, turn); err != nil {
		s.logger.Warn("failed to record turn on conversation", "error", err, "conversation_id", conversationID)
	}

	return turn, nil
}

// ListTurns retrieves turns for a conversation.
func (s *TurnService) ListTurns(ctx context.Context, tenantID, conversationID string, afterSequence uint64, limit int) (*model.ListTurnsResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	turns, lastSeq, hasMore, err := s.turns.List(ctx, tenantID, conversationID, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	return &model.ListTurnsResponse{
		Turns:        turns,
		HasMore:      hasMore,
		LastSequence: lastSeq,
	}, nil
}
