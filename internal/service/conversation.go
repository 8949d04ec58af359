// Package service provides business logic for the assistant platform.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayushma-ai/assistant-platform/internal/model"
	"github.com/ayushma-ai/assistant-platform/pkg/logger"
	"github.com/ayushma-ai/assistant-platform/pkg/metrics"
)

const (
	defaultTemperature = 0.1
	defaultTopK        = 100
)

// ConversationService handles conversation operations.
type ConversationService struct {
	logger *logger.Logger

	// In-memory storage for conversations (would be replaced with a
	// database in production)
	conversations map[string]*model.Conversation
	mu            sync.RWMutex
}

// NewConversationService creates a new conversation service.
func NewConversationService(log *logger.Logger) *ConversationService {
	return &ConversationService{
		logger:        log,
		conversations: make(map[string]*model.Conversation),
	}
}

// Create creates a new conversation.
func (s *ConversationService) Create(ctx context.Context, tenantID, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	now := time.Now()

	conv := &model.Conversation{
		ID:          uuid.Must(uuid.NewV7()).String(),
		TenantID:    tenantID,
		UserID:      userID,
		Title:       req.Title,
		Temperature: defaultTemperature,
		TopK:        defaultTopK,
		Prompt:      req.Prompt,
		Namespace:   req.Namespace,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    req.Metadata,
	}
	if req.Temperature != nil {
		conv.Temperature = *req.Temperature
	}
	if req.TopK != nil {
		conv.TopK = *req.TopK
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	metrics.ConversationsTotal.WithLabelValues(tenantID).Inc()
	s.logger.Info("conversation created", "conversation_id", conv.ID, "tenant_id", tenantID)

	return conv, nil
}

// Get retrieves a conversation by ID.
func (s *ConversationService) Get(ctx context.Context, tenantID, conversationID string) (*model.Conversation, error) {
	s.mu.RLock()
	conv, exists := s.conversations[conversationID]
	s.mu.RUnlock()

	if !exists || conv.TenantID != tenantID || conv.Deleted {
		return nil, fmt.Errorf("conversation not found")
	}

	return conv, nil
}

// List retrieves conversations for a tenant.
func (s *ConversationService) List(ctx context.Context, tenantID string, limit, offset int) (*model.ListConversationsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []model.Conversation
	for _, conv := range s.conversations {
		if conv.TenantID == tenantID && !conv.Deleted {
			convs = append(convs, *conv)
		}
	}

	total := len(convs)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &model.ListConversationsResponse{
		Conversations: convs[start:end],
		Total:         total,
		HasMore:       end < total,
	}, nil
}

// Update updates a conversation.
func (s *ConversationService) Update(ctx context.Context, tenantID, conversationID string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists || conv.TenantID != tenantID {
		return nil, fmt.Errorf("conversation not found")
	}

	if req.Title != "" {
		conv.Title = req.Title
	}
	if req.Prompt != "" {
		conv.Prompt = req.Prompt
	}
	if req.Metadata != nil {
		conv.Metadata = req.Metadata
	}
	conv.UpdatedAt = time.Now()

	return conv, nil
}

// Delete soft deletes a conversation.
func (s *ConversationService) Delete(ctx context.Context, tenantID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists || conv.TenantID != tenantID {
		return fmt.Errorf("conversation not found")
	}

	conv.Deleted = true
	conv.UpdatedAt = time.Now()

	return nil
}

// RecordTurn updates conversation bookkeeping after a turn is persisted.
func (s *ConversationService) RecordTurn(ctx context.Context, tenantID, conversationID string, turn *model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists || conv.TenantID != tenantID {
		return fmt.Errorf("conversation not found")
	}

	conv.LastTurn = turn
	conv.TurnCount++
	conv.UpdatedAt = time.Now()

	return nil
}
