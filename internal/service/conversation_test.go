package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushma-ai/assistant-platform/internal/model"
	"github.com/ayushma-ai/assistant-platform/pkg/logger"
)

func TestConversationLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewConversationService(logger.NewNop())

	conv, err := svc.Create(ctx, "tenant-1", "user-1", &model.CreateConversationRequest{
		Title:     "Burn care questions",
		Namespace: "nursing-docs",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, defaultTemperature, conv.Temperature)
	assert.Equal(t, defaultTopK, conv.TopK)
	assert.Equal(t, "nursing-docs", conv.Namespace)

	got, err := svc.Get(ctx, "tenant-1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	// Other tenants cannot see it.
	_, err = svc.Get(ctx, "tenant-2", conv.ID)
	require.Error(t, err)

	updated, err := svc.Update(ctx, "tenant-1", conv.ID, &model.UpdateConversationRequest{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	require.NoError(t, svc.Delete(ctx, "tenant-1", conv.ID))
	_, err = svc.Get(ctx, "tenant-1", conv.ID)
	require.Error(t, err)
}

func TestConversationCreateOverrides(t *testing.T) {
	t.Parallel()

	temp := 0.7
	topK := 25
	svc := NewConversationService(logger.NewNop())

	conv, err := svc.Create(context.Background(), "tenant-1", "user-1", &model.CreateConversationRequest{
		Title:       "Custom",
		Temperature: &temp,
		TopK:        &topK,
		Prompt:      "You are a triage assistant.",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.7, conv.Temperature)
	assert.Equal(t, 25, conv.TopK)
	assert.Equal(t, "You are a triage assistant.", conv.Prompt)
}

func TestConversationListPagination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewConversationService(logger.NewNop())
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, "tenant-1", "user-1", &model.CreateConversationRequest{Title: "c"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "tenant-2", "user-2", &model.CreateConversationRequest{Title: "other"})
	require.NoError(t, err)

	resp, err := svc.List(ctx, "tenant-1", 2, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Conversations, 2)
	assert.Equal(t, 5, resp.Total)
	assert.True(t, resp.HasMore)

	resp, err = svc.List(ctx, "tenant-1", 10, 4)
	require.NoError(t, err)
	assert.Len(t, resp.Conversations, 1)
	assert.False(t, resp.HasMore)
}

func TestConversationRecordTurn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewConversationService(logger.NewNop())
	conv, err := svc.Create(ctx, "tenant-1", "user-1", &model.CreateConversationRequest{Title: "c"})
	require.NoError(t, err)

	turn := &model.Turn{ID: "turn-1", Role: model.RoleAssistant}
	require.NoError(t, svc.RecordTurn(ctx, "tenant-1", conv.ID, turn))

	got, err := svc.Get(ctx, "tenant-1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TurnCount)
	require.NotNil(t, got.LastTurn)
	assert.Equal(t, "turn-1", got.LastTurn.ID)
}
