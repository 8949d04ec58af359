package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/ayushma-ai/assistant-platform/internal/model"
)

const (
	// StreamName is the name of the turns stream.
	StreamName = "TURNS"

	// SubjectPrefix is the prefix for all turn subjects.
	SubjectPrefix = "turn"
)

// TurnStore persists turns as JetStream snapshots. The log is append-only,
// so Update publishes a second snapshot of the same turn; reads collapse
// snapshots by turn id keeping the latest.
type TurnStore struct {
	client *Client
}

// NewTurnStore creates a turn store.
func NewTurnStore(client *Client) *TurnStore {
	return &TurnStore{client: client}
}

// EnsureStream ensures the turns stream exists with proper configuration.
func (s *TurnStore) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    100 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "All conversation turns",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TurnSubject returns the subject for a turn snapshot.
func TurnSubject(tenantID, conversationID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, tenantID, conversationID, role)
}

// ConversationFilter returns the filter subject for all turns in a
// conversation.
func ConversationFilter(tenantID, conversationID string) string {
	return fmt.Sprintf("%s.%s.%s.>", SubjectPrefix, tenantID, conversationID)
}

// Create publishes the first snapshot of a turn.
func (s *TurnStore) Create(ctx context.Context, turn *model.Turn) (uint64, error) {
	return s.publish(ctx, turn)
}

// Update publishes a new snapshot of an existing turn. The snapshot with
// the highest sequence wins on read.
func (s *TurnStore) Update(ctx context.Context, turn *model.Turn) (uint64, error) {
	return s.publish(ctx, turn)
}

func (s *TurnStore) publish(ctx context.Context, turn *model.Turn) (uint64, error) {
	subject := TurnSubject(turn.TenantID, turn.ConversationID, turn.Role)

	data, err := json.Marshal(turn)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal turn: %w", err)
	}

	ack, err := s.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish turn: %w", err)
	}

	turn.Sequence = ack.Sequence
	return ack.Sequence, nil
}

// List retrieves a page of turns for a conversation starting after a
// sequence, deduplicated to the latest snapshot per turn and ordered by
// creation time.
func (s *TurnStore) List(ctx context.Context, tenantID, conversationID string, afterSequence uint64, limit int) ([]model.Turn, uint64, bool, error) {
	turns, lastSeq, err := s.fetch(ctx, tenantID, conversationID, afterSequence, limit)
	if err != nil {
		return nil, 0, false, err
	}
	hasMore := len(turns) == limit
	return turns, lastSeq, hasMore, nil
}

// History returns the conversation's prior turns ordered by creation time,
// excluding the turn currently being answered.
func (s *TurnStore) History(ctx context.Context, tenantID, conversationID, excludeTurnID string) ([]model.Turn, error) {
	turns, _, err := s.fetch(ctx, tenantID, conversationID, 0, 1000)
	if err != nil {
		return nil, err
	}

	history := turns[:0]
	for _, turn := range turns {
		if turn.ID != excludeTurnID {
			history = append(history, turn)
		}
	}
	return history, nil
}

func (s *TurnStore) fetch(ctx context.Context, tenantID, conversationID string, afterSequence uint64, limit int) ([]model.Turn, uint64, error) {
	js := s.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: ConversationFilter(tenantID, conversationID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch turns: %w", err)
	}

	// Collapse snapshots: latest sequence per turn id wins.
	latest := make(map[string]model.Turn)
	var lastSequence uint64

	for msg := range batch.Messages() {
		var turn model.Turn
		if err := json.Unmarshal(msg.Data(), &turn); err != nil {
			continue
		}

		if meta, err := msg.Metadata(); err == nil {
			turn.Sequence = meta.Sequence.Stream
			lastSequence = meta.Sequence.Stream
		}

		if prev, ok := latest[turn.ID]; !ok || turn.Sequence > prev.Sequence {
			latest[turn.ID] = turn
		}
	}

	if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
		return nil, 0, fmt.Errorf("batch error: %w", batch.Error())
	}

	turns := make([]model.Turn, 0, len(latest))
	for _, turn := range latest {
		turns = append(turns, turn)
	}
	sort.Slice(turns, func(i, j int) bool {
		if turns[i].CreatedAt.Equal(turns[j].CreatedAt) {
			return turns[i].Sequence < turns[j].Sequence
		}
		return turns[i].CreatedAt.Before(turns[j].CreatedAt)
	})

	return turns, lastSequence, nil
}
