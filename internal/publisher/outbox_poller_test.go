package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cujumbu/multistore2/internal/repository"
)

// MockRepository implements OutboxRepository for testing
type MockRepository struct {
	Events       []*repository.OutboxEvent
	FetchErr     error
	MarkErr      error
	ProcessedIDs []int64
}

func (m *MockRepository) GetUnprocessedEvents(_ context.Context, _ int) ([]*repository.OutboxEvent, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	events := m.Events
	m.Events = nil
	return events, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.ProcessedIDs = append(m.ProcessedIDs, id)
	return nil
}

// MockWriter captures published messages
type MockWriter struct {
	Err      error
	Messages []kafka.Message
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func newTestEvent(id int64) *repository.OutboxEvent {
	return &repository.OutboxEvent{
		ID:          id,
		AggregateID: "order-abc",
		EventType:   "order.paid",
		Payload:     []byte(`{"order_id":"order-abc"}`),
		CreatedAt:   time.Now(),
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	repo := &MockRepository{Events: []*repository.OutboxEvent{newTestEvent(1), newTestEvent(2)}}
	writer := &MockWriter{}
	poller := &OutboxPoller{tick: time.Second, repo: repo, writer: writer}

	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.Messages, 2)
	assert.Equal(t, []byte("order-abc"), writer.Messages[0].Key)
	require.Len(t, writer.Messages[0].Headers, 1)
	assert.Equal(t, "event_type", writer.Messages[0].Headers[0].Key)
	assert.Equal(t, []byte("order.paid"), writer.Messages[0].Headers[0].Value)
	assert.Equal(t, []int64{1, 2}, repo.ProcessedIDs)
}

func TestProcessUnpublishedEvents_PublishFailureLeavesEventUnmarked(t *testing.T) {
	repo := &MockRepository{Events: []*repository.OutboxEvent{newTestEvent(1)}}
	writer := &MockWriter{Err: errors.New("broker unavailable")}
	poller := &OutboxPoller{tick: time.Second, repo: repo, writer: writer}

	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, repo.ProcessedIDs, "unpublished events must stay pending")
}

func TestProcessUnpublishedEvents_FetchFailure(t *testing.T) {
	repo := &MockRepository{FetchErr: errors.New("db down")}
	writer := &MockWriter{}
	poller := &OutboxPoller{tick: time.Second, repo: repo, writer: writer}

	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, writer.Messages)
}
