package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/icondo/parcel-service/internal/events"
	"github.com/icondo/parcel-service/internal/notify"
	"github.com/icondo/parcel-service/internal/worker"
)

type inlineSubmitter struct{ accept bool }

func (s inlineSubmitter) Submit(job worker.Job) bool {
	if !s.accept {
		return false
	}
	job(context.Background())
	return true
}

type recordingNotifier struct {
	name string
	err  error

	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Name() string { return n.name }

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

type deliveryCounter struct {
	mu      sync.Mutex
	results map[string][]bool
}

func (d *deliveryCounter) NotificationDelivered(sink string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.results == nil {
		d.results = map[string][]bool{}
	}
	d.results[sink] = append(d.results[sink], err == nil)
}

func TestNotificationFanOut(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	ok := &recordingNotifier{name: "log"}
	failing := &recordingNotifier{name: "webhook", err: errors.New("503")}
	metrics := &deliveryCounter{}

	svc := NewNotificationService(dispatcher, zap.NewNop(), inlineSubmitter{accept: true}, metrics, ok, failing)
	svc.RegisterHandlers()

	room := "101"
	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventParcelReceived,
		ParcelID:  3,
		Timestamp: time.Now(),
		Payload:   events.ParcelReceivedPayload{TrackingNumber: "TH1", CarrierName: "Flash", RoomNumber: &room},
	})
	require.NoError(t, err, "sink failures never reach the publisher")

	require.Len(t, ok.messages, 1)
	msg := ok.messages[0]
	assert.Equal(t, notify.KindParcelReceived, msg.Kind)
	assert.Equal(t, "101", msg.RoomNumber)
	assert.Contains(t, msg.Text, "arrived for room 101")
	assert.Len(t, failing.messages, 1)

	assert.Equal(t, []bool{true}, metrics.results["log"])
	assert.Equal(t, []bool{false}, metrics.results["webhook"])
}

func TestNotificationCollectedMessage(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &recordingNotifier{name: "log"}
	NewNotificationService(dispatcher, zap.NewNop(), inlineSubmitter{accept: true}, nil, sink).RegisterHandlers()

	room := "102"
	collectedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventParcelCollected,
		ParcelID: 4,
		Payload:  events.ParcelCollectedPayload{TrackingNumber: "TH2", RoomNumber: &room, CollectedAt: collectedAt},
	}))

	require.Len(t, sink.messages, 1)
	assert.Equal(t, notify.KindParcelCollected, sink.messages[0].Kind)
	assert.Equal(t, collectedAt, sink.messages[0].OccurredAt)
}

func TestNotificationDroppedWhenQueueRejects(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &recordingNotifier{name: "mqtt"}
	metrics := &deliveryCounter{}
	NewNotificationService(dispatcher, zap.NewNop(), inlineSubmitter{accept: false}, metrics, sink).RegisterHandlers()

	room := "101"
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventParcelReceived,
		Payload: events.ParcelReceivedPayload{TrackingNumber: "TH1", RoomNumber: &room},
	}))

	assert.Empty(t, sink.messages)
	assert.Equal(t, []bool{false}, metrics.results["mqtt"])
}

func TestNotificationRejectsForeignPayload(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.NewNop(), inlineSubmitter{accept: true}, nil).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventParcelReceived, Payload: "oops"})
	assert.Error(t, err)
}

func TestNotificationWithWorkerPool(t *testing.T) {
	pool := worker.NewNotificationWorker(2, 8, time.Second, zap.NewNop())
	pool.Start()

	dispatcher := events.NewInMemoryDispatcher()
	sink := &recordingNotifier{name: "log"}
	NewNotificationService(dispatcher, zap.NewNop(), pool, nil, sink).RegisterHandlers()

	room := "101"
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventParcelReceived,
		Payload: events.ParcelReceivedPayload{TrackingNumber: "TH1", RoomNumber: &room},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.messages, 1)
}
