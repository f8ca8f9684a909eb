package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/icondo/parcel-service/internal/events"
	"github.com/icondo/parcel-service/internal/notify"
	"github.com/icondo/parcel-service/internal/worker"
)

// JobSubmitter queues background work without blocking.
type JobSubmitter interface {
	Submit(job worker.Job) bool
}

// DeliveryMetrics records notification outcomes per sink.
type DeliveryMetrics interface {
	NotificationDelivered(sink string, err error)
}

type noopDeliveryMetrics struct{}

func (noopDeliveryMetrics) NotificationDelivered(string, error) {}

// NotificationService turns lifecycle events into resident notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	notifiers  []notify.Notifier
	jobs       JobSubmitter
	metrics    DeliveryMetrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, jobs JobSubmitter, metrics DeliveryMetrics, notifiers ...notify.Notifier) *NotificationService {
	if metrics == nil {
		metrics = noopDeliveryMetrics{}
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		notifiers:  notifiers,
		jobs:       jobs,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventParcelReceived, n.handleParcelReceived)
	n.dispatcher.Subscribe(events.EventParcelCollected, n.handleParcelCollected)
}

func (n *NotificationService) handleParcelReceived(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ParcelReceivedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	room := deref(payload.RoomNumber)
	n.fanOut(notify.Message{
		Kind:           notify.KindParcelReceived,
		ParcelID:       event.ParcelID,
		TrackingNumber: payload.TrackingNumber,
		RoomNumber:     room,
		Text:           fmt.Sprintf("Parcel %s (%s) arrived for room %s", payload.TrackingNumber, payload.CarrierName, room),
		OccurredAt:     event.Timestamp,
	})
	return nil
}

func (n *NotificationService) handleParcelCollected(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ParcelCollectedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	room := deref(payload.RoomNumber)
	n.fanOut(notify.Message{
		Kind:           notify.KindParcelCollected,
		ParcelID:       event.ParcelID,
		TrackingNumber: payload.TrackingNumber,
		RoomNumber:     room,
		Text:           fmt.Sprintf("Parcel %s for room %s was collected", payload.TrackingNumber, room),
		OccurredAt:     payload.CollectedAt,
	})
	return nil
}

// fanOut queues one delivery per sink. Failures are logged and counted, never
// surfaced to the request that triggered them.
func (n *NotificationService) fanOut(msg notify.Message) {
	for _, notifier := range n.notifiers {
		notifier := notifier
		job := func(ctx context.Context) {
			err := notifier.Notify(ctx, msg)
			n.metrics.NotificationDelivered(notifier.Name(), err)
			if err != nil {
				n.logger.Warn("notification delivery failed",
					zap.String("sink", notifier.Name()),
					zap.Int64("parcel_id", msg.ParcelID),
					zap.Error(err))
			}
		}
		if n.jobs == nil || !n.jobs.Submit(job) {
			n.metrics.NotificationDelivered(notifier.Name(), errDropped)
			n.logger.Warn("notification dropped", zap.String("sink", notifier.Name()), zap.Int64("parcel_id", msg.ParcelID))
		}
	}
}

var errDropped = errors.New("notification queue unavailable")
