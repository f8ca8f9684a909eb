package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("notification sent",
		zap.String("kind", string(msg.Kind)),
		zap.String("room_number", msg.RoomNumber),
		zap.Int64("parcel_id", msg.ParcelID),
		zap.String("tracking_number", msg.TrackingNumber),
		zap.String("text", msg.Text),
	)
	return nil
}
