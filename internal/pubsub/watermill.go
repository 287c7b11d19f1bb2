package pubsub

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Metadata keys reserved for Message fields.
const (
	metaUserID = "user_id"
	metaTopic  = "topic"
)

// WatermillBridge is a Bus on watermill's GoChannel. Auth events only matter
// to browsers connected to this instance, so nothing is persisted and events
// published without subscribers are dropped.
type WatermillBridge struct {
	channel *gochannel.GoChannel
	closed  atomic.Bool
}

var _ Bus = (*WatermillBridge)(nil)

// NewWatermillBridge creates an in-process bus that logs through slog.
func NewWatermillBridge() *WatermillBridge {
	return &WatermillBridge{
		channel: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			slogAdapter{logger: slog.Default().With("component", "pubsub")},
		),
	}
}

func toWatermill(msg Message) *message.Message {
	wm := message.NewMessage(watermill.NewUUID(), msg.Payload)
	for k, v := range msg.Metadata {
		wm.Metadata.Set(k, v)
	}
	wm.Metadata.Set(metaUserID, msg.UserID)
	wm.Metadata.Set(metaTopic, msg.Topic)
	return wm
}

func fromWatermill(wm *message.Message) Message {
	msg := Message{
		Topic:    wm.Metadata.Get(metaTopic),
		UserID:   wm.Metadata.Get(metaUserID),
		Payload:  wm.Payload,
		Metadata: make(map[string]string, len(wm.Metadata)),
	}
	for k, v := range wm.Metadata {
		if k != metaTopic {
			msg.Metadata[k] = v
		}
	}
	return msg
}

// Publish sends msg on msg.Topic.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	if wb.closed.Load() {
		return ErrClosed
	}
	wm := toWatermill(msg)
	wm.SetContext(ctx)
	return wb.channel.Publish(msg.Topic, wm)
}

// Subscribe runs handler for every message on topic in a background
// goroutine. The subscription ends when ctx is canceled or the bus closes.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if wb.closed.Load() {
		return ErrClosed
	}
	messages, err := wb.channel.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wm := range messages {
			if err := handler(ctx, fromWatermill(wm)); err != nil {
				slog.Error("Failed to handle message", "topic", topic, "msg_id", wm.UUID, "error", err)
			}
			// Always acked: GoChannel would redeliver a nacked message forever.
			wm.Ack()
		}
	}()
	return nil
}

// Close stops every subscription. It is safe to call more than once.
func (wb *WatermillBridge) Close() error {
	if wb.closed.Swap(true) {
		return nil
	}
	return wb.channel.Close()
}

// slogAdapter lets watermill log through slog.
type slogAdapter struct {
	logger *slog.Logger
}

func attrs(fields watermill.LogFields) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func (a slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error(msg, append(attrs(fields), "error", err)...)
}

func (a slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Info(msg, attrs(fields)...)
}

func (a slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, attrs(fields)...)
}

// Trace is logged below debug level.
func (a slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Log(context.Background(), slog.LevelDebug-4, msg, attrs(fields)...)
}

func (a slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return slogAdapter{logger: a.logger.With(attrs(fields)...)}
}
