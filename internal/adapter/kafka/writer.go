package kafka

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-radar-display/internal/adapter/display"
	"github.com/couchcryptid/storm-radar-display/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// Panel commands carried in the "command" header.
const (
	CommandInit   = "init"
	CommandClear  = "clear"
	CommandRender = "render"
	CommandSleep  = "sleep"
)

// messageWriter is the subset of *kafkago.Writer the frame writer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// FrameWriter publishes the display lifecycle to a Kafka topic so a remote
// agent attached to the panel can replay it. Render messages carry the frame
// as an indexed PNG; the other commands have an empty value.
// It implements pipeline.Display.
type FrameWriter struct {
	writer  messageWriter
	key     []byte
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFrameWriter creates a Kafka producer for topic. Every message is keyed by
// panel so commands for one panel stay ordered within a partition.
func NewFrameWriter(brokers []string, topic, panel string, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *FrameWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &FrameWriter{writer: w, key: []byte(panel), clock: clock, metrics: metrics, logger: logger}
}

func (w *FrameWriter) Init(ctx context.Context) error {
	return w.publish(ctx, commandMessage(w.key, CommandInit, w.clock.Now()))
}

func (w *FrameWriter) Clear(ctx context.Context) error {
	return w.publish(ctx, commandMessage(w.key, CommandClear, w.clock.Now()))
}

func (w *FrameWriter) Render(ctx context.Context, frame *image.Paletted) error {
	msg, err := frameMessage(w.key, frame, w.clock.Now())
	if err != nil {
		return err
	}
	if err := w.publish(ctx, msg); err != nil {
		return err
	}
	w.metrics.FramesPublished.Inc()
	w.logger.Debug("frame published", "bytes", len(msg.Value))
	return nil
}

func (w *FrameWriter) Sleep(ctx context.Context) error {
	return w.publish(ctx, commandMessage(w.key, CommandSleep, w.clock.Now()))
}

func (w *FrameWriter) Close() error {
	return w.writer.Close()
}

func (w *FrameWriter) publish(ctx context.Context, msg kafkago.Message) error {
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s command: %w", header(msg, "command"), err)
	}
	return nil
}

// commandMessage builds a lifecycle message without a payload.
func commandMessage(key []byte, command string, at time.Time) kafkago.Message {
	return kafkago.Message{
		Key: key,
		Headers: []kafkago.Header{
			{Key: "command", Value: []byte(command)},
			{Key: "sent_at", Value: []byte(at.UTC().Format(time.RFC3339))},
		},
	}
}

// frameMessage encodes frame into a render message.
func frameMessage(key []byte, frame *image.Paletted, at time.Time) (kafkago.Message, error) {
	data, err := display.EncodePNG(frame)
	if err != nil {
		return kafkago.Message{}, err
	}
	msg := commandMessage(key, CommandRender, at)
	msg.Value = data
	size := frame.Bounds().Size()
	msg.Headers = append(msg.Headers,
		kafkago.Header{Key: "content_type", Value: []byte("image/png")},
		kafkago.Header{Key: "width", Value: []byte(strconv.Itoa(size.X))},
		kafkago.Header{Key: "height", Value: []byte(strconv.Itoa(size.Y))},
	)
	return msg, nil
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
