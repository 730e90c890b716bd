package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"billing-service/internal/models"
	"billing-service/internal/services"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MeterReadingEventsQueue = "meter_reading_events"
)

// MeterReadingCreatedEvent is what the readings service publishes whenever a
// reading is recorded. Options are optional per-reading billing overrides.
type MeterReadingCreatedEvent struct {
	Reading models.MeterReading        `json:"reading"`
	Options models.GenerateBillOptions `json:"options"`
}

// ReadingConsumer consumes meter reading events and hands them to the auto
// bill trigger. The trigger swallows every billing failure, so a message is
// only ever Nacked when it cannot be decoded at all.
type ReadingConsumer struct {
	conn    *RabbitMQConnection
	trigger *services.AutoBillTrigger
}

func NewReadingConsumer(conn *RabbitMQConnection, trigger *services.AutoBillTrigger) *ReadingConsumer {
	return &ReadingConsumer{
		conn:    conn,
		trigger: trigger,
	}
}

// Start begins consuming meter reading events.
func (c *ReadingConsumer) Start(ctx context.Context) error {
	_, err := c.conn.Channel.QueueDeclare(
		MeterReadingEventsQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	msgs, err := c.conn.Channel.Consume(
		MeterReadingEventsQueue,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (we ack after the trigger ran)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	slog.Info("Meter reading consumer started", "queue", MeterReadingEventsQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("Meter reading consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Warn("Meter reading consumer channel closed")
					return
				}
				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *ReadingConsumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event MeterReadingCreatedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		slog.Error("failed to unmarshal meter reading event", "error", err)
		// Malformed message, drop without requeue.
		msg.Nack(false, false)
		return
	}

	slog.Info("Received meter reading event",
		"reading_id", event.Reading.ID,
		"meter_id", event.Reading.MeterID,
		"reading_date", event.Reading.ReadingDate,
		"source", event.Reading.Source,
	)

	result := c.trigger.HandleReadingRecorded(ctx, event.Reading, event.Options)

	// The trigger never propagates billing failures; every decoded message
	// is done after one run. Requeueing would only re-run an identical
	// evaluation against the same data.
	msg.Ack(false)

	slog.Info("Meter reading event processed",
		"reading_id", event.Reading.ID,
		"state", result.State,
		"reason", result.Reason,
	)
}
