package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	BillEventsQueue = "bill_events"
)

// BillGeneratedEvent notifies downstream services (notifications, customer
// portal) that a bill exists.
type BillGeneratedEvent struct {
	BillID      uuid.UUID `json:"bill_id"`
	MeterID     uuid.UUID `json:"meter_id"`
	PeriodEnd   time.Time `json:"period_end"`
	DueDate     time.Time `json:"due_date"`
	TotalAmount float64   `json:"total_amount"`
	GeneratedAt time.Time `json:"generated_at"`
}

// BillEventPublisher publishes bill lifecycle events to RabbitMQ.
type BillEventPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
}

func NewBillEventPublisher(conn *RabbitMQConnection) *BillEventPublisher {
	return &BillEventPublisher{conn: conn}
}

// PublishBillGenerated publishes a bill generated event to the bill_events
// queue.
func (p *BillEventPublisher) PublishBillGenerated(ctx context.Context, bill *models.Bill) error {
	_, err := p.conn.Channel.QueueDeclare(
		BillEventsQueue, // queue name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	event := BillGeneratedEvent{
		BillID:      bill.ID,
		MeterID:     bill.MeterID,
		PeriodEnd:   bill.BillingPeriodEnd,
		DueDate:     bill.DueDate,
		TotalAmount: bill.TotalAmount,
		GeneratedAt: time.Now(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal bill generated event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",              // exchange
		BillEventsQueue, // routing key (queue name)
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish bill generated event: %w", err)
	}

	p.messagesPublished++
	slog.Info("Published bill generated event", "bill_id", bill.ID, "queue", BillEventsQueue)
	return nil
}
