package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	Exchange            = "quiz.events"
	SubmittedRoutingKey = "quiz.submitted"
)

// AMQPNotifier publishes submission events to a topic exchange so services
// other than the socket hub can observe them.
type AMQPNotifier struct {
	conn *amqp.Connection

	mu sync.Mutex
	ch *amqp.Channel
}

func DialAMQP(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPNotifier{conn: conn, ch: ch}, nil
}

func (n *AMQPNotifier) Emit(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch == nil || n.ch.IsClosed() {
		return ErrNotConnected
	}

	return n.ch.PublishWithContext(ctx, Exchange, SubmittedRoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        EventQuizSubmitted,
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
