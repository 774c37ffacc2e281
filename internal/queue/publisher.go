package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrBrokerUnavailable is returned while the publisher waits out the
// cooldown after a failed connection attempt.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

const defaultCooldown = 10 * time.Second

// Publisher publishes recipe events to RabbitMQ over one long-lived channel.
// After a failed dial it fails fast until Cooldown has passed, so writes do
// not each wait on an unreachable broker.
type Publisher struct {
	URL      string
	Cooldown time.Duration

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url, Cooldown: defaultCooldown}
}

// PublishRecipeEvent sends ev to the recipe events queue as a persistent
// JSON message.
func (p *Publisher) PublishRecipeEvent(ctx context.Context, ev RecipeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         "recipe." + ev.Action,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", RecipeQueueName, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close releases the connection.  A later publish reconnects.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// channel returns the open channel, dialing when there is none.  Callers
// hold p.mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if wait := time.Until(p.retryAt); wait > 0 {
		return nil, fmt.Errorf("%w: retry in %s", ErrBrokerUnavailable, wait.Round(time.Millisecond))
	}

	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout(ctx)),
	})
	if err != nil {
		p.backOff()
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.backOff()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := declareRecipeQueue(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		p.backOff()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) backOff() {
	cooldown := p.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	p.retryAt = time.Now().Add(cooldown)
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// declareRecipeQueue makes sure the durable queue exists (idempotent).
func declareRecipeQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(RecipeQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}

// dialTimeout bounds the TCP dial by ctx's deadline, or 5s without one.
func dialTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
		return time.Millisecond
	}
	return 5 * time.Second
}
