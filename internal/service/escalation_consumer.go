package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/pkg/mailer"
	"ai-helpdesk-be/pkg/assistant"
	"ai-helpdesk-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sethvargo/go-retry"
)

const escalationModule = "EscalationConsumer"

// EventPublisher forwards events to the ticketing integration.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// DeskNotifier pushes a message to the connected desk agents.
type DeskNotifier interface {
	Broadcast(ctx context.Context, messageType string, data interface{}) error
}

type IEscalationConsumer interface {
	Consume(ctx context.Context) error
}

type escalationConsumer struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	email       mailer.IEmailService
	deskMailbox string
	eventBus    EventPublisher // nil without NATS
	desk        DeskNotifier
	logger      logger.ILogger

	attempts  uint64
	baseDelay time.Duration
}

func NewEscalationConsumer(
	pubSub *gochannel.GoChannel,
	topicName string,
	email mailer.IEmailService,
	deskMailbox string,
	eventBus EventPublisher,
	desk DeskNotifier,
	log logger.ILogger,
) IEscalationConsumer {
	return &escalationConsumer{
		pubSub:      pubSub,
		topicName:   topicName,
		email:       email,
		deskMailbox: deskMailbox,
		eventBus:    eventBus,
		desk:        desk,
		logger:      log,
		attempts:    3,
		baseDelay:   500 * time.Millisecond,
	}
}

func (c *escalationConsumer) Consume(ctx context.Context) error {
	messages, err := c.pubSub.Subscribe(ctx, c.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	c.logger.Info(escalationModule, "Listening for escalations", map[string]interface{}{"topic": c.topicName})
	return nil
}

func (c *escalationConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var evt events.EscalationRequested
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		c.logger.Error(escalationModule, "Failed to unmarshal escalation", map[string]interface{}{"error": err})
		msg.Ack() // will never parse
		return
	}

	var err error
	switch assistant.EscalationMethod(evt.Method) {
	case assistant.EscalationMail:
		err = c.withRetry(ctx, func() error { return c.sendMail(evt) })
	default:
		err = c.withRetry(ctx, func() error { return c.notifyDesk(ctx, evt) })
	}

	if err != nil {
		if ctx.Err() != nil {
			msg.Nack()
			return
		}
		// Retries are spent; redelivering would spin on the same failure.
		c.logger.Error(escalationModule, "Escalation could not be delivered", map[string]interface{}{
			"escalation_id": evt.EscalationId,
			"method":        evt.Method,
			"error":         err,
		})
		msg.Ack()
		return
	}

	c.logger.Info(escalationModule, "Escalation delivered", map[string]interface{}{
		"escalation_id": evt.EscalationId,
		"method":        evt.Method,
		"severity":      evt.Severity,
	})
	msg.Ack()
}

func (c *escalationConsumer) withRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(c.attempts-1, retry.NewExponential(c.baseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (c *escalationConsumer) sendMail(evt events.EscalationRequested) error {
	return c.email.SendEscalation(mailer.EscalationMail{
		To:           c.deskMailbox,
		EscalationId: evt.EscalationId,
		Severity:     evt.Severity,
		Summary:      evt.Summary,
		Question:     evt.Question,
		Response:     evt.Response,
		SourceDocIds: evt.SourceDocIds,
	})
}

// notifyDesk hands desk escalations to the event bus, whose desk-feed subscriber reaches the
// agents. Without a bus the feed is notified directly.
func (c *escalationConsumer) notifyDesk(ctx context.Context, evt events.EscalationRequested) error {
	if c.eventBus != nil {
		return c.eventBus.Publish(ctx, evt)
	}
	return c.desk.Broadcast(ctx, DeskMessageEscalation, evt.Payload())
}
