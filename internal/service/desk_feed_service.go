package service

import (
	"context"

	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/pkg/events"
	pktNats "ai-helpdesk-be/pkg/nats"
)

const (
	deskFeedModule  = "DeskFeedService"
	deskFeedDurable = "desk-feed"

	DeskMessageEscalation = "escalation"
)

// EventSubscriber is the durable side of the event bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// DeskFeedService relays escalation events from the bus to the desk agents' websocket feed.
type DeskFeedService struct {
	subscriber EventSubscriber
	delivery   DeskNotifier
	logger     logger.ILogger
	deskLog    logger.ILogger
}

// NewDeskFeedService takes a separate desk logger so the hand-off trail can be audited on its own.
func NewDeskFeedService(sub EventSubscriber, delivery DeskNotifier, log, deskLog logger.ILogger) *DeskFeedService {
	if deskLog == nil {
		deskLog = log
	}
	return &DeskFeedService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
		deskLog:    deskLog,
	}
}

func (s *DeskFeedService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, events.EscalationRequestedType, deskFeedDurable, s.handleEvent); err != nil {
		s.logger.Error(deskFeedModule, "Failed to start desk feed subscriber", map[string]interface{}{"error": err})
		return err
	}
	s.logger.Info(deskFeedModule, "Desk feed started", map[string]interface{}{"event_type": events.EscalationRequestedType})
	return nil
}

func (s *DeskFeedService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	s.deskLog.Info(deskFeedModule, "Escalation handed to desk", map[string]interface{}{
		"escalation_id": payload["escalation_id"],
		"severity":      payload["severity"],
		"session_id":    payload["session_id"],
	})

	// Broadcast only fails before any agent got the message, so redelivery cannot duplicate it.
	return s.delivery.Broadcast(ctx, DeskMessageEscalation, payload)
}
