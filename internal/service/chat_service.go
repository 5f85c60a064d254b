package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/repository/contract"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/assistant"
	"ai-helpdesk-be/pkg/events"
	"ai-helpdesk-be/pkg/knowledge"

	"github.com/google/uuid"
)

const (
	chatModule = "ChatService"

	// GreetingText opens every session.
	GreetingText = "Hola, soy el asistente de soporte TI. Cuéntame qué necesitas y te ayudaré con base en las políticas vigentes."
)

var (
	ErrMessageNotFound     = errors.New("message not found")
	ErrMessageNotRetryable = errors.New("only failed messages can be retried")
)

// MessageFailedError reports an exchange whose question was kept in the session with status
// failed. MessageId is what the client passes to Retry.
type MessageFailedError struct {
	MessageId uuid.UUID
	Err       error
}

func (e *MessageFailedError) Error() string {
	return fmt.Sprintf("message %s failed: %v", e.MessageId, e.Err)
}

func (e *MessageFailedError) Unwrap() error {
	return e.Err
}

// Answerer is the slice of the orchestrator the chat service depends on.
type Answerer interface {
	AnswerWithContext(ctx context.Context, question string, history []assistant.ConversationTurn) (*assistant.Result, error)
}

type IChatService interface {
	CreateSession(ctx context.Context) (*dto.SessionResponse, error)
	History(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error)
	SendMessage(ctx context.Context, sessionId uuid.UUID, req *dto.SendMessageRequest) (*dto.ExchangeResponse, error)
	Retry(ctx context.Context, sessionId, messageId uuid.UUID) (*dto.ExchangeResponse, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
}

type chatService struct {
	answerer      Answerer
	conversations contract.ConversationRepository
	uowFactory    unitofwork.RepositoryFactory // nil without a database
	publisher     IPublisherService            // nil disables escalation events
	logger        logger.ILogger

	// one exchange at a time per session
	locks sync.Map
}

func NewChatService(
	answerer Answerer,
	conversations contract.ConversationRepository,
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		answerer:      answerer,
		conversations: conversations,
		uowFactory:    uowFactory,
		publisher:     publisher,
		logger:        log,
	}
}

func (s *chatService) lock(sessionId uuid.UUID) func() {
	m, _ := s.locks.LoadOrStore(sessionId, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *chatService) CreateSession(ctx context.Context) (*dto.SessionResponse, error) {
	now := time.Now()
	conversation := &entity.Conversation{
		Id: uuid.New(),
		Messages: []*entity.ConversationMessage{{
			Id:        uuid.New(),
			Role:      assistant.RoleAssistant,
			Text:      GreetingText,
			Status:    entity.MessageDelivered,
			Greeting:  true,
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.conversations.Save(ctx, conversation); err != nil {
		return nil, err
	}

	s.logger.Info(chatModule, "Session created", map[string]interface{}{"session_id": conversation.Id})
	return toSessionResponse(conversation), nil
}

func (s *chatService) History(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	conversation, err := s.conversations.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(conversation), nil
}

func (s *chatService) SendMessage(ctx context.Context, sessionId uuid.UUID, req *dto.SendMessageRequest) (*dto.ExchangeResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, assistant.ErrEmptyQuestion
	}

	unlock := s.lock(sessionId)
	defer unlock()

	conversation, err := s.conversations.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	question := &entity.ConversationMessage{
		Id:        uuid.New(),
		Role:      assistant.RoleUser,
		Text:      text,
		Status:    entity.MessagePending,
		CreatedAt: time.Now(),
	}
	// History is taken before the new question joins the session.
	history := conversation.Turns()
	conversation.Messages = append(conversation.Messages, question)

	if err := s.conversations.Save(ctx, conversation); err != nil {
		return nil, err
	}

	return s.exchange(ctx, conversation, question, history)
}

func (s *chatService) Retry(ctx context.Context, sessionId, messageId uuid.UUID) (*dto.ExchangeResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	conversation, err := s.conversations.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	question := conversation.FindMessage(messageId)
	if question == nil || question.Role != assistant.RoleUser {
		return nil, ErrMessageNotFound
	}
	if question.Status != entity.MessageFailed {
		return nil, ErrMessageNotRetryable
	}

	// The retried question moves to the end so its reply follows it.
	remaining := conversation.Messages[:0]
	for _, m := range conversation.Messages {
		if m.Id != messageId {
			remaining = append(remaining, m)
		}
	}
	history := conversation.Turns()

	question.Status = entity.MessagePending
	question.ErrorKind = ""
	conversation.Messages = append(remaining, question)

	if err := s.conversations.Save(ctx, conversation); err != nil {
		return nil, err
	}

	s.logger.Info(chatModule, "Retrying failed message", map[string]interface{}{
		"session_id": sessionId,
		"message_id": messageId,
	})
	return s.exchange(ctx, conversation, question, history)
}

func (s *chatService) exchange(
	ctx context.Context,
	conversation *entity.Conversation,
	question *entity.ConversationMessage,
	history []assistant.ConversationTurn,
) (*dto.ExchangeResponse, error) {
	started := time.Now()
	res, err := s.answerer.AnswerWithContext(ctx, question.Text, history)
	s.recordInteraction(ctx, &conversation.Id, &question.Id, question.Text, res, err, time.Since(started))

	// The outcome is stored even when the caller has gone away.
	saveCtx := context.WithoutCancel(ctx)

	if err != nil {
		question.Status = entity.MessageFailed
		question.ErrorKind = errorKind(err)
		conversation.UpdatedAt = time.Now()
		if saveErr := s.conversations.Save(saveCtx, conversation); saveErr != nil {
			s.logger.Error(chatModule, "Failed to store failed message", map[string]interface{}{
				"session_id": conversation.Id,
				"error":      saveErr,
			})
		}
		return nil, &MessageFailedError{MessageId: question.Id, Err: err}
	}

	question.Status = entity.MessageDelivered
	reply := &entity.ConversationMessage{
		Id:                uuid.New(),
		Role:              assistant.RoleAssistant,
		Text:              res.Answer.UserResponse,
		Status:            entity.MessageDelivered,
		Answer:            res.Answer,
		UnverifiedSources: res.UnverifiedSources,
		CreatedAt:         time.Now(),
	}
	conversation.Messages = append(conversation.Messages, reply)
	conversation.UpdatedAt = reply.CreatedAt

	if err := s.conversations.Save(saveCtx, conversation); err != nil {
		// The stored copy still holds the question as pending; mark it failed so it can be retried.
		conversation.Messages = conversation.Messages[:len(conversation.Messages)-1]
		question.Status = entity.MessageFailed
		question.ErrorKind = "storage"
		if saveErr := s.conversations.Save(saveCtx, conversation); saveErr != nil {
			s.logger.Error(chatModule, "Failed to store failed message", map[string]interface{}{
				"session_id": conversation.Id,
				"error":      saveErr,
			})
		}
		return nil, &MessageFailedError{MessageId: question.Id, Err: err}
	}

	s.raiseEscalation(ctx, conversation.Id.String(), question, res.Answer)

	return &dto.ExchangeResponse{
		SessionId: conversation.Id,
		Question:  toMessageResponse(question),
		Reply:     toMessageResponse(reply),
	}, nil
}

func (s *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	unlock := s.lock(sessionId)
	defer unlock()

	if err := s.conversations.Delete(ctx, sessionId); err != nil {
		return err
	}
	s.locks.Delete(sessionId)
	s.logger.Info(chatModule, "Session deleted", map[string]interface{}{"session_id": sessionId})
	return nil
}

func (s *chatService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	history := make([]assistant.ConversationTurn, 0, len(req.History))
	for _, t := range req.History {
		history = append(history, assistant.ConversationTurn{Role: assistant.Role(t.Role), Text: t.Text})
	}

	started := time.Now()
	res, err := s.answerer.AnswerWithContext(ctx, req.Question, history)
	s.recordInteraction(ctx, nil, nil, req.Question, res, err, time.Since(started))
	if err != nil {
		return nil, err
	}

	s.raiseEscalation(ctx, "", &entity.ConversationMessage{Text: req.Question}, res.Answer)

	return &dto.AskResponse{
		Answer:            res.Answer,
		ContextDocIds:     docIds(res.Records),
		UnverifiedSources: res.UnverifiedSources,
	}, nil
}

func (s *chatService) raiseEscalation(ctx context.Context, sessionId string, question *entity.ConversationMessage, answer *assistant.StructuredAnswer) {
	if s.publisher == nil || !answer.Action.IsEscalation() {
		return
	}

	evt := events.EscalationRequested{
		EscalationId: uuid.NewString(),
		SessionId:    sessionId,
		Question:     question.Text,
		Response:     answer.UserResponse,
		Action:       string(answer.Action),
		Method:       string(escalationMethod(answer)),
		Summary:      deref(answer.Escalation.Summary),
		TicketId:     deref(answer.Escalation.TicketID),
		MailId:       deref(answer.Escalation.MailID),
		SourceDocIds: make([]string, 0, len(answer.Sources)),
		OccurredAt:   time.Now().UTC(),
	}
	if question.Id != uuid.Nil {
		evt.MessageId = question.Id.String()
	}
	if answer.Escalation.Severity != nil {
		evt.Severity = string(*answer.Escalation.Severity)
	}
	for _, src := range answer.Sources {
		evt.SourceDocIds = append(evt.SourceDocIds, src.DocID)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error(chatModule, "Failed to marshal escalation", map[string]interface{}{"error": err})
		return
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Error(chatModule, "Failed to publish escalation", map[string]interface{}{
			"escalation_id": evt.EscalationId,
			"error":         err,
		})
		return
	}
	s.logger.Info(chatModule, "Escalation requested", map[string]interface{}{
		"escalation_id": evt.EscalationId,
		"method":        evt.Method,
		"severity":      evt.Severity,
	})
}

// escalationMethod falls back to the action when the model left the method null.
func escalationMethod(answer *assistant.StructuredAnswer) assistant.EscalationMethod {
	if answer.Escalation.Method != nil {
		return *answer.Escalation.Method
	}
	if answer.Action == assistant.ActionEscalateToMail {
		return assistant.EscalationMail
	}
	return assistant.EscalationDesk
}

func (s *chatService) recordInteraction(
	ctx context.Context,
	sessionId, messageId *uuid.UUID,
	question string,
	res *assistant.Result,
	answerErr error,
	latency time.Duration,
) {
	if s.uowFactory == nil {
		return
	}

	interaction := &entity.Interaction{
		Id:        uuid.New(),
		SessionId: sessionId,
		MessageId: messageId,
		Question:  question,
		Status:    entity.InteractionAnswered,
		Latency:   latency,
		CreatedAt: time.Now(),
	}
	if answerErr != nil {
		interaction.Status = entity.InteractionFailed
		interaction.ErrorKind = errorKind(answerErr)
	}
	if res != nil {
		interaction.Answer = res.Answer
		interaction.ContextDocIds = docIds(res.Records)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.InteractionRepository().Create(context.WithoutCancel(ctx), interaction); err != nil {
		s.logger.Warn(chatModule, "Failed to record interaction", map[string]interface{}{"error": err})
	}
}

// errorKind names the failure class for storage and the client.
func errorKind(err error) string {
	switch {
	case errors.Is(err, assistant.ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, assistant.ErrGeneration):
		return "generation"
	case errors.Is(err, assistant.ErrCancelled):
		return "cancelled"
	case errors.Is(err, assistant.ErrEmptyQuestion):
		return "empty_question"
	default:
		return "internal"
	}
}

func docIds(records []knowledge.Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.DocID)
	}
	return ids
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toMessageResponse(m *entity.ConversationMessage) dto.MessageResponse {
	return dto.MessageResponse{
		Id:                m.Id,
		Role:              string(m.Role),
		Text:              m.Text,
		Status:            string(m.Status),
		Greeting:          m.Greeting,
		Answer:            m.Answer,
		UnverifiedSources: m.UnverifiedSources,
		CreatedAt:         m.CreatedAt,
	}
}

func toSessionResponse(c *entity.Conversation) *dto.SessionResponse {
	messages := make([]dto.MessageResponse, 0, len(c.Messages))
	for _, m := range c.Messages {
		messages = append(messages, toMessageResponse(m))
	}
	return &dto.SessionResponse{
		Id:        c.Id,
		Messages:  messages,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
