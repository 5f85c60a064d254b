package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/repository/contract"
	"ai-helpdesk-be/internal/repository/memory"
	"ai-helpdesk-be/pkg/assistant"
	"ai-helpdesk-be/pkg/events"
	"ai-helpdesk-be/pkg/knowledge"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerCall struct {
	question string
	history  []assistant.ConversationTurn
}

type fakeAnswerer struct {
	mu      sync.Mutex
	calls   []answerCall
	results []func() (*assistant.Result, error)
}

func (f *fakeAnswerer) AnswerWithContext(ctx context.Context, question string, history []assistant.ConversationTurn) (*assistant.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, answerCall{question: question, history: append([]assistant.ConversationTurn(nil), history...)})
	i := len(f.calls) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]()
}

func answered(a *assistant.StructuredAnswer, records ...knowledge.Record) func() (*assistant.Result, error) {
	return func() (*assistant.Result, error) {
		return &assistant.Result{Answer: a, Records: records}, nil
	}
}

func failed(err error) func() (*assistant.Result, error) {
	return func() (*assistant.Result, error) { return nil, err }
}

func respond(text string) *assistant.StructuredAnswer {
	return &assistant.StructuredAnswer{
		UserResponse:        text,
		ClarifyingQuestions: []string{},
		Action:              assistant.ActionRespond,
		ConfidenceLevel:     0.9,
		Sources:             []assistant.Source{},
	}
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func newChatService(answerer Answerer, pub IPublisherService) (IChatService, contract.ConversationRepository) {
	repo := memory.NewConversationRepository(time.Hour)
	return NewChatService(answerer, repo, nil, pub, logger.NewNopLogger()), repo
}

func TestChatService_CreateSessionStartsWithGreeting(t *testing.T) {
	svc, _ := newChatService(&fakeAnswerer{}, nil)

	session, err := svc.CreateSession(context.Background())

	require.NoError(t, err)
	require.Len(t, session.Messages, 1)
	assert.True(t, session.Messages[0].Greeting)
	assert.Equal(t, string(assistant.RoleAssistant), session.Messages[0].Role)
	assert.Equal(t, GreetingText, session.Messages[0].Text)
}

func TestChatService_SendMessageStoresExchange(t *testing.T) {
	ans := &fakeAnswerer{results: []func() (*assistant.Result, error){
		answered(respond("Reinicia el monitor.")),
		answered(respond("Revisa el cable.")),
	}}
	svc, _ := newChatService(ans, nil)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	first, err := svc.SendMessage(ctx, session.Id, &dto.SendMessageRequest{Text: "  Mi monitor no enciende  "})
	require.NoError(t, err)
	assert.Equal(t, "Mi monitor no enciende", first.Question.Text)
	assert.Equal(t, string(entity.MessageDelivered), first.Question.Status)
	assert.Equal(t, "Reinicia el monitor.", first.Reply.Text)
	require.NotNil(t, first.Reply.Answer)

	_, err = svc.SendMessage(ctx, session.Id, &dto.SendMessageRequest{Text: "Sigue igual"})
	require.NoError(t, err)

	require.Len(t, ans.calls, 2)
	assert.Empty(t, ans.calls[0].history, "the greeting is not history")
	assert.Equal(t, []assistant.ConversationTurn{
		{Role: assistant.RoleUser, Text: "Mi monitor no enciende"},
		{Role: assistant.RoleAssistant, Text: "Reinicia el monitor."},
	}, ans.calls[1].history)

	history, err := svc.History(ctx, session.Id)
	require.NoError(t, err)
	assert.Len(t, history.Messages, 5)
}

func TestChatService_FailedMessageIsKeptAndRetryable(t *testing.T) {
	genErr := &assistant.AnswerError{Kind: assistant.ErrGeneration, Reason: "empty output"}
	ans := &fakeAnswerer{results: []func() (*assistant.Result, error){
		answered(respond("Hola.")),
		failed(genErr),
		answered(respond("Tu licencia se renueva en marzo.")),
	}}
	svc, _ := newChatService(ans, nil)
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx)
	_, err := svc.SendMessage(ctx, session.Id, &dto.SendMessageRequest{Text: "Hola"})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, session.Id, &dto.SendMessageRequest{Text: "¿Cuándo vence Copilot?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assistant.ErrGeneration)

	var failedErr *MessageFailedError
	require.True(t, errors.As(err, &failedErr))

	history, err := svc.History(ctx, session.Id)
	require.NoError(t, err)
	last := history.Messages[len(history.Messages)-1]
	assert.Equal(t, failedErr.MessageId, last.Id)
	assert.Equal(t, string(entity.MessageFailed), last.Status)
	assert.Equal(t, "¿Cuándo vence Copilot?", last.Text)

	res, err := svc.Retry(ctx, session.Id, failedErr.MessageId)
	require.NoError(t, err)
	assert.Equal(t, failedErr.MessageId, res.Question.Id)
	assert.Equal(t, string(entity.MessageDelivered), res.Question.Status)
	assert.Equal(t, "Tu licencia se renueva en marzo.", res.Reply.Text)

	require.Len(t, ans.calls, 3)
	assert.Equal(t, "¿Cuándo vence Copilot?", ans.calls[2].question)
	assert.Len(t, ans.calls[2].history, 2, "the failed attempt is not part of the history")

	history, _ = svc.History(ctx, session.Id)
	require.Len(t, history.Messages, 5)
	assert.Equal(t, failedErr.MessageId, history.Messages[3].Id)
	assert.Equal(t, res.Reply.Id, history.Messages[4].Id)
}

// flakyConversations fails the save with the given ordinal (1-based) once.
type flakyConversations struct {
	contract.ConversationRepository
	failOn int
	saves  int
}

func (f *flakyConversations) Save(ctx context.Context, conversation *entity.Conversation) error {
	f.saves++
	if f.saves == f.failOn {
		return errors.New("redis: connection reset")
	}
	return f.ConversationRepository.Save(ctx, conversation)
}

func TestChatService_ReplyStoreFailureLeavesQuestionRetryable(t *testing.T) {
	ans := &fakeAnswerer{results: []func() (*assistant.Result, error){
		answered(respond("Reinicia el monitor.")),
	}}
	// saves: session, pending question, reply
	repo := &flakyConversations{ConversationRepository: memory.NewConversationRepository(time.Hour), failOn: 3}
	svc := NewChatService(ans, repo, nil, nil, logger.NewNopLogger())
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, session.Id, &dto.SendMessageRequest{Text: "Mi monitor no enciende"})
	var failedErr *MessageFailedError
	require.True(t, errors.As(err, &failedErr))

	history, err := svc.History(ctx, session.Id)
	require.NoError(t, err)
	require.Len(t, history.Messages, 2, "no reply is stored")
	assert.Equal(t, failedErr.MessageId, history.Messages[1].Id)
	assert.Equal(t, string(entity.MessageFailed), history.Messages[1].Status)

	res, err := svc.Retry(ctx, session.Id, failedErr.MessageId)
	require.NoError(t, err)
	assert.Equal(t, "Reinicia el monitor.", res.Reply.Text)
}

func TestChatService_RetryRejectsDeliveredAndUnknownMessages(t *testing.T) {
	ans := &fakeAnswerer{results: []func() (*assistant.Result, error){answered(respond("ok"))}}
	svc, _ := newChatService(ans, nil)
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx)
	exchange, err := svc.SendMessage(ctx, session.Id, &dto.SendMessageRequest{Text: "hola"})
	require.NoError(t, err)

	_, err = svc.Retry(ctx, session.Id, exchange.Question.Id)
	assert.ErrorIs(t, err, ErrMessageNotRetryable)

	_, err = svc.Retry(ctx, session.Id, uuid.New())
	assert.ErrorIs(t, err, ErrMessageNotFound)

	_, err = svc.Retry(ctx, session.Id, exchange.Reply.Id)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestChatService_UnknownSessionAndEmptyText(t *testing.T) {
	svc, _ := newChatService(&fakeAnswerer{}, nil)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, uuid.New(), &dto.SendMessageRequest{Text: "hola"})
	assert.ErrorIs(t, err, contract.ErrConversationNotFound)

	session, _ := svc.CreateSession(ctx)
	_, err = svc.SendMessage(ctx, session.Id, &dto.SendMessageRequest{Text: "   "})
	assert.ErrorIs(t, err, assistant.ErrEmptyQuestion)
}

func TestChatService_DeleteSession(t *testing.T) {
	svc, _ := newChatService(&fakeAnswerer{}, nil)
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx)
	require.NoError(t, svc.DeleteSession(ctx, session.Id))

	_, err := svc.History(ctx, session.Id)
	assert.ErrorIs(t, err, contract.ErrConversationNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, session.Id), contract.ErrConversationNotFound)
}

func TestChatService_EscalationIsPublished(t *testing.T) {
	severity := assistant.SeverityP2
	summary := "Pantalla azul recurrente"
	escalate := respond("Escalo tu caso a la mesa de ayuda.")
	escalate.Action = assistant.ActionEscalateToDesk
	escalate.Escalation = assistant.Escalation{Severity: &severity, Summary: &summary}
	escalate.Sources = []assistant.Source{{DocID: "POL-RW-2024"}}

	pub := &recordingPublisher{}
	ans := &fakeAnswerer{results: []func() (*assistant.Result, error){answered(escalate)}}
	svc, _ := newChatService(ans, pub)
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx)
	exchange, err := svc.SendMessage(ctx, session.Id, &dto.SendMessageRequest{Text: "Pantalla azul otra vez"})
	require.NoError(t, err)

	require.Len(t, pub.payloads, 1)
	var evt events.EscalationRequested
	require.NoError(t, json.Unmarshal(pub.payloads[0], &evt))
	assert.Equal(t, session.Id.String(), evt.SessionId)
	assert.Equal(t, exchange.Question.Id.String(), evt.MessageId)
	assert.Equal(t, string(assistant.EscalationDesk), evt.Method, "method falls back to the action")
	assert.Equal(t, "P2", evt.Severity)
	assert.Equal(t, summary, evt.Summary)
	assert.Equal(t, []string{"POL-RW-2024"}, evt.SourceDocIds)
}

func TestChatService_RespondIsNotEscalated(t *testing.T) {
	pub := &recordingPublisher{}
	ans := &fakeAnswerer{results: []func() (*assistant.Result, error){answered(respond("ok"))}}
	svc, _ := newChatService(ans, pub)

	_, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "hola"})
	require.NoError(t, err)
	assert.Empty(t, pub.payloads)
}

func TestChatService_AskPassesCallerHistory(t *testing.T) {
	records := []knowledge.Record{{DocID: "POL-RW-2024"}, {DocID: "LIC-MS-365"}}
	ans := &fakeAnswerer{results: []func() (*assistant.Result, error){answered(respond("ok"), records...)}}
	svc, _ := newChatService(ans, nil)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{
		Question: "¿Copilot está incluido en mi licencia?",
		History: []dto.TurnRequest{
			{Role: "user", Text: "hola"},
			{Role: "assistant", Text: "¿en qué te ayudo?"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"POL-RW-2024", "LIC-MS-365"}, res.ContextDocIds)
	require.Len(t, ans.calls, 1)
	assert.Equal(t, assistant.RoleAssistant, ans.calls[0].history[1].Role)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "schema_violation", errorKind(&assistant.AnswerError{Kind: assistant.ErrSchemaViolation}))
	assert.Equal(t, "cancelled", errorKind(&assistant.AnswerError{Kind: assistant.ErrCancelled}))
	assert.Equal(t, "internal", errorKind(errors.New("boom")))
}
