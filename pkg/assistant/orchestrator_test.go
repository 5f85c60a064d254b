package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-helpdesk-be/pkg/knowledge"
	"ai-helpdesk-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const conformantReply = `{
  "user_response": "Puedes solicitar un monitor adicional desde el portal de equipamiento.",
  "clarifying_questions": [],
  "action": "respond",
  "confidence_level": 0.86,
  "sources": [
    {"doc_id": "POL-RW-2024", "title": "Política de Trabajo Remoto y Equipamiento", "section": "4.2 Equipamiento periférico", "relevance_score": 0.92}
  ],
  "compliance_note": "Alineado con ISO/IEC 27001 A.8.1 (inventario de activos).",
  "escalation": {"method": null, "ticket_id": null, "mail_id": null, "summary": null, "severity": null}
}`

const noRecordsReply = `{
  "user_response": "No encontré registros oficiales sobre el clima. Solo puedo ayudarte con soporte de TI.",
  "clarifying_questions": ["¿Tienes alguna consulta sobre equipos o licencias?"],
  "action": "respond",
  "confidence_level": 0.4,
  "sources": [],
  "compliance_note": "Respuesta conforme a ITIL 4 (gestión de solicitudes).",
  "escalation": {"method": null, "ticket_id": null, "mail_id": null, "summary": null, "severity": null}
}`

type call struct {
	turns []llm.Message
	opts  *llm.Options
}

type fakeGenerator struct {
	mu      sync.Mutex
	replies []func(ctx context.Context) (string, error)
	calls   []call
}

func (f *fakeGenerator) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, call{turns: history, opts: llm.ApplyOptions(llm.Options{}, options...)})
	reply := f.replies[len(f.replies)-1]
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	f.mu.Unlock()
	return reply(ctx)
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func text(s string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return s, nil }
}

func failure(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Endpoint = "http://generator.local"
	cfg.AgentID = "agent-1"
	cfg.APIKey = "secret"
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	return cfg
}

func newTestOrchestrator(t *testing.T, r knowledge.Retriever, gen *fakeGenerator) *Orchestrator {
	t.Helper()
	o, err := New(testConfig(), r, gen, nil)
	require.NoError(t, err)
	return o
}

func TestAnswer_MonitorQuestionAcceptsConformantReply(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text(conformantReply)}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)

	answer, err := o.Answer(context.Background(), "¿Cómo solicito un monitor adicional?", nil)

	require.NoError(t, err)
	assert.Equal(t, ActionRespond, answer.Action)
	assert.NotEmpty(t, answer.Sources)
	assert.Equal(t, "POL-RW-2024", answer.Sources[0].DocID)
	assert.InDelta(t, 0.86, answer.ConfidenceLevel, 1e-9)
	assert.Nil(t, answer.Escalation.Method)

	require.Equal(t, 1, gen.callCount())
	final := gen.calls[0].turns[len(gen.calls[0].turns)-1]
	assert.Contains(t, final.Content, "POL-RW-2024")
	assert.Contains(t, final.Content, "LIC-MS-365")
}

func TestAnswer_SendsSchemaTemperatureAndSystemInstruction(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text(conformantReply)}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)

	_, err := o.Answer(context.Background(), "monitor", nil)
	require.NoError(t, err)

	opts := gen.calls[0].opts
	assert.Equal(t, DefaultTemperature, opts.Temperature)
	require.NotNil(t, opts.ResponseSchema)
	assert.Equal(t, llm.TypeObject, opts.ResponseSchema.Type)
	assert.Contains(t, opts.ResponseSchema.Required, "escalation")
	assert.Equal(t, SystemInstruction, opts.SystemInstruction)
	assert.Contains(t, opts.SystemInstruction, "ISO/IEC 27001")
}

func TestAnswer_NoMatchStillCallsGeneratorWithEmptyContext(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text(noRecordsReply)}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)

	res, err := o.AnswerWithContext(context.Background(), "¿Cuál es el clima hoy?", nil)

	require.NoError(t, err)
	require.Equal(t, 1, gen.callCount())
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Answer.Sources)
	assert.Contains(t, gen.calls[0].turns[0].Content, "CONTEXTO:\n[]")
}

func TestAnswer_EmptyOutputIsGenerationError(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text("")}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)

	answer, err := o.Answer(context.Background(), "monitor", nil)

	require.Error(t, err)
	assert.Nil(t, answer)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.NotErrorIs(t, err, ErrSchemaViolation)
	// first attempt plus the default two retries
	assert.Equal(t, 1+DefaultRetryAttempts, gen.callCount())
}

func TestAnswer_RetriesTransientGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){
		failure(errors.New("503 service unavailable")),
		text(conformantReply),
	}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)

	answer, err := o.Answer(context.Background(), "monitor", nil)

	require.NoError(t, err)
	assert.Equal(t, ActionRespond, answer.Action)
	assert.Equal(t, 2, gen.callCount())
}

func TestAnswer_EachGenerationAttemptGetsASpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	gen := &fakeGenerator{replies: []func(context.Context) (string, error){
		failure(errors.New("503 service unavailable")),
		text(conformantReply),
	}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)
	o.tracer = tp.Tracer("test")

	_, err := o.Answer(context.Background(), "monitor", nil)
	require.NoError(t, err)

	var attempts []sdktrace.ReadOnlySpan
	var root sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		switch s.Name() {
		case "assistant.generate":
			attempts = append(attempts, s)
		case "assistant.answer":
			root = s
		}
	}
	require.NotNil(t, root)
	require.Len(t, attempts, 2)
	assert.Equal(t, codes.Error, attempts[0].Status().Code)
	assert.NotEqual(t, codes.Error, attempts[1].Status().Code)
	for _, a := range attempts {
		assert.Equal(t, root.SpanContext().SpanID(), a.Parent().SpanID())
	}
}

func TestAnswer_SchemaViolationIsNotRetried(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text("Lo siento, no puedo ayudar.")}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)

	_, err := o.Answer(context.Background(), "monitor", nil)

	assert.ErrorIs(t, err, ErrSchemaViolation)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 1, gen.callCount())
}

func TestAnswer_EmptyQuestionMakesNoCalls(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text(conformantReply)}}
	var searched bool
	r := knowledge.RetrieverFunc(func(ctx context.Context, q string) ([]knowledge.Record, error) {
		searched = true
		return nil, nil
	})
	o := newTestOrchestrator(t, r, gen)

	_, err := o.Answer(context.Background(), "  \t\n", nil)

	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.False(t, searched)
	assert.Zero(t, gen.callCount())
}

func TestAnswer_CancelledDuringGeneration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){
		func(c context.Context) (string, error) {
			cancel()
			<-c.Done()
			return "", c.Err()
		},
	}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)

	_, err := o.Answer(ctx, "monitor", nil)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 1, gen.callCount())
}

func TestAnswer_CancelledDuringRetrieval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text(conformantReply)}}
	r := knowledge.RetrieverFunc(func(c context.Context, q string) ([]knowledge.Record, error) {
		cancel()
		return nil, c.Err()
	})
	o := newTestOrchestrator(t, r, gen)

	_, err := o.Answer(ctx, "monitor", nil)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, gen.callCount())
}

func TestAnswer_RetrievalFailureDegradesToEmptyContext(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text(conformantReply)}}
	r := knowledge.RetrieverFunc(func(ctx context.Context, q string) ([]knowledge.Record, error) {
		return nil, knowledge.ErrRetrievalUnavailable
	})
	o := newTestOrchestrator(t, r, gen)

	res, err := o.AnswerWithContext(context.Background(), "monitor", nil)

	require.NoError(t, err)
	assert.Empty(t, res.Records)
	// the reply cites POL-RW-2024 which was not in the (empty) context
	require.Len(t, res.UnverifiedSources, 1)
	assert.Equal(t, "POL-RW-2024", res.UnverifiedSources[0].DocID)
}

func TestAnswer_SlowRetrievalIsBounded(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text(conformantReply)}}
	slow := knowledge.NewBoundedRetriever(knowledge.NewKeywordRetriever(time.Second), 20*time.Millisecond, nil)
	o := newTestOrchestrator(t, slow, gen)

	start := time.Now()
	res, err := o.AnswerWithContext(context.Background(), "monitor", nil)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Empty(t, res.Records)
	assert.Contains(t, gen.calls[0].turns[0].Content, "CONTEXTO:\n[]")
}

func TestAnswer_SendsAtMostSixPriorTurns(t *testing.T) {
	gen := &fakeGenerator{replies: []func(context.Context) (string, error){text(conformantReply)}}
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), gen)

	history := make([]ConversationTurn, 0, 10)
	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, ConversationTurn{Role: role, Text: string(rune('a' + i))})
	}

	_, err := o.Answer(context.Background(), "monitor", history)
	require.NoError(t, err)

	turns := gen.calls[0].turns
	require.Len(t, turns, MaxHistoryTurns+1)
	for i, want := range []string{"e", "f", "g", "h", "i", "j"} {
		assert.Equal(t, want, turns[i].Content)
	}
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Equal(t, llm.RoleAssistant, turns[1].Role)
	assert.Contains(t, turns[MaxHistoryTurns].Content, "PREGUNTA:\nmonitor")
}

func TestContextFor_CopilotLicenseIncludesBothRecords(t *testing.T) {
	o := newTestOrchestrator(t, knowledge.NewKeywordRetriever(0), &fakeGenerator{})

	req, err := o.ContextFor(context.Background(), "¿Necesito licencia para Copilot?", []ConversationTurn{})

	require.NoError(t, err)
	assert.Contains(t, req.Context, "POL-RW-2024")
	assert.Contains(t, req.Context, "LIC-MS-365")
	require.Len(t, req.Turns, 1)
	assert.True(t, strings.HasSuffix(req.Turns[0].Content, "¿Necesito licencia para Copilot?"))
}

func TestNew_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }},
		{"missing agent", func(c *Config) { c.AgentID = " " }},
		{"missing key", func(c *Config) { c.APIKey = "" }},
		{"negative retries", func(c *Config) { c.RetryAttempts = -1 }},
		{"temperature out of range", func(c *Config) { c.Temperature = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, knowledge.StaticRetriever{}, &fakeGenerator{}, nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNew_OllamaNeedsNoKey(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = "ollama"
	cfg.APIKey = ""

	o, err := New(cfg, knowledge.StaticRetriever{}, nil, nil)

	require.NoError(t, err)
	assert.NotNil(t, o.generator)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = "watson"

	_, err := New(cfg, knowledge.StaticRetriever{}, nil, nil)

	assert.ErrorIs(t, err, ErrInvalidConfig)
}
