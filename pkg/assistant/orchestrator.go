package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/pkg/knowledge"
	"ai-helpdesk-be/pkg/llm"
	"ai-helpdesk-be/pkg/llm/factory"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTemperature    = 0.2
	DefaultRetryAttempts  = 2
	DefaultRetryBaseDelay = 250 * time.Millisecond
	DefaultRetryMaxDelay  = 2 * time.Second
	DefaultTimeout        = 60 * time.Second

	retryJitter = 50 * time.Millisecond
	moduleName  = "Assistant"
)

// Config is read once at construction time.
type Config struct {
	Endpoint string
	AgentID  string
	APIKey   string
	Provider string
	Model    string

	Temperature   float64
	HistoryWindow int

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Timeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Provider:       "gemini",
		Temperature:    DefaultTemperature,
		HistoryWindow:  MaxHistoryTurns,
		RetryAttempts:  DefaultRetryAttempts,
		RetryBaseDelay: DefaultRetryBaseDelay,
		RetryMaxDelay:  DefaultRetryMaxDelay,
		Timeout:        DefaultTimeout,
	}
}

func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Endpoint) == "" {
		problems = append(problems, "endpoint is required")
	}
	if strings.TrimSpace(c.AgentID) == "" {
		problems = append(problems, "agent id is required")
	}
	// A local ollama server has no key.
	if strings.TrimSpace(c.APIKey) == "" && c.Provider != "ollama" {
		problems = append(problems, "api key is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		problems = append(problems, "temperature must be within [0, 2]")
	}
	if c.RetryAttempts < 0 {
		problems = append(problems, "retry attempts cannot be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Result is an answer together with the context it was grounded on.
type Result struct {
	Answer            *StructuredAnswer
	Records           []knowledge.Record
	UnverifiedSources []Source
}

// Orchestrator answers one question per call. It holds no per-request state, so a single
// instance serves concurrent callers.
type Orchestrator struct {
	cfg       Config
	retriever knowledge.Retriever
	generator llm.LLMProvider
	schema    *llm.Schema
	logger    logger.ILogger
	tracer    trace.Tracer
}

// New validates cfg and wires the collaborators. A nil generator is built from cfg through the
// provider factory.
func New(cfg Config, retriever knowledge.Retriever, generator llm.LLMProvider, log logger.ILogger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever is required", ErrInvalidConfig)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if generator == nil {
		p, err := factory.NewLLMProvider(cfg.Provider, cfg.Model, cfg.Endpoint, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		generator = p
	}

	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfg.RetryMaxDelay = cfg.RetryBaseDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Orchestrator{
		cfg:       cfg,
		retriever: retriever,
		generator: generator,
		schema:    AnswerSchema(),
		logger:    log,
		tracer:    otel.Tracer("ai-helpdesk-be/pkg/assistant"),
	}, nil
}

// Answer returns the structured answer for question, grounded on retrieved context and the
// most recent turns of history.
func (o *Orchestrator) Answer(ctx context.Context, question string, history []ConversationTurn) (*StructuredAnswer, error) {
	res, err := o.AnswerWithContext(ctx, question, history)
	if err != nil {
		return nil, err
	}
	return res.Answer, nil
}

func (o *Orchestrator) AnswerWithContext(ctx context.Context, question string, history []ConversationTurn) (res *Result, err error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	ctx, span := o.tracer.Start(ctx, "assistant.answer", trace.WithAttributes(
		attribute.String("agent_id", o.cfg.AgentID),
		attribute.Int("history_turns", len(history)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := o.prepare(ctx, question, history)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieval.records", len(req.Records)))

	answer, err := o.generate(ctx, req)
	if err != nil {
		o.logger.Error(moduleName, "Answer failed", map[string]interface{}{
			"error":     err,
			"retryable": IsRetryable(err),
		})
		return nil, err
	}
	span.SetAttributes(
		attribute.String("answer.action", string(answer.Action)),
		attribute.Float64("answer.confidence", answer.ConfidenceLevel),
	)

	unverified := VerifySources(answer, req.Records)
	if len(unverified) > 0 {
		ids := make([]string, len(unverified))
		for i, s := range unverified {
			ids[i] = s.DocID
		}
		o.logger.Warn(moduleName, "Answer cites documents outside the supplied context", map[string]interface{}{
			"doc_ids": ids,
		})
	}

	return &Result{Answer: answer, Records: req.Records, UnverifiedSources: unverified}, nil
}

// ContextFor builds the exact request Answer would send, without calling the generator.
func (o *Orchestrator) ContextFor(ctx context.Context, question string, history []ConversationTurn) (*Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	return o.prepare(ctx, question, history)
}

func (o *Orchestrator) prepare(ctx context.Context, question string, history []ConversationTurn) (*Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	records, err := o.retriever.Search(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		o.logger.Warn(moduleName, "Retrieval failed, continuing without context", map[string]interface{}{
			"error": err,
		})
		records = []knowledge.Record{}
	}

	return buildRequest(question, history, o.cfg.HistoryWindow, records)
}

func (o *Orchestrator) backoff() retry.Backoff {
	b := retry.NewExponential(o.cfg.RetryBaseDelay)
	b = retry.WithCappedDuration(o.cfg.RetryMaxDelay, b)
	b = retry.WithJitter(retryJitter, b)
	return retry.WithMaxRetries(uint64(o.cfg.RetryAttempts), b)
}

// generate calls the generator, retrying only on generation failures.
func (o *Orchestrator) generate(ctx context.Context, req *Request) (*StructuredAnswer, error) {
	genCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	opts := []llm.Option{
		llm.WithSystemInstruction(req.System),
		llm.WithResponseSchema(o.schema),
		llm.WithTemperature(o.cfg.Temperature),
	}
	if o.cfg.Model != "" {
		opts = append(opts, llm.WithModel(o.cfg.Model))
	}

	attempt := 0
	var answer *StructuredAnswer
	err := retry.Do(genCtx, o.backoff(), func(ctx context.Context) error {
		attempt++
		parsed, err := o.attempt(ctx, attempt, req, opts)
		if err != nil {
			return err
		}
		answer = parsed
		return nil
	})

	if err == nil {
		return answer, nil
	}
	if ctx.Err() != nil {
		return nil, cancelled(ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, generationError(fmt.Sprintf("no reply within %s", o.cfg.Timeout), err)
	}
	var answerErr *AnswerError
	if errors.As(err, &answerErr) {
		return nil, answerErr
	}
	return nil, generationError("provider call failed", err)
}

// attempt makes one generator call in its own span. Retryable failures come back wrapped for retry.Do.
func (o *Orchestrator) attempt(ctx context.Context, n int, req *Request, opts []llm.Option) (answer *StructuredAnswer, err error) {
	ctx, span := o.tracer.Start(ctx, "assistant.generate", trace.WithAttributes(attribute.Int("attempt", n)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	raw, callErr := o.generator.Chat(ctx, req.Turns, opts...)
	if callErr != nil {
		if ctx.Err() != nil {
			return nil, callErr
		}
		o.logger.Warn(moduleName, "Generation attempt failed", map[string]interface{}{
			"attempt": n,
			"error":   callErr,
		})
		return nil, retry.RetryableError(generationError("provider call failed", callErr))
	}

	parsed, parseErr := ParseAnswer(raw)
	if parseErr != nil {
		if errors.Is(parseErr, ErrGeneration) {
			return nil, retry.RetryableError(parseErr)
		}
		return nil, parseErr
	}
	return parsed, nil
}
