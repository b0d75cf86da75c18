package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("interview-api/llm")

// Observer records model call latency. *observability.Prom satisfies it.
type Observer interface {
	ObserveLLM(op string, start time.Time, err error)
}

// Client turns domain requests into prompts, bounds each model call by one
// timeout, and parses the replies. Every error it returns wraps ErrUnavailable.
type Client struct {
	model   TextModel
	prompts *PromptBuilder
	timeout time.Duration
	obs     Observer
	log     *slog.Logger
}

func NewClient(model TextModel, timeout time.Duration, obs Observer, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		model:   model,
		prompts: NewPromptBuilder(),
		timeout: timeout,
		obs:     obs,
		log:     log,
	}
}

func (c *Client) GenerateQuestions(ctx context.Context, skills []string, resumeText string, n int) ([]string, error) {
	text, err := c.call(ctx, "questions", c.prompts.Questions(skills, resumeText, n))
	if err != nil {
		return nil, err
	}

	questions := ParseList(text)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions in model output", ErrUnavailable)
	}
	if n > 0 && len(questions) > n {
		questions = questions[:n]
	}
	return questions, nil
}

// GenerateExpectedAnswers asks for all answers in one call. The result may be
// shorter or longer than questions; callers check alignment.
func (c *Client) GenerateExpectedAnswers(ctx context.Context, questions, skills []string, resumeText string) ([]string, error) {
	text, err := c.call(ctx, "expected_answers", c.prompts.ExpectedAnswers(questions, skills, resumeText))
	if err != nil {
		return nil, err
	}
	return ParseList(text), nil
}

func (c *Client) GenerateExpectedAnswer(ctx context.Context, question string, skills []string) (string, error) {
	text, err := c.call(ctx, "expected_answer", c.prompts.ExpectedAnswer(question, skills))
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) EvaluateAnswer(ctx context.Context, question, expected, answer string) (string, error) {
	return c.call(ctx, "feedback", c.prompts.Feedback(question, expected, answer))
}

func (c *Client) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	out, err := c.call(ctx, "keywords", c.prompts.Keywords(text))
	if err != nil {
		return nil, err
	}

	keywords := ParseKeywords(out)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: no keywords in model output", ErrUnavailable)
	}
	return keywords, nil
}

func (c *Client) call(ctx context.Context, op string, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "llm."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.op", op),
		attribute.Int("llm.prompt_chars", len(req.Prompt)),
		attribute.Int("llm.max_tokens", int(req.MaxTokens)),
	)

	start := time.Now()
	text, err := c.model.Generate(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}

	if c.obs != nil {
		c.obs.ObserveLLM(op, start, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		c.log.WarnContext(ctx, "llm call failed", "op", op, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}

	span.SetAttributes(attribute.Int("llm.completion_chars", len(text)))
	return strings.TrimSpace(text), nil
}
