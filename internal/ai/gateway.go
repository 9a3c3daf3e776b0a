package ai

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/pkg/anthropic"
)

// Config controls retry behavior for gateway calls.
type Config struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// BaseDelay is the backoff before the first retry; it doubles per
	// attempt.
	BaseDelay time.Duration
}

// DefaultConfig returns the standard gateway retry configuration.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: time.Second}
}

// Request is one structured-output prompt execution.
type Request struct {
	Phase     string
	Model     string
	System    string
	Prompt    string
	MaxTokens int64
	// Schema is a JSON Schema string the extracted document must satisfy.
	// Empty skips validation.
	Schema string
	// ShouldRetry optionally overrides the default retryable check for a
	// single call site. Return false to surface the error immediately.
	ShouldRetry func(err error) bool
}

// Result is a validated structured response.
type Result struct {
	// JSON is the extracted, schema-valid document.
	JSON     string
	Usage    model.TokenUsage
	Attempts int
}

// Gateway executes prompts against the model provider with JSON extraction,
// schema validation, and bounded retry.
type Gateway struct {
	client anthropic.Client
	cfg    Config
}

// NewGateway builds a Gateway over a provider client.
func NewGateway(client anthropic.Client, cfg Config) *Gateway {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	return &Gateway{client: client, cfg: cfg}
}

// Complete runs the request, retrying retryable failures with doubling
// backoff. Token usage accumulates across attempts, including failed ones.
// Exhausting retries wraps the last error so callers see both the retry
// cause and the exhaustion.
func (g *Gateway) Complete(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}
	shouldRetry := req.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = Retryable
	}

	backoff := g.cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		result.Attempts = attempt

		doc, usage, err := g.attempt(ctx, req)
		result.Usage.Add(usage)
		if err == nil {
			result.JSON = doc
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, eris.Wrapf(lastErr, "ai: %s canceled", req.Phase)
		}
		if !shouldRetry(err) {
			return nil, err
		}
		if attempt >= g.cfg.MaxAttempts {
			break
		}

		zap.L().Warn("ai: attempt failed, retrying",
			zap.String("phase", req.Phase),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, eris.Wrapf(lastErr, "ai: %s canceled", req.Phase)
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, eris.Wrapf(lastErr, "ai: %s retries exhausted after %d attempts", req.Phase, g.cfg.MaxAttempts)
}

// attempt runs one provider call through the extract → parse → validate
// ladder, classifying each failure mode.
func (g *Gateway) attempt(ctx context.Context, req Request) (string, model.TokenUsage, error) {
	var usage model.TokenUsage

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages: []anthropic.Message{
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return "", usage, &TransportError{Err: err}
	}

	usage = model.TokenUsage{
		InputTokens:         int(resp.Usage.InputTokens),
		OutputTokens:        int(resp.Usage.OutputTokens),
		CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
		CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
	}

	text := resp.Text()
	doc, ok := ExtractJSON(text)
	if !ok {
		return "", usage, &ExtractionError{Snippet: snippet(text, 120)}
	}

	var parsed any
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return "", usage, &ParseError{Err: err}
	}

	if req.Schema != "" {
		if err := validateSchema(req.Schema, doc); err != nil {
			return "", usage, err
		}
	}

	return doc, usage, nil
}

// validateSchema checks a document against a JSON Schema string, returning a
// SchemaValidationError with per-field detail on violation.
func validateSchema(schema, doc string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(doc),
	)
	if err != nil {
		// The schema itself failing to load is a programming error, not a
		// model output problem.
		return eris.Wrap(err, "ai: load schema")
	}
	if result.Valid() {
		return nil
	}

	verr := &SchemaValidationError{Document: doc}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Fields = append(verr.Fields, FieldError{Field: field, Type: desc.Type(), Message: desc.Description()})
	}
	return verr
}
