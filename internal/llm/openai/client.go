package openai

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vchirila/billchat/internal/llm"
)

const defaultModel = "gpt-4"

// Options tune the client beyond the API key.
type Options struct {
	Model       string
	Temperature float32
	MaxRetries  int
	RPS         float64
	Burst       int
}

// Client completes conversations through the OpenAI chat API, rate limited
// and retried with exponential backoff.
type Client struct {
	api         *goopenai.Client
	model       string
	temperature float32
	maxRetries  int
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// New builds a Client from an API key and options. Zero option fields take
// sensible defaults.
func New(apiKey string, opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RPS <= 0 {
		opts.RPS = 3
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	return &Client{
		api:         goopenai.NewClient(apiKey),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxRetries:  opts.MaxRetries,
		limiter:     rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		logger:      logger,
	}
}

// Complete sends the conversation and returns the assistant reply plus token
// usage. Rate-limit and transient API errors are retried with backoff.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, llm.Usage, error) {
	reqID := uuid.NewString()
	req := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    make([]goopenai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	c.logger.Info("llm.complete.start",
		zap.String("req_id", reqID),
		zap.String("model", c.model),
		zap.Int("messages", len(messages)))
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffDelay(attempt)
			c.logger.Warn("llm.complete.retry",
				zap.String("req_id", reqID),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", llm.Usage{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", llm.Usage{}, err
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if !retryable(err) {
				break
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty completion choices")
			continue
		}
		usage := llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		c.logger.Info("llm.complete.ok",
			zap.String("req_id", reqID),
			zap.Int("prompt_tokens", usage.PromptTokens),
			zap.Int("completion_tokens", usage.CompletionTokens),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return resp.Choices[0].Message.Content, usage, nil
	}

	c.logger.Error("llm.complete.fail",
		zap.String("req_id", reqID),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		zap.Error(lastErr))
	return "", llm.Usage{}, lastErr
}

// retryable treats rate limits and server-side failures as transient.
func retryable(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// transport errors (timeouts, resets) are worth one more try
	return true
}

// backoffDelay is exponential with jitter: 1s, 2s, 4s... plus up to 500ms.
func backoffDelay(attempt int) time.Duration {
	d := time.Second << (attempt - 1)
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d + time.Duration(rand.Int63n(int64(500*time.Millisecond)))
}
