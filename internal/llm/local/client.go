package local

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/llm"
)

const defaultModel = "llama3"

// Client talks to an Ollama-compatible server over its /api/chat endpoint.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	logger  *zap.Logger
}

// New builds a local client. baseURL is the server root, e.g.
// http://127.0.0.1:11434.
func New(baseURL, model string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message         llm.Message `json:"message"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Done            bool        `json:"done"`
}

// Complete sends the conversation in one non-streaming request.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, llm.Usage, error) {
	start := time.Now()
	req := chatRequest{Model: c.model, Messages: messages, Stream: false}
	var resp chatResponse
	if err := llm.SendJSON(ctx, c.http, c.baseURL+"/api/chat", req, &resp, c.logger); err != nil {
		c.logger.Error("llm.local.fail", zap.String("model", c.model), zap.Error(err))
		return "", llm.Usage{}, err
	}
	usage := llm.Usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	c.logger.Info("llm.local.ok",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return resp.Message.Content, usage, nil
}
