// Package ai wraps the chat-completion LLM provider behind a small client
// interface. One HTTP call per invocation, no retry, no streaming; every
// provider-level failure surfaces as a *GatewayError.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medpulse-ai/backend/internal/config"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is the system/user pair form. Temperature is passed
// through as-is; MaxTokens of zero falls back to the client's configured cap.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// ChatRequest carries a full message history verbatim.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// CompletionResponse holds the first choice's text. Text is empty when the
// provider returns no choices; that is a success, not an error.
type CompletionResponse struct {
	Text  string
	Model string
	Usage Usage
}

type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	CompleteChat(ctx context.Context, req ChatRequest) (CompletionResponse, error)
}

// GatewayError is the single failure kind the gateway reports.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm gateway: %s: %v", e.Message, e.Err)
	}
	return "llm gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func gatewayErr(message string, err error) error {
	return &GatewayError{Message: message, Err: err}
}

type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

func NewOpenAIClient(cfg config.Config) *OpenAIClient {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return &OpenAIClient{
		apiKey:    strings.TrimSpace(cfg.OpenAIAPIKey),
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.OpenAIBaseURL), "/"),
		model:     strings.TrimSpace(cfg.OpenAIModel),
		maxTokens: cfg.AIMaxTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	messages := make([]ChatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Prompt})
	return c.CompleteChat(ctx, ChatRequest{
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionChoice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatCompletionResponse struct {
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   Usage                  `json:"usage"`
}

func (c *OpenAIClient) CompleteChat(ctx context.Context, req ChatRequest) (CompletionResponse, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return CompletionResponse{}, gatewayErr("OPENAI_API_KEY is not configured", nil)
	}
	if strings.TrimSpace(c.baseURL) == "" {
		return CompletionResponse{}, gatewayErr("OPENAI_BASE_URL is not configured", nil)
	}
	if len(req.Messages) == 0 {
		return CompletionResponse{}, gatewayErr("chat request has no messages", nil)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	payload := chatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
	bodyRaw, err := json.Marshal(payload)
	if err != nil {
		return CompletionResponse{}, gatewayErr("encode request", err)
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(bodyRaw),
	)
	if err != nil {
		return CompletionResponse{}, gatewayErr("build request", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return CompletionResponse{}, gatewayErr("call provider", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return CompletionResponse{}, gatewayErr("read response", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return CompletionResponse{}, gatewayErr(
			fmt.Sprintf("openai chat error (%d): %s", response.StatusCode, strings.TrimSpace(string(responseBody))),
			nil,
		)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return CompletionResponse{}, gatewayErr("decode response", err)
	}

	modelName := strings.TrimSpace(parsed.Model)
	if modelName == "" {
		modelName = c.model
	}
	result := CompletionResponse{
		Model: modelName,
		Usage: parsed.Usage,
	}
	if len(parsed.Choices) > 0 {
		result.Text = parsed.Choices[0].Message.Content
	}
	return result, nil
}
