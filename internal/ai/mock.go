package ai

import (
	"context"
	"strings"
)

// MockClient returns deterministic canned replies keyed off prompt keywords.
// Used when no provider API key is configured so the API stays demoable.
type MockClient struct {
	model string
}

func NewMockClient(model string) *MockClient {
	if strings.TrimSpace(model) == "" {
		model = "mock-model"
	}
	return &MockClient{model: model}
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return m.reply(req.System + "\n" + req.Prompt), nil
}

func (m *MockClient) CompleteChat(ctx context.Context, req ChatRequest) (CompletionResponse, error) {
	var joined strings.Builder
	for _, msg := range req.Messages {
		joined.WriteString(msg.Content)
		joined.WriteString("\n")
	}
	return m.reply(joined.String()), nil
}

func (m *MockClient) reply(prompt string) CompletionResponse {
	lower := strings.ToLower(prompt)
	text := "Your recent records look stable. Keep meals regular, aim for consistent " +
		"sleep, and stay hydrated through the day."
	switch {
	case strings.Contains(lower, "0-100"):
		text = "Score: 72/100"
	case strings.Contains(lower, "(id: "):
		if id := firstEnumeratedID(prompt); id != "" {
			text = id
		}
	case strings.Contains(lower, `"recommendations"`):
		text = `{"recommendations": []}`
	case strings.Contains(lower, "6-8 words"):
		text = "Steady habits today, keep the routine going"
	}
	return CompletionResponse{
		Text:  text,
		Model: m.model,
		Usage: Usage{PromptTokens: 120, CompletionTokens: 80, TotalTokens: 200},
	}
}

// firstEnumeratedID pulls the first "(id: xxx)" token out of a clinic list.
func firstEnumeratedID(prompt string) string {
	const marker = "(id: "
	start := strings.Index(prompt, marker)
	if start < 0 {
		return ""
	}
	rest := prompt[start+len(marker):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
