package intent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dmehra/khatabot/internal/ledger"
)

// DefaultBaseURL routes completions through OpenRouter.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Low temperature keeps classification near-deterministic.
const extractionTemperature = 0.1

type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = baseURL

	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// Extract sends the utterance plus context to the model and validates the
// response. The call is bounded by the client timeout; any failure comes
// back wrapped in ErrParseFailure.
func (c *Client) Extract(ctx context.Context, utterance string, snapshot []ledger.Obligation, history []Turn) (*Result, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if len(snapshot) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: snapshotContext(snapshot),
		})
	}
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: utterance,
	})

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: extractionTemperature,
	})
	if err != nil {
		log.Printf("LLM request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrParseFailure)
	}

	return ParseResponse(resp.Choices[0].Message.Content)
}

// snapshotContext serializes the active obligations for the model.
func snapshotContext(obligations []ledger.Obligation) string {
	var b strings.Builder
	b.WriteString("Active obligations:\n")
	for _, ob := range obligations {
		fmt.Fprintf(&b, "- %s: %s remaining (%s, total %s)",
			ob.PersonName, ledger.FormatINR(ob.RemainingAmount), ob.Kind, ledger.FormatINR(ob.TotalAmount))
		if ob.Note != "" {
			b.WriteString(" — " + ob.Note)
		}
		b.WriteString("\n")
	}
	return b.String()
}
