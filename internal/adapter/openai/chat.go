package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jurisearch/backend/internal/domain/apperr"
)

const systemPrompt = "You are a legal assistant specializing in Philippine Supreme Court jurisprudence. " +
	"Using ONLY the provided context, answer the question with citations to case titles and G.R. numbers " +
	"when available. Avoid fabricating cases or facts. If the context does not contain the answer, say so."

type ChatClient struct {
	client *openai.Client
	model  string
}

func NewChatClient(apiKey, baseURL, model string) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &ChatClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate produces a grounded answer from the question and the
// retrieved context block. The model never sees anything beyond the
// supplied context.
func (c *ChatClient) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	userPrompt := fmt.Sprintf("Question: %s\n\nContext:\n%s\n\nAnswer:", question, contextBlock)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.2,
		MaxTokens:   700,
	})
	if err != nil {
		return "", classify(apperr.KindGeneration, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindGeneration, "chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
