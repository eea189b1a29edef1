package local

import (
	"context"
	"strings"
)

// Generator is the no-LLM fallback: it returns the retrieved context
// itself so operators can still see what grounded the answer.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(_ context.Context, _ string, contextBlock string) (string, error) {
	answer := strings.TrimSpace(contextBlock)
	if answer == "" {
		return "", nil
	}
	return "No generation model is configured. Most relevant passages:\n\n" + answer, nil
}
