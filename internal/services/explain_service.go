package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/askaway/backend/internal/models"
)

// ErrExplainUnavailable is returned when text generation is unconfigured or
// the upstream call fails. Callers surface it; core flows never depend on it.
var ErrExplainUnavailable = errors.New("explanation service unavailable")

// ExplainService produces plain-language explanations of questions via an
// external text-generation API.
type ExplainService struct {
	client *openai.Client
	model  string
}

// NewExplainService returns a disabled service when apiKey is empty; every
// call then fails with ErrExplainUnavailable.
func NewExplainService(apiKey, model string) *ExplainService {
	if strings.TrimSpace(apiKey) == "" {
		return &ExplainService{}
	}
	return &ExplainService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// ExplainSimply asks the model for an ELI5 rendition of the question.
func (s *ExplainService) ExplainSimply(ctx context.Context, q *models.Question) (string, error) {
	if s.client == nil {
		return "", ErrExplainUnavailable
	}

	prompt := fmt.Sprintf(
		"Explain the following question as you would to a curious beginner, in at most three short paragraphs.\n\nTitle: %s\n\n%s",
		q.Title, q.Content,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a patient explainer on a community Q&A site."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 400,
	})
	if err != nil {
		log.Printf("[explain] completion failed question=%s: %v", q.ID, err)
		return "", ErrExplainUnavailable
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrExplainUnavailable
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
