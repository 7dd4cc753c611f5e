package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"shieldai.dev/ragshield/internal/store"
)

const historyTurns = 5 // recent messages carried into the prompt

// AnswerService composes retrieved context and recent conversation history
// into a grounded prompt and returns the language model's answer.
type AnswerService struct {
	retriever  *Retriever
	llmService *LLMService
}

func NewAnswerService(retriever *Retriever, llm *LLMService) *AnswerService {
	return &AnswerService{
		retriever:  retriever,
		llmService: llm,
	}
}

// BuildPrompt renders the grounded prompt fed to the model.
func BuildPrompt(query, contextText string) string {
	return fmt.Sprintf(
		"Based on the following context, provide a well informed answer to the user.\nQuery: %s\nContext: %s\nAnswer:",
		query, contextText)
}

// GenerateAnswer retrieves context for the query and asks the LLM. A failed
// retrieval degrades to answering without context; it never fails the
// request on its own.
func (s *AnswerService) GenerateAnswer(ctx context.Context, history []store.Message, query string) (string, error) {
	contextText := s.retrieveContext(ctx, query)

	var promptHistory []*genai.Content
	start := 0
	if len(history) > historyTurns {
		start = len(history) - historyTurns
	}
	for _, msg := range history[start:] {
		role := "user"
		if msg.Role == store.RoleAssistant {
			role = "model"
		}
		promptHistory = append(promptHistory, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	promptHistory = append(promptHistory, &genai.Content{
		Role:  "user",
		Parts: []genai.Part{genai.Text(BuildPrompt(query, contextText))},
	})

	answer, err := s.llmService.GetChatCompletion(promptHistory)
	if err != nil {
		return "", fmt.Errorf("failed to get LLM completion: %w", err)
	}
	return answer, nil
}

func (s *AnswerService) retrieveContext(ctx context.Context, query string) string {
	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		log.Printf("answer: failed to retrieve context, proceeding without it: %v", err)
		return ""
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Text)
	}
	return strings.Join(parts, "\n\n")
}
