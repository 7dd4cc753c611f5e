package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"shieldai.dev/ragshield/internal/store"
)

// ChatService persists conversation sessions around the answer pipeline.
// A query without a session ID starts a new session; subsequent queries
// carrying the ID extend it.
type ChatService struct {
	dbStore       *store.SQLiteStore
	answerService *AnswerService
	llmService    *LLMService // title generation
}

func NewChatService(db *store.SQLiteStore, answer *AnswerService, llm *LLMService) *ChatService {
	return &ChatService{
		dbStore:       db,
		answerService: answer,
		llmService:    llm,
	}
}

// HandleQuery answers a query within a session, creating the session first
// if chatID is empty or unknown. Returns the answer and the session ID the
// exchange was recorded under.
func (s *ChatService) HandleQuery(ctx context.Context, chatID, query string) (string, string, error) {
	var chat *store.Chat
	var err error

	if chatID != "" {
		chat, err = s.dbStore.GetChatByID(chatID)
		if err != nil {
			return "", "", fmt.Errorf("failed to look up chat: %w", err)
		}
	}

	isNew := chat == nil
	if isNew {
		chat, err = s.dbStore.CreateChat()
		if err != nil {
			return "", "", fmt.Errorf("failed to create chat: %w", err)
		}
	}

	history, err := s.dbStore.GetMessagesByChatID(chat.ID)
	if err != nil {
		log.Printf("Failed to load history for chat %s, proceeding without it: %v", chat.ID, err)
		history = nil
	}

	userMsg := store.Message{ChatID: chat.ID, Role: store.RoleUser, Content: query}
	if err := s.dbStore.CreateMessage(&userMsg); err != nil {
		return "", "", fmt.Errorf("failed to store user message: %w", err)
	}

	answer, err := s.answerService.GenerateAnswer(ctx, history, query)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate answer: %w", err)
	}

	assistantMsg := store.Message{ChatID: chat.ID, Role: store.RoleAssistant, Content: answer}
	if err := s.dbStore.CreateMessage(&assistantMsg); err != nil {
		return "", "", fmt.Errorf("failed to store assistant message: %w", err)
	}

	if err := s.dbStore.TouchChat(chat.ID); err != nil {
		log.Printf("Failed to refresh timestamp for chat %s: %v", chat.ID, err)
	}

	if isNew || chat.Title == nil || *chat.Title == "" {
		go s.generateAndSaveChatTitle(chat.ID, query)
	}

	return answer, chat.ID, nil
}

// ListSessions returns the most recent sessions with their messages,
// newest first.
func (s *ChatService) ListSessions() ([]store.ChatSession, error) {
	return s.dbStore.GetRecentSessions(50)
}

func (s *ChatService) generateAndSaveChatTitle(chatID, basisContent string) {
	title, err := s.llmService.GenerateTitleForChat(basisContent)
	if err != nil {
		log.Printf("Failed to generate title for chat %s: %v", chatID, err)
		return
	}
	title = strings.Trim(title, "\"'\n\r\t .")

	if err := s.dbStore.UpdateChatTitle(chatID, title); err != nil {
		log.Printf("Failed to save generated title '%s' for chat %s: %v", title, chatID, err)
	}
}
