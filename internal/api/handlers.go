package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"shieldai.dev/ragshield/internal/store"
)

// The fixed body returned on any internal failure of the query path.
// Intentionally generic, no structured error codes.
const genericQueryError = "Error processing query."

// QueryService is what the handlers need from the chat layer.
type QueryService interface {
	HandleQuery(ctx context.Context, chatID, query string) (answer string, outChatID string, err error)
	ListSessions() ([]store.ChatSession, error)
}

type APIHandler struct {
	chatService QueryService
}

func NewAPIHandler(cs QueryService) *APIHandler {
	return &APIHandler{chatService: cs}
}

type QueryRequest struct {
	Query  string `json:"query"`
	ChatID string `json:"chat_id,omitempty"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
	ChatID string `json:"chat_id"`
}

func (h *APIHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query not provided", http.StatusBadRequest)
		return
	}

	answer, chatID, err := h.chatService.HandleQuery(r.Context(), req.ChatID, req.Query)
	if err != nil {
		log.Printf("Error processing query for chat %q: %v", req.ChatID, err)
		http.Error(w, genericQueryError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(QueryResponse{Answer: answer, ChatID: chatID})
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatService.ListSessions()
	if err != nil {
		log.Printf("Error listing chat sessions: %v", err)
		http.Error(w, genericQueryError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}
