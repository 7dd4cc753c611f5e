package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Chat struct {
	ID        string    `json:"session_id"` // UUID
	Title     *string   `json:"title"`      // Nullable until generated
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"timestamp"`
}

type Message struct {
	ID        string    `json:"id"` // UUID
	ChatID    string    `json:"-"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a session with its messages, the shape returned by the
// sessions listing.
type ChatSession struct {
	Chat
	Messages []Message `json:"messages"`
}
