package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetChat(t *testing.T) {
	s := newTestStore(t)

	chat, err := s.CreateChat()
	require.NoError(t, err)
	require.NotEmpty(t, chat.ID)
	assert.Nil(t, chat.Title)

	got, err := s.GetChatByID(chat.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, chat.ID, got.ID)
}

func TestGetChatByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetChatByID("no-such-chat")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateChatTitle(t *testing.T) {
	s := newTestStore(t)

	chat, err := s.CreateChat()
	require.NoError(t, err)

	require.NoError(t, s.UpdateChatTitle(chat.ID, "Botnet questions"))

	got, err := s.GetChatByID(chat.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Botnet questions", *got.Title)

	assert.Error(t, s.UpdateChatTitle("no-such-chat", "title"))
}

func TestMessagesRoundTrip(t *testing.T) {
	s := newTestStore(t)

	chat, err := s.CreateChat()
	require.NoError(t, err)

	userMsg := Message{ChatID: chat.ID, Role: RoleUser, Content: "What IPs were flagged?"}
	require.NoError(t, s.CreateMessage(&userMsg))
	require.NotEmpty(t, userMsg.ID)

	assistantMsg := Message{ChatID: chat.ID, Role: RoleAssistant, Content: "IP 1.2.3.4 was flagged."}
	require.NoError(t, s.CreateMessage(&assistantMsg))

	messages, err := s.GetMessagesByChatID(chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Equal(t, "IP 1.2.3.4 was flagged.", messages[1].Content)
}

func TestGetRecentSessions(t *testing.T) {
	s := newTestStore(t)

	first, err := s.CreateChat()
	require.NoError(t, err)
	second, err := s.CreateChat()
	require.NoError(t, err)

	msg := Message{ChatID: first.ID, Role: RoleUser, Content: "hello"}
	require.NoError(t, s.CreateMessage(&msg))
	// Touch the first chat so it sorts newest.
	require.NoError(t, s.TouchChat(first.ID))

	sessions, err := s.GetRecentSessions(50)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID)
	assert.Len(t, sessions[0].Messages, 1)
	assert.Equal(t, second.ID, sessions[1].ID)
	assert.Empty(t, sessions[1].Messages)
}

func TestLedger(t *testing.T) {
	s := newTestStore(t)
	ledger := s.Ledger()

	ids, err := ledger.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, ledger.Append([]string{"record_aa", "record_bb"}))
	// Re-appending an existing ID is a no-op, not an error.
	require.NoError(t, ledger.Append([]string{"record_bb", "record_cc"}))

	ids, err = ledger.Load()
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "record_cc")
}
