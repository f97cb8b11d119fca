package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"parts-assist/internal/ai"
	"parts-assist/internal/model"
)

type stubSessionStore struct {
	sessions map[string]*model.ChatSession
}

func (s *stubSessionStore) Create(_ context.Context, session *model.ChatSession) error {
	if s.sessions == nil {
		s.sessions = map[string]*model.ChatSession{}
	}
	s.sessions[session.SessionID] = session
	return nil
}

func (s *stubSessionStore) GetBySessionID(_ context.Context, sessionID string) (*model.ChatSession, error) {
	return s.sessions[sessionID], nil
}

func (s *stubSessionStore) Touch(_ context.Context, _ string) error { return nil }

// stubMessageStore records the limit of every fetch.
type stubMessageStore struct {
	messages   []model.ChatMessage
	listLimits []int
}

func (s *stubMessageStore) ListBySessionID(_ context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	s.listLimits = append(s.listLimits, limit)
	var out []model.ChatMessage
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubMessageStore) ListRecentBySessionID(_ context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	return s.ListBySessionID(context.Background(), sessionID, limit)
}

// memoryHistoryCache is an in-process HistoryCache for tests.
type memoryHistoryCache struct {
	histories map[string][]model.ChatMessage
	dirty     map[string]bool
}

func newMemoryHistoryCache() *memoryHistoryCache {
	return &memoryHistoryCache{
		histories: map[string][]model.ChatMessage{},
		dirty:     map[string]bool{},
	}
}

func (c *memoryHistoryCache) GetHistory(_ context.Context, sessionID string) ([]model.ChatMessage, bool, error) {
	messages, ok := c.histories[sessionID]
	return messages, ok, nil
}

func (c *memoryHistoryCache) SetHistory(_ context.Context, sessionID string, messages []model.ChatMessage) error {
	c.histories[sessionID] = messages
	return nil
}

func (c *memoryHistoryCache) DeleteHistory(_ context.Context, sessionID string) error {
	delete(c.histories, sessionID)
	return nil
}

func (c *memoryHistoryCache) MarkDirty(_ context.Context, sessionID string) error {
	c.dirty[sessionID] = true
	return nil
}

func (c *memoryHistoryCache) IsDirty(_ context.Context, sessionID string) (bool, error) {
	return c.dirty[sessionID], nil
}

func seedMessages(sessionID string, n int) []model.ChatMessage {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		out = append(out, model.ChatMessage{
			SessionID: sessionID,
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}

func newHistoryService(store *stubMessageStore, cache HistoryCache, sessionID string) *ChatService {
	sessions := &stubSessionStore{sessions: map[string]*model.ChatSession{
		sessionID: {SessionID: sessionID},
	}}
	return NewChatService(sessions, store, nil, nil, cache, nil, ai.ChatConfig{}, 0, nil)
}

func TestGetHistoryCachesFullWindow(t *testing.T) {
	const sessionID = "s-1"
	store := &stubMessageStore{messages: seedMessages(sessionID, 6)}
	cache := newMemoryHistoryCache()
	service := newHistoryService(store, cache, sessionID)

	small, err := service.GetHistory(context.Background(), sessionID, 2)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(small) != 2 {
		t.Fatalf("got %d messages, want 2", len(small))
	}

	// The second call is served from the cache and must not inherit the
	// first call's smaller limit.
	large, err := service.GetHistory(context.Background(), sessionID, 4)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(large) != 4 {
		t.Fatalf("got %d messages after cached limit-2 read, want 4", len(large))
	}
	if len(store.listLimits) != 1 {
		t.Fatalf("store fetched %d times, want 1 (second read from cache)", len(store.listLimits))
	}
	if store.listLimits[0] != historyWindow {
		t.Errorf("store fetched with limit %d, want the full window %d", store.listLimits[0], historyWindow)
	}
}

func TestGetHistoryReturnsNewestTail(t *testing.T) {
	const sessionID = "s-2"
	store := &stubMessageStore{messages: seedMessages(sessionID, 6)}
	service := newHistoryService(store, newMemoryHistoryCache(), sessionID)

	got, err := service.GetHistory(context.Background(), sessionID, 3)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[len(got)-1].Content != "turn 5" {
		t.Errorf("last message is %q, want the newest turn", got[len(got)-1].Content)
	}
}

func TestGetHistoryUnknownSession(t *testing.T) {
	service := newHistoryService(&stubMessageStore{}, newMemoryHistoryCache(), "known")

	if _, err := service.GetHistory(context.Background(), "unknown", 10); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
