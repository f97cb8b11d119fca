package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parts-assist/internal/ai"
	"parts-assist/internal/model"
	"parts-assist/internal/retrieval"
)

// ErrTurnFailed is returned when context retrieval is down for the current
// turn; the caller surfaces it as "unable to process request".
var ErrTurnFailed = errors.New("unable to process request")

const (
	// historyWindow is how many messages per session are fetched and
	// cached; it matches the repository's hard cap.
	historyWindow = 200

	defaultHistoryLimit = 100
)

// TranscriptPublisher hands finished turns to the async persistence path.
type TranscriptPublisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

// SessionStore is the slice of the session repository the chat service uses.
type SessionStore interface {
	Create(ctx context.Context, session *model.ChatSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.ChatSession, error)
	Touch(ctx context.Context, sessionID string) error
}

// MessageStore reads persisted transcript rows.
type MessageStore interface {
	ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error)
	ListRecentBySessionID(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error)
}

// HistoryCache is the read-through cache in front of the message table.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

// ChatService runs one grounded conversation turn: retrieve context, build
// the prompt, call the generation service, persist the transcript.
type ChatService struct {
	sessions     SessionStore
	messages     MessageStore
	aggregator   *retrieval.Aggregator
	publisher    TranscriptPublisher
	historyCache HistoryCache
	llmClient    *ai.Client
	chatConfig   ai.ChatConfig
	maxContext   int
	log          *zap.Logger
}

func NewChatService(
	sessions SessionStore,
	messages MessageStore,
	aggregator *retrieval.Aggregator,
	publisher TranscriptPublisher,
	historyCache HistoryCache,
	llmClient *ai.Client,
	chatConfig ai.ChatConfig,
	maxContext int,
	log *zap.Logger,
) *ChatService {
	if maxContext <= 0 {
		maxContext = 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{
		sessions:     sessions,
		messages:     messages,
		aggregator:   aggregator,
		publisher:    publisher,
		historyCache: historyCache,
		llmClient:    llmClient,
		chatConfig:   chatConfig,
		maxContext:   maxContext,
		log:          log,
	}
}

type SendMessageInput struct {
	SessionID string
	Message   string
}

type ChatResult struct {
	SessionID string                   `json:"session_id"`
	Response  string                   `json:"response"`
	Context   *retrieval.ContextBundle `json:"context"`
}

// SendMessage handles one blocking chat turn.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*ChatResult, error) {
	content := strings.TrimSpace(input.Message)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	session, err := s.resolveSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	bundle, promptMessages, err := s.prepareTurn(ctx, session.SessionID, content)
	if err != nil {
		return nil, err
	}

	answer, err := s.llmClient.Complete(ctx, s.chatConfig, promptMessages)
	if err != nil {
		return nil, fmt.Errorf("llm completion failed: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "The model returned an empty response."
	}

	if err := s.persistTurn(ctx, session.SessionID, content, answer, bundle.PartNumbers()); err != nil {
		return nil, err
	}

	return &ChatResult{
		SessionID: session.SessionID,
		Response:  answer,
		Context:   bundle,
	}, nil
}

// StreamMessage is the SSE variant; chunks flow through onChunk and the
// assembled answer is persisted at the end.
func (s *ChatService) StreamMessage(
	ctx context.Context,
	input SendMessageInput,
	onChunk func(string) error,
) (*ChatResult, error) {
	content := strings.TrimSpace(input.Message)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	session, err := s.resolveSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	bundle, promptMessages, err := s.prepareTurn(ctx, session.SessionID, content)
	if err != nil {
		return nil, err
	}

	answer, err := s.llmClient.StreamComplete(ctx, s.chatConfig, promptMessages, onChunk)
	if err != nil {
		return nil, fmt.Errorf("llm stream failed: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "The model returned an empty response."
	}

	if err := s.persistTurn(ctx, session.SessionID, content, answer, bundle.PartNumbers()); err != nil {
		return nil, err
	}

	return &ChatResult{
		SessionID: session.SessionID,
		Response:  answer,
		Context:   bundle,
	}, nil
}

func (s *ChatService) GetHistory(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimHistory(cached, limit), nil
			}
		}
	}

	// Always fetch the full retention window so the cached copy can serve
	// any later limit; the caller's limit only trims the response.
	messages, err := s.messages.ListBySessionID(ctx, sessionID, historyWindow)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return trimHistory(messages, limit), nil
}

// resolveSession loads the session or creates a fresh anonymous one.
func (s *ChatService) resolveSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID != "" {
		session, err := s.sessions.GetBySessionID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
		return session, nil
	}

	session := &model.ChatSession{SessionID: uuid.NewString()}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// prepareTurn builds the context bundle and the full prompt. Retrieval
// failure fails the whole turn; there is no degraded context.
func (s *ChatService) prepareTurn(ctx context.Context, sessionID, content string) (*retrieval.ContextBundle, []ai.ChatMessage, error) {
	bundle, err := s.aggregator.BuildContext(ctx, content)
	if err != nil {
		s.log.Error("context retrieval failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", ErrTurnFailed, err)
	}

	history, err := s.messages.ListRecentBySessionID(ctx, sessionID, s.maxContext)
	if err != nil {
		return nil, nil, err
	}

	promptMessages := make([]ai.ChatMessage, 0, len(history)+3)
	promptMessages = append(promptMessages, ai.ChatMessage{Role: "system", Content: supportPersona})
	if contextMsg := buildContextMessage(bundle); contextMsg != "" {
		promptMessages = append(promptMessages, ai.ChatMessage{Role: "system", Content: contextMsg})
	}
	for _, item := range history {
		role := item.Role
		if role == "" {
			role = "user"
		}
		promptMessages = append(promptMessages, ai.ChatMessage{Role: role, Content: item.Content})
	}
	promptMessages = append(promptMessages, ai.ChatMessage{Role: "user", Content: content})

	return bundle, promptMessages, nil
}

// persistTurn enqueues both turn messages for async persistence and
// invalidates the cached history.
func (s *ChatService) persistTurn(ctx context.Context, sessionID, userContent, assistantContent string, referencedParts []string) error {
	if s.publisher == nil {
		return ErrMessageEnqueue
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, sessionID)
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}

	now := time.Now()
	userMessage := model.ChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   userContent,
		CreatedAt: now,
	}
	userMessage.SetReferencedParts(referencedParts)

	assistantMessage := model.ChatMessage{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   assistantContent,
		CreatedAt: now.Add(time.Millisecond),
	}
	assistantMessage.SetReferencedParts(referencedParts)

	if err := s.publisher.Publish(ctx, userMessage); err != nil {
		return ErrMessageEnqueue
	}
	if err := s.publisher.Publish(ctx, assistantMessage); err != nil {
		return ErrMessageEnqueue
	}

	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		s.log.Warn("touch session failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

func trimHistory(messages []model.ChatMessage, limit int) []model.ChatMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
