package chat

import (
	"context"
	"errors"

	"coffeespot/internal/domain"
)

// ErrClosed is returned when a message targets an inactive session.
var ErrClosed = errors.New("chat is closed")

// NewMessage is a message to append on creation or send.
type NewMessage struct {
	Sender domain.Sender
	Text   string
}

type Repository interface {
	// LeastLoadedAgent returns the support agent with the fewest active sessions.
	LeastLoadedAgent(ctx context.Context) (string, error)
	GetActiveByUser(ctx context.Context, userID string) (*domain.ChatSession, error)
	// Create opens a session with its first messages. A second active session
	// for the same user fails with domain.ErrAlreadyExists.
	Create(ctx context.Context, userID, agentID string, messages []NewMessage) (*domain.ChatSession, error)
	GetByID(ctx context.Context, id string) (*domain.ChatSession, error)
	AppendMessage(ctx context.Context, chatID string, msg NewMessage) (*domain.ChatMessage, error)
	Close(ctx context.Context, chatID string) (*domain.ChatSession, error)
	// List returns every session, most recently updated first.
	List(ctx context.Context) ([]domain.ChatSession, error)
	// Delete removes the session and returns it as it was.
	Delete(ctx context.Context, chatID string) (*domain.ChatSession, error)
}
