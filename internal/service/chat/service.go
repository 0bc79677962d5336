package chat

import (
	"context"
	"errors"
	"strings"

	"coffeespot/internal/domain"
	chatrepo "coffeespot/internal/repository/chat"
	"coffeespot/internal/telemetry"
	"github.com/rs/zerolog"
)

// Push event names delivered to a user's private channel.
const (
	EventNewChat     = "newChat"
	EventNewMessage  = "newMessage"
	EventChatClosed  = "chatClosed"
	EventChatDeleted = "chatDeleted"
)

// Notifier delivers a push to every connection of a user. Delivery is best effort.
type Notifier interface {
	Push(userID, event string, data any)
}

// AgentPicker chooses the support agent for a new session.
type AgentPicker interface {
	LeastLoadedAgent(ctx context.Context) (string, error)
}

type Service struct {
	repo     chatrepo.Repository
	agents   AgentPicker
	notifier Notifier
	logger   zerolog.Logger
}

func New(repo chatrepo.Repository, agents AgentPicker, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		agents:   agents,
		notifier: notifier,
		logger:   logger.With().Str("service", "chat").Logger(),
	}
}

type NewChatPush struct {
	ChatID         string              `json:"chatId"`
	User           *domain.UserSummary `json:"user"`
	InitialMessage string              `json:"initialMessage"`
}

type NewMessagePush struct {
	ChatID  string             `json:"chatId"`
	Message domain.ChatMessage `json:"message"`
}

type ChatRef struct {
	ChatID string `json:"chatId"`
}

// Start returns the caller's active session, opening one with the least loaded
// agent when none exists. created is false for an existing session.
func (s *Service) Start(ctx context.Context, caller domain.Identity, userID, initialMessage string) (session *domain.ChatSession, created bool, err error) {
	const op = "chat.start"
	if caller.Role != domain.RoleCustomer {
		return nil, false, domain.Forbidden(op, "only customers can start a chat")
	}
	if userID != caller.ID {
		return nil, false, domain.Forbidden(op, "cannot start a chat for another user")
	}

	existing, err := s.repo.GetActiveByUser(ctx, caller.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	agentID, err := s.agents.LeastLoadedAgent(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.NotFound(op, "No support agents available")
		}
		return nil, false, err
	}

	opening := strings.TrimSpace(initialMessage)
	if opening == "" {
		opening = domain.DefaultOpeningMessage
	}
	session, err = s.repo.Create(ctx, caller.ID, agentID, []chatrepo.NewMessage{
		{Sender: domain.SenderCustomer, Text: opening},
		{Sender: domain.SenderAgent, Text: domain.AgentGreeting},
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// A concurrent start won the race.
		existing, err := s.repo.GetActiveByUser(ctx, caller.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	telemetry.ChatSessionsStarted.Inc()
	s.logger.Info().Str("chat_id", session.ID).Str("user_id", caller.ID).Str("agent_id", agentID).Msg("chat started")
	s.notifier.Push(agentID, EventNewChat, NewChatPush{
		ChatID:         session.ID,
		User:           session.User,
		InitialMessage: opening,
	})
	return session, true, nil
}

// Send appends a message from a participant and pushes it to the other party.
func (s *Service) Send(ctx context.Context, caller domain.Identity, chatID, text string) (*domain.ChatMessage, error) {
	const op = "chat.send"
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.Invalid(op, "message text required")
	}
	session, err := s.participantChat(ctx, op, caller, chatID)
	if err != nil {
		return nil, err
	}

	sender := domain.SenderCustomer
	recipient := session.AgentID
	if caller.ID == session.AgentID {
		sender = domain.SenderAgent
		recipient = session.UserID
	}
	msg, err := s.repo.AppendMessage(ctx, chatID, chatrepo.NewMessage{Sender: sender, Text: text})
	if err != nil {
		switch {
		case errors.Is(err, chatrepo.ErrClosed):
			return nil, domain.Invalid(op, "chat is closed")
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NotFound(op, "Chat not found")
		}
		return nil, err
	}

	telemetry.ChatMessagesRelayed.Inc()
	s.notifier.Push(recipient, EventNewMessage, NewMessagePush{ChatID: chatID, Message: *msg})
	return msg, nil
}

// History is readable by the session's participants and by any admin.
func (s *Service) History(ctx context.Context, caller domain.Identity, chatID string) (*domain.ChatSession, error) {
	const op = "chat.history"
	session, err := s.get(ctx, op, chatID)
	if err != nil {
		return nil, err
	}
	if !session.Participant(caller.ID) && !caller.IsAdmin() {
		return nil, domain.Forbidden(op, "You are not a participant in this chat")
	}
	return session, nil
}

func (s *Service) Close(ctx context.Context, caller domain.Identity, chatID string) (*domain.ChatSession, error) {
	const op = "chat.close"
	if _, err := s.participantChat(ctx, op, caller, chatID); err != nil {
		return nil, err
	}
	session, err := s.repo.Close(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "Chat not found")
		}
		return nil, err
	}
	s.notifyBoth(session, EventChatClosed)
	return session, nil
}

func (s *Service) List(ctx context.Context, caller domain.Identity) ([]domain.ChatSession, error) {
	if !caller.IsAdmin() {
		return nil, domain.Forbidden("chat.list", "only admins can list chats")
	}
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, caller domain.Identity, chatID string) error {
	const op = "chat.delete"
	if !caller.IsAdmin() {
		return domain.Forbidden(op, "only admins can delete chats")
	}
	session, err := s.repo.Delete(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(op, "Chat not found")
		}
		return err
	}
	s.logger.Info().Str("chat_id", chatID).Str("admin_id", caller.ID).Msg("chat deleted")
	s.notifyBoth(session, EventChatDeleted)
	return nil
}

func (s *Service) participantChat(ctx context.Context, op string, caller domain.Identity, chatID string) (*domain.ChatSession, error) {
	session, err := s.get(ctx, op, chatID)
	if err != nil {
		return nil, err
	}
	if !session.Participant(caller.ID) {
		return nil, domain.Forbidden(op, "You are not a participant in this chat")
	}
	return session, nil
}

func (s *Service) get(ctx context.Context, op, chatID string) (*domain.ChatSession, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, domain.Invalid(op, "chatId required")
	}
	session, err := s.repo.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "Chat not found")
		}
		return nil, err
	}
	return session, nil
}

func (s *Service) notifyBoth(session *domain.ChatSession, event string) {
	ref := ChatRef{ChatID: session.ID}
	s.notifier.Push(session.UserID, event, ref)
	s.notifier.Push(session.AgentID, event, ref)
}
