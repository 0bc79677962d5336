package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"coffeespot/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service is the chat session logic the router dispatches to.
type Service interface {
	Start(ctx context.Context, caller domain.Identity, userID, initialMessage string) (*domain.ChatSession, bool, error)
	Send(ctx context.Context, caller domain.Identity, chatID, text string) (*domain.ChatMessage, error)
	History(ctx context.Context, caller domain.Identity, chatID string) (*domain.ChatSession, error)
	Close(ctx context.Context, caller domain.Identity, chatID string) (*domain.ChatSession, error)
	List(ctx context.Context, caller domain.Identity) ([]domain.ChatSession, error)
	Delete(ctx context.Context, caller domain.Identity, chatID string) error
}

type startChatData struct {
	UserID         string `json:"userId" validate:"required"`
	InitialMessage string `json:"initialMessage" validate:"max=2000"`
}

type sendMessageData struct {
	ChatID string `json:"chatId" validate:"required"`
	Text   string `json:"text" validate:"required,max=2000"`
}

type chatRefData struct {
	ChatID string `json:"chatId" validate:"required"`
}

type historyData struct {
	ChatID   string               `json:"chatId"`
	User     *domain.UserSummary  `json:"user"`
	Agent    *domain.UserSummary  `json:"agent"`
	Messages []domain.ChatMessage `json:"messages"`
	IsActive bool                 `json:"isActive"`
}

// Router decodes command frames, validates their payloads, and answers with a
// single reply frame.
type Router struct {
	svc      Service
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewRouter(svc Service, logger zerolog.Logger) *Router {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Router{
		svc:      svc,
		validate: v,
		logger:   logger.With().Str("component", "chat_router").Logger(),
	}
}

// Handle processes one raw frame from caller and returns the reply.
func (r *Router) Handle(ctx context.Context, caller domain.Identity, raw []byte) Frame {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return errorFrame("", "malformed frame", nil)
	}
	reply, err := r.dispatch(ctx, caller, in)
	if err != nil {
		return r.fail(in, caller, err)
	}
	reply.RequestID = in.RequestID
	return reply
}

func (r *Router) dispatch(ctx context.Context, caller domain.Identity, in inbound) (Frame, error) {
	switch in.Event {
	case "startChat":
		var d startChatData
		if err := r.decode(in.Data, &d); err != nil {
			return Frame{}, err
		}
		session, created, err := r.svc.Start(ctx, caller, d.UserID, d.InitialMessage)
		if err != nil {
			return Frame{}, err
		}
		msg := "Chat started"
		if !created {
			msg = "Existing chat found"
		}
		return successFrame("", msg, session), nil

	case "sendMessage":
		var d sendMessageData
		if err := r.decode(in.Data, &d); err != nil {
			return Frame{}, err
		}
		m, err := r.svc.Send(ctx, caller, d.ChatID, d.Text)
		if err != nil {
			return Frame{}, err
		}
		return successFrame("", "Message sent", m), nil

	case "getChatHistory":
		var d chatRefData
		if err := r.decode(in.Data, &d); err != nil {
			return Frame{}, err
		}
		s, err := r.svc.History(ctx, caller, d.ChatID)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Event: EventChatHistory, Data: historyData{
			ChatID:   s.ID,
			User:     s.User,
			Agent:    s.Agent,
			Messages: s.Messages,
			IsActive: s.IsActive,
		}}, nil

	case "closeChat":
		var d chatRefData
		if err := r.decode(in.Data, &d); err != nil {
			return Frame{}, err
		}
		if _, err := r.svc.Close(ctx, caller, d.ChatID); err != nil {
			return Frame{}, err
		}
		return successFrame("", "Chat closed", map[string]string{"chatId": d.ChatID}), nil

	case "getAllChats":
		sessions, err := r.svc.List(ctx, caller)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Event: EventAllChatsList, Data: sessions}, nil

	case "deleteChat":
		var d chatRefData
		if err := r.decode(in.Data, &d); err != nil {
			return Frame{}, err
		}
		if err := r.svc.Delete(ctx, caller, d.ChatID); err != nil {
			return Frame{}, err
		}
		return successFrame("", "Chat deleted", map[string]string{"chatId": d.ChatID}), nil
	}
	return Frame{}, domain.Invalid("chat.dispatch", "unknown event")
}

// validationError carries per-field failures back to the client.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.fields)
}

func (r *Router) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.Invalid("chat.decode", "malformed data")
	}
	if err := r.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return &validationError{fields: fields}
		}
		return domain.Invalid("chat.decode", "invalid data")
	}
	return nil
}

func (r *Router) fail(in inbound, caller domain.Identity, err error) Frame {
	var verr *validationError
	if errors.As(err, &verr) {
		return errorFrame(in.RequestID, "validation failed", verr.fields)
	}
	if domain.ErrorCode(err) == domain.EINTERNAL {
		r.logger.Error().Err(err).Str("event", in.Event).Str("user_id", caller.ID).Msg("command failed")
	}
	return errorFrame(in.RequestID, domain.ErrorMessage(err), nil)
}
