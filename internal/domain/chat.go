package domain

import "time"

// Sender tags who wrote a chat message.
type Sender string

const (
	SenderCustomer Sender = "CUSTOMER"
	SenderAgent    Sender = "AGENT"
)

const (
	DefaultOpeningMessage = "Hello, I need help"
	AgentGreeting         = "How can I assist you?"
)

type ChatMessage struct {
	ID     string    `json:"id"`
	ChatID string    `json:"chatId"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"timestamp"`
}

// ChatSession is a support conversation between one customer and one agent.
type ChatSession struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	AgentID   string        `json:"agentId"`
	User      *UserSummary  `json:"user,omitempty"`
	Agent     *UserSummary  `json:"agent,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	IsActive  bool          `json:"isActive"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Participant reports whether id is the session's customer or agent.
func (c ChatSession) Participant(id string) bool {
	return id != "" && (id == c.UserID || id == c.AgentID)
}
