package chat

import "encoding/json"

// Reply events sent back to the requesting connection.
const (
	EventSuccess      = "success"
	EventError        = "error"
	EventChatHistory  = "chatHistory"
	EventAllChatsList = "allChatsList"
)

// inbound is a client command frame.
type inbound struct {
	Event     string          `json:"event"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// Frame is a server frame. RequestID echoes the command it answers; pushes leave it empty.
type Frame struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data"`
}

// Envelope is the body of success and error replies.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

func successFrame(requestID, message string, data any) Frame {
	return Frame{Event: EventSuccess, RequestID: requestID, Data: Envelope{Success: true, Message: message, Data: data}}
}

func errorFrame(requestID, message string, details any) Frame {
	return Frame{Event: EventError, RequestID: requestID, Data: Envelope{Success: false, Message: message, Details: details}}
}
