package domain

// WebSocket event types from client.
const (
	EventChatHistory     = "chat-history"
	EventGetProjectCode  = "get-project-code"
	EventChatMessage     = "chat-message"
	EventCodeChange      = "code-change"
	EventGetReview       = "get-review"
	EventSaveProjectCode = "save-project-code"
)

// WebSocket event types to client. chat-history, chat-message and
// code-change are echoed under the same name.
const (
	EventProjectCode = "project-code"
	EventCodeReview  = "code-review"
	EventError       = "error"
)

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseFrame is the base structure for all WebSocket frames.
type BaseFrame struct {
	Type string `json:"type"`
}

// ChatFrame carries a chat message in either direction.
type ChatFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CodeFrame carries a full code buffer. Used for code-change,
// get-review, save-project-code and project-code events.
type CodeFrame struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// MessageRecord is one chat log entry in a chat-history reply.
type MessageRecord struct {
	Text string `json:"text"`
}

// ChatHistoryFrame is the reply to a chat-history request, messages in
// append order.
type ChatHistoryFrame struct {
	Type     string          `json:"type"`
	Messages []MessageRecord `json:"messages"`
}

// ReviewFrame is the reply to a get-review request.
type ReviewFrame struct {
	Type   string `json:"type"`
	Review string `json:"review"`
}

// ErrorFrame reports a malformed or unknown inbound frame.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorFrame builds an error frame.
func NewErrorFrame(code, message string) *ErrorFrame {
	return &ErrorFrame{
		Type:    EventError,
		Code:    code,
		Message: message,
	}
}
