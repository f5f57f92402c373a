package models

// Chat message roles. These match the roles understood by the completion
// backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single role-tagged entry in a session transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatExchange is one (user message, assistant reply) pair stored in the
// single-turn answer cache.
type ChatExchange struct {
	Key              string `json:"key"`
	UserMessage      string `json:"user_message"`
	AssistantMessage string `json:"assistant_message"`
}

// ChatSession is the persisted per-session conversational memory: the full
// transcript plus the text whose embedding currently represents the session.
type ChatSession struct {
	Key           string        `json:"key"`
	LatestMessage string        `json:"latest_message"`
	Transcript    []ChatMessage `json:"transcript"`
}

// ChatReply is the result of a conversational turn.
type ChatReply struct {
	SessionID        string `json:"session_id"`
	UserMessage      string `json:"user_message"`
	AssistantMessage string `json:"assistant_message"`
}
