package models

// Message is a single conversation turn. Role is passed through unchecked.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationRequest is the payload sent to the chat endpoint.
type ConversationRequest struct {
	Model         string       `json:"model"`
	SystemMessage string       `json:"system_message"`
	Messages      Conversation `json:"messages"`
	Stream        bool         `json:"stream"`
	Think         bool         `json:"think"`
}

// ReplyEnvelope is the only successful response shape of the chat endpoint.
type ReplyEnvelope struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ModelsResponse struct {
	DefaultModel string   `json:"default_model"`
	Models       []string `json:"models"`
}
