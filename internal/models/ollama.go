package models

// OllamaChatRequest is the body of POST /api/chat.
type OllamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Think    bool      `json:"think"`
}

type OllamaResponseMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
}

// OllamaChatResponse is one /api/chat response, or one NDJSON chunk when
// streaming.
type OllamaChatResponse struct {
	Model      string                 `json:"model"`
	CreatedAt  string                 `json:"created_at"`
	Message    *OllamaResponseMessage `json:"message"`
	Done       bool                   `json:"done"`
	DoneReason string                 `json:"done_reason,omitempty"`
}

type OllamaModel struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
	Digest     string `json:"digest"`
}

type OllamaTagsResponse struct {
	Models []OllamaModel `json:"models"`
}
