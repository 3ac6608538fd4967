package models

import "encoding/json"

// ProxyRequest is the single inbound request shape accepted by the proxy.
// Every call names an action plus the assistant it targets; action-specific
// fields travel in Data and are decoded by the handler for that action.
type ProxyRequest struct {
	Action        string          `json:"action"`
	AssistantName string          `json:"assistant_name,omitempty"`
	AssistantID   string          `json:"assistant_id,omitempty"`
	AssistantHost string          `json:"assistant_host,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Name returns the target assistant name, falling back to the assistant_id
// alias some clients send instead.
func (r *ProxyRequest) Name() string {
	if r.AssistantName != "" {
		return r.AssistantName
	}
	return r.AssistantID
}

// ChatMessage represents a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatData is the data payload for the chat action.
type ChatData struct {
	Message           string          `json:"message,omitempty"`
	Context           []ChatMessage   `json:"context,omitempty"`
	Model             string          `json:"model,omitempty"`
	Temperature       *float64        `json:"temperature,omitempty"`
	Filter            json.RawMessage `json:"filter,omitempty"`
	JSONResponse      bool            `json:"json_response,omitempty"`
	Stream            bool            `json:"stream,omitempty"`
	IncludeHighlights bool            `json:"include_highlights,omitempty"`
	ContextOptions    json.RawMessage `json:"context_options,omitempty"`
	TopK              *int            `json:"top_k,omitempty"`
}

// SearchData is the data payload for the search action. Messages takes
// priority over Query when both are supplied.
type SearchData struct {
	Query          string          `json:"query,omitempty"`
	Messages       []ChatMessage   `json:"messages,omitempty"`
	TopK           *int            `json:"top_k,omitempty"`
	Filter         json.RawMessage `json:"filter,omitempty"`
	ContextOptions json.RawMessage `json:"context_options,omitempty"`
}

// FileData is the data payload for the listFiles and deleteFile actions.
type FileData struct {
	FileID string          `json:"file_id,omitempty"`
	Filter json.RawMessage `json:"filter,omitempty"`
}
