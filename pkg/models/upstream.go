package models

import "encoding/json"

// ChatRequest is the payload posted to the per-assistant chat endpoint.
type ChatRequest struct {
	Messages          []ChatMessage   `json:"messages"`
	Model             string          `json:"model"`
	Temperature       float64         `json:"temperature"`
	Filter            json.RawMessage `json:"filter,omitempty"`
	JSONResponse      bool            `json:"json_response,omitempty"`
	IncludeHighlights bool            `json:"include_highlights"`
	ContextOptions    json.RawMessage `json:"context_options,omitempty"`
	TopK              *int            `json:"top_k,omitempty"`
}

// ChatResponse mirrors the upstream chat response fields the proxy maps.
type ChatResponse struct {
	Message   *ChatMessage      `json:"message,omitempty"`
	Citations []json.RawMessage `json:"citations,omitempty"`
	Usage     map[string]any    `json:"usage,omitempty"`
	Model     string            `json:"model,omitempty"`
}

// ContextRequest is the payload posted to the chat-context endpoint.
type ContextRequest struct {
	Messages       []ChatMessage   `json:"messages"`
	TopK           *int            `json:"top_k,omitempty"`
	Filter         json.RawMessage `json:"filter,omitempty"`
	ContextOptions json.RawMessage `json:"context_options,omitempty"`
}

// ContextResponse mirrors the upstream context-retrieval response.
type ContextResponse struct {
	Snippets []json.RawMessage `json:"snippets,omitempty"`
	Usage    map[string]any    `json:"usage,omitempty"`
	ID       string            `json:"id,omitempty"`
}

// DescribeResponse is the control-plane description of an assistant. Only
// Host is interpreted by the proxy; the full body is passed through raw.
type DescribeResponse struct {
	Name   string `json:"name,omitempty"`
	Host   string `json:"host,omitempty"`
	Status string `json:"status,omitempty"`
}
