package models

import "encoding/json"

// SuccessEnvelope wraps every successful action response.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Data    any    `json:"data"`
}

// ErrorEnvelope wraps every failed request.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// ChatResult is the normalized output of the chat action.
type ChatResult struct {
	Response  string            `json:"response"`
	Citations []json.RawMessage `json:"citations"`
	Usage     map[string]any    `json:"usage"`
	Model     string            `json:"model,omitempty"`
}

// SearchResult is the normalized output of the search action.
type SearchResult struct {
	Snippets []json.RawMessage `json:"snippets"`
	Usage    map[string]any    `json:"usage"`
	ID       string            `json:"id,omitempty"`
}

// DeleteResult acknowledges a file deletion.
type DeleteResult struct {
	Deleted bool   `json:"deleted"`
	FileID  string `json:"file_id"`
}

// StoreLimits is the informational payload returned by the store stub while
// file upload remains deferred to the platform's own API.
type StoreLimits struct {
	MaxFileSizeBytes int64    `json:"max_file_size_bytes"`
	AcceptedTypes    []string `json:"accepted_types"`
	UploadHint       string   `json:"upload_hint"`
}
