package models

import "time"

// AuditEntry represents a single proxied request/response pair.
type AuditEntry struct {
	RequestID    string    `json:"request_id"`
	Action       string    `json:"action"`
	Assistant    string    `json:"assistant"`
	StatusCode   int       `json:"status_code"`
	ErrorMessage string    `json:"error,omitempty"`
	RequestBody  string    `json:"request_body,omitempty"`
	ResponseBody string    `json:"response_body,omitempty"`
	LatencyMs    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditConfig controls the audit logging subsystem.
type AuditConfig struct {
	Enabled       bool     `yaml:"enabled"`
	DBPath        string   `yaml:"db_path"`
	RetentionDays int      `yaml:"retention_days"`
	Include       []string `yaml:"include"`       // "requests", "responses"
	MaxBodySize   int      `yaml:"max_body_size"` // bytes
}

// AuditQueryOpts specifies filters for querying audit entries.
type AuditQueryOpts struct {
	Action    string
	Assistant string
	Since     time.Time
	RequestID string
	Limit     int
}

// AuditStat holds aggregate audit counts for an action/day combination.
type AuditStat struct {
	Action string
	Day    string
	Count  int
}
