package models

import "time"

// RequestLog is the persisted provenance record written by the tracked
// adapter for requests carrying a user identity.
type RequestLog struct {
	ID          uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	RequestID   string      `json:"request_id" gorm:"size:64;index"`
	UserID      string      `json:"user_id,omitzero" gorm:"size:128;index"`
	SessionID   string      `json:"session_id,omitzero" gorm:"size:128"`
	AgentID     string      `json:"agent_id,omitzero" gorm:"size:128"`
	Module      string      `json:"module,omitzero" gorm:"size:64"`
	RequestType RequestType `json:"request_type,omitzero" gorm:"size:32"`
	Provider    Provider    `json:"provider" gorm:"size:32;index"`
	Model       string      `json:"model" gorm:"size:128;index"`
	Tier        ModelTier   `json:"tier,omitzero" gorm:"size:16"`

	Prompt     string `json:"prompt,omitzero"`
	Completion string `json:"completion,omitzero"`

	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
	LatencyMs        int64  `json:"latency_ms"`
	CacheTier        string `json:"cache_tier,omitzero" gorm:"size:16"`
	ErrorText        string `json:"error_text,omitzero"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName sets the request log table name for gorm
func (RequestLog) TableName() string {
	return "request_logs"
}
