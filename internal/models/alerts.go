package models

import (
	"time"
)

// AlertType categorizes what a monitoring alert is about
type AlertType string

const (
	AlertTypeLatency          AlertType = "LATENCY"
	AlertTypeThroughput       AlertType = "THROUGHPUT"
	AlertTypeErrorRate        AlertType = "ERROR_RATE"
	AlertTypeTokenBudget      AlertType = "TOKEN_BUDGET"
	AlertTypeCachePerformance AlertType = "CACHE_PERFORMANCE"
)

// AlertSeverity ranks how urgent an alert is
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityError    AlertSeverity = "ERROR"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// AlertRecord is a persisted operational alert. Created by the alert engine,
// mutated only by an explicit acknowledge operation.
type AlertRecord struct {
	ID             string         `json:"id" gorm:"primaryKey;size:64"`
	Type           AlertType      `json:"type" gorm:"size:32;index"`
	Severity       AlertSeverity  `json:"severity" gorm:"size:16;index"`
	Message        string         `json:"message"`
	Metadata       map[string]any `json:"metadata,omitzero" gorm:"serializer:json"`
	Acknowledged   bool           `json:"acknowledged" gorm:"index"`
	AcknowledgedBy string         `json:"acknowledged_by,omitzero" gorm:"size:128"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitzero"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
}

// TableName sets the alerts table name for gorm
func (AlertRecord) TableName() string {
	return "alerts"
}

// LatencySample is one timestamped latency observation
type LatencySample struct {
	Timestamp time.Time
	Model     string
	LatencyMs int64
	Category  string
}

// ThroughputSample is one timestamped throughput observation
type ThroughputSample struct {
	Timestamp         time.Time
	RequestsPerMinute float64
	TokensPerMinute   float64
}

// ErrorSample is one timestamped provider-error observation
type ErrorSample struct {
	Timestamp time.Time
	Model     string
	ErrorText string
}

// TokenBudgetSample is one timestamped budget-consumption observation
type TokenBudgetSample struct {
	Timestamp     time.Time
	UserID        string
	TotalTokens   int64
	BudgetPercent float64
}

// Latency category labels, ordered from best to worst
const (
	LatencyExcellent  = "excellent"
	LatencyGood       = "good"
	LatencyAcceptable = "acceptable"
	LatencyPoor       = "poor"
	LatencyCritical   = "critical"
)

// LatencyCategory buckets a latency measurement for observability labeling.
// Boundaries are inclusive on the upper bound of each bucket.
func LatencyCategory(latencyMs int64) string {
	switch {
	case latencyMs <= 100:
		return LatencyExcellent
	case latencyMs <= 300:
		return LatencyGood
	case latencyMs <= 1000:
		return LatencyAcceptable
	case latencyMs <= 3000:
		return LatencyPoor
	default:
		return LatencyCritical
	}
}
