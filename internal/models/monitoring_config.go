package models

import "time"

// MonitoringConfig holds alert thresholds and cooldown settings. Zero values
// are replaced with the defaults below at load time, so a config file only
// needs to name what it changes.
type MonitoringConfig struct {
	Enabled bool `json:"enabled,omitzero" yaml:"enabled"`

	// Latency bounds in milliseconds. WARNING fires at Acceptable, ERROR at
	// Poor, CRITICAL at twice Poor.
	LatencyAcceptableMs int64 `json:"latency_acceptable_ms,omitzero" yaml:"latency_acceptable_ms"`
	LatencyPoorMs       int64 `json:"latency_poor_ms,omitzero" yaml:"latency_poor_ms"`

	// RequestsPerMinuteLimit is the throughput ceiling alerts are computed
	// against (WARNING at 80%, ERROR at 90%, CRITICAL at 95%).
	RequestsPerMinuteLimit float64 `json:"requests_per_minute_limit,omitzero" yaml:"requests_per_minute_limit"`

	// TokenBudgetDaily is the per-user daily token budget consumption alerts
	// are computed against (WARNING at 80%, ERROR at 90%, CRITICAL at 95%).
	TokenBudgetDaily int64 `json:"token_budget_daily,omitzero" yaml:"token_budget_daily"`

	// Cooldown intervals per alert category
	LatencyCooldown     time.Duration `json:"latency_cooldown,omitzero" yaml:"latency_cooldown"`
	ThroughputCooldown  time.Duration `json:"throughput_cooldown,omitzero" yaml:"throughput_cooldown"`
	ErrorRateCooldown   time.Duration `json:"error_rate_cooldown,omitzero" yaml:"error_rate_cooldown"`
	TokenBudgetCooldown time.Duration `json:"token_budget_cooldown,omitzero" yaml:"token_budget_cooldown"`
}

// Monitoring defaults
const (
	DefaultLatencyAcceptableMs    = int64(1000)
	DefaultLatencyPoorMs          = int64(3000)
	DefaultRequestsPerMinuteLimit = float64(300)
	DefaultTokenBudgetDaily       = int64(1_000_000)

	DefaultLatencyCooldown     = 5 * time.Minute
	DefaultThroughputCooldown  = 10 * time.Minute
	DefaultErrorRateCooldown   = 15 * time.Minute
	DefaultTokenBudgetCooldown = 30 * time.Minute

	// Sample retention windows
	MetricRetention      = time.Hour
	TokenBudgetRetention = 24 * time.Hour
)

// WithDefaults returns a copy with unset fields replaced by defaults
func (m MonitoringConfig) WithDefaults() MonitoringConfig {
	if m.LatencyAcceptableMs <= 0 {
		m.LatencyAcceptableMs = DefaultLatencyAcceptableMs
	}
	if m.LatencyPoorMs <= 0 {
		m.LatencyPoorMs = DefaultLatencyPoorMs
	}
	if m.RequestsPerMinuteLimit <= 0 {
		m.RequestsPerMinuteLimit = DefaultRequestsPerMinuteLimit
	}
	if m.TokenBudgetDaily <= 0 {
		m.TokenBudgetDaily = DefaultTokenBudgetDaily
	}
	if m.LatencyCooldown <= 0 {
		m.LatencyCooldown = DefaultLatencyCooldown
	}
	if m.ThroughputCooldown <= 0 {
		m.ThroughputCooldown = DefaultThroughputCooldown
	}
	if m.ErrorRateCooldown <= 0 {
		m.ErrorRateCooldown = DefaultErrorRateCooldown
	}
	if m.TokenBudgetCooldown <= 0 {
		m.TokenBudgetCooldown = DefaultTokenBudgetCooldown
	}
	return m
}
