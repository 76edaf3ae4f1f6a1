// Package alerts implements the windowed monitoring engine: it evaluates
// metric samples against severity thresholds and raises rate-limited
// operational alerts. Alerting is strictly best-effort and never fails or
// delays the request path that feeds it.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/solara-ai/inference-router/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// throughputKey is the single cooldown key for global throughput alerts
const throughputKey = "throughput"

// maxErrorSamplesInMetadata bounds how many recent errors ride along for triage
const maxErrorSamplesInMetadata = 5

// Store persists and queries alert records
type Store interface {
	CreateAlert(ctx context.Context, alert *models.AlertRecord) error
	ActiveAlerts(ctx context.Context) ([]models.AlertRecord, error)
	AcknowledgeAlert(ctx context.Context, id, userID string) (*models.AlertRecord, error)
}

// Notification is an admin-facing alert dispatch
type Notification struct {
	Title      string               `json:"title"`
	Message    string               `json:"message"`
	Severity   models.AlertSeverity `json:"severity"`
	Metadata   map[string]any       `json:"metadata,omitzero"`
	Recipients []string             `json:"recipients"`
}

// Notifier dispatches notifications to operators
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Engine owns the metric windows and the cooldown gate. Construct one per
// process and pass it by handle; tests instantiate isolated engines.
type Engine struct {
	cfg models.MonitoringConfig

	latency     *Window[models.LatencySample]
	throughput  *Window[models.ThroughputSample]
	errors      *Window[models.ErrorSample]
	tokenBudget *Window[models.TokenBudgetSample]
	cooldowns   *CooldownGate

	store    Store
	notifier Notifier
}

// NewEngine creates an alert engine with empty windows
func NewEngine(cfg models.MonitoringConfig, store Store, notifier Notifier) *Engine {
	return &Engine{
		cfg:         cfg.WithDefaults(),
		latency:     NewWindow[models.LatencySample](models.MetricRetention),
		throughput:  NewWindow[models.ThroughputSample](models.MetricRetention),
		errors:      NewWindow[models.ErrorSample](models.MetricRetention),
		tokenBudget: NewWindow[models.TokenBudgetSample](models.TokenBudgetRetention),
		cooldowns:   NewCooldownGate(),
		store:       store,
		notifier:    notifier,
	}
}

// TrackLatency records one latency sample and raises an alert when it crosses
// the configured bounds and the (model, category) cooldown has elapsed.
func (e *Engine) TrackLatency(model string, latencyMs int64, category string, metadata map[string]any) {
	e.latency.Append(models.LatencySample{
		Timestamp: time.Now(),
		Model:     model,
		LatencyMs: latencyMs,
		Category:  category,
	})

	severity := e.latencySeverity(latencyMs)
	if severity == "" {
		return
	}

	key := model + ":" + category
	if !e.cooldowns.TryAcquire(models.AlertTypeLatency, key, e.cfg.LatencyCooldown) {
		fiberlog.Debugf("alerts: latency alert for %s suppressed by cooldown", key)
		return
	}

	e.CreateAlert(&models.AlertRecord{
		Type:     models.AlertTypeLatency,
		Severity: severity,
		Message:  fmt.Sprintf("High latency for model %s: %dms (%s)", model, latencyMs, category),
		Metadata: mergeMetadata(metadata, map[string]any{
			"model":      model,
			"latency_ms": latencyMs,
			"category":   category,
		}),
	})
}

// latencySeverity returns the highest severity whose threshold is met, or
// empty when the sample is under the WARNING bound.
func (e *Engine) latencySeverity(latencyMs int64) models.AlertSeverity {
	switch {
	case latencyMs >= 2*e.cfg.LatencyPoorMs:
		return models.SeverityCritical
	case latencyMs >= e.cfg.LatencyPoorMs:
		return models.SeverityError
	case latencyMs >= e.cfg.LatencyAcceptableMs:
		return models.SeverityWarning
	default:
		return ""
	}
}

// TrackThroughput records one throughput sample against the configured
// requests-per-minute limit. Throughput alerts share one global cooldown key.
func (e *Engine) TrackThroughput(requestsPerMinute, tokensPerMinute float64, metadata map[string]any) {
	e.throughput.Append(models.ThroughputSample{
		Timestamp:         time.Now(),
		RequestsPerMinute: requestsPerMinute,
		TokensPerMinute:   tokensPerMinute,
	})

	limit := e.cfg.RequestsPerMinuteLimit
	var severity models.AlertSeverity
	switch {
	case requestsPerMinute >= 0.95*limit:
		severity = models.SeverityCritical
	case requestsPerMinute >= 0.9*limit:
		severity = models.SeverityError
	case requestsPerMinute >= 0.8*limit:
		severity = models.SeverityWarning
	default:
		return
	}

	if !e.cooldowns.TryAcquire(models.AlertTypeThroughput, throughputKey, e.cfg.ThroughputCooldown) {
		fiberlog.Debug("alerts: throughput alert suppressed by cooldown")
		return
	}

	e.CreateAlert(&models.AlertRecord{
		Type:     models.AlertTypeThroughput,
		Severity: severity,
		Message: fmt.Sprintf("Throughput at %.1f req/min against limit %.0f (%.0f%%)",
			requestsPerMinute, limit, 100*requestsPerMinute/limit),
		Metadata: mergeMetadata(metadata, map[string]any{
			"requests_per_minute": requestsPerMinute,
			"tokens_per_minute":   tokensPerMinute,
			"limit":               limit,
		}),
	})
}

// TrackTokenBudget records one budget-consumption sample for a user. Budget
// samples are retained for a day; alerts are keyed and cooled down per user.
func (e *Engine) TrackTokenBudget(userID string, totalTokens int64, budgetPercent float64, metadata map[string]any) {
	e.tokenBudget.Append(models.TokenBudgetSample{
		Timestamp:     time.Now(),
		UserID:        userID,
		TotalTokens:   totalTokens,
		BudgetPercent: budgetPercent,
	})

	var severity models.AlertSeverity
	switch {
	case budgetPercent >= 95:
		severity = models.SeverityCritical
	case budgetPercent >= 90:
		severity = models.SeverityError
	case budgetPercent >= 80:
		severity = models.SeverityWarning
	default:
		return
	}

	if !e.cooldowns.TryAcquire(models.AlertTypeTokenBudget, userID, e.cfg.TokenBudgetCooldown) {
		fiberlog.Debugf("alerts: token budget alert for user %s suppressed by cooldown", userID)
		return
	}

	e.CreateAlert(&models.AlertRecord{
		Type:     models.AlertTypeTokenBudget,
		Severity: severity,
		Message:  fmt.Sprintf("User %s at %.0f%% of token budget (%d tokens)", userID, budgetPercent, totalTokens),
		Metadata: mergeMetadata(metadata, map[string]any{
			"user_id":        userID,
			"total_tokens":   totalTokens,
			"budget_percent": budgetPercent,
		}),
	})
}

// TrackError records one provider error and evaluates the error rate for the
// model over the window. With no latency samples for the model the rate is
// undefined, so evaluation is skipped entirely rather than reporting a
// spurious 100% on cold start.
func (e *Engine) TrackError(model, errorMessage string, metadata map[string]any) {
	e.errors.Append(models.ErrorSample{
		Timestamp: time.Now(),
		Model:     model,
		ErrorText: errorMessage,
	})

	totalForModel := e.latency.Count(func(s models.LatencySample) bool { return s.Model == model })
	if totalForModel == 0 {
		fiberlog.Debugf("alerts: no request samples for model %s yet, skipping error-rate evaluation", model)
		return
	}

	errorsForModel := 0
	var recent []string
	for _, s := range e.errors.Snapshot() {
		if s.Model != model {
			continue
		}
		errorsForModel++
		recent = append(recent, s.ErrorText)
	}
	if len(recent) > maxErrorSamplesInMetadata {
		recent = recent[len(recent)-maxErrorSamplesInMetadata:]
	}

	errorRate := float64(errorsForModel) / float64(totalForModel)
	var severity models.AlertSeverity
	switch {
	case errorRate >= 0.20:
		severity = models.SeverityCritical
	case errorRate >= 0.10:
		severity = models.SeverityError
	case errorRate >= 0.05:
		severity = models.SeverityWarning
	default:
		return
	}

	if !e.cooldowns.TryAcquire(models.AlertTypeErrorRate, model, e.cfg.ErrorRateCooldown) {
		fiberlog.Debugf("alerts: error-rate alert for model %s suppressed by cooldown", model)
		return
	}

	e.CreateAlert(&models.AlertRecord{
		Type:     models.AlertTypeErrorRate,
		Severity: severity,
		Message: fmt.Sprintf("Error rate for model %s at %.1f%% (%d/%d requests)",
			model, 100*errorRate, errorsForModel, totalForModel),
		Metadata: mergeMetadata(metadata, map[string]any{
			"model":         model,
			"error_rate":    errorRate,
			"error_count":   errorsForModel,
			"total_count":   totalForModel,
			"recent_errors": recent,
		}),
	})
}

// CreateAlert persists an alert best-effort: log first, then write to the
// store, then notify operators on ERROR and CRITICAL. Every failure here is
// caught and logged; alerting must never break the request path.
func (e *Engine) CreateAlert(alert *models.AlertRecord) {
	defer func() {
		if r := recover(); r != nil {
			fiberlog.Errorf("alerts: panic while creating alert: %v", r)
		}
	}()

	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	fiberlog.Warnf("alerts: [%s/%s] %s", alert.Type, alert.Severity, alert.Message)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if e.store != nil {
		if err := e.store.CreateAlert(ctx, alert); err != nil {
			fiberlog.Errorf("alerts: failed to persist alert %s: %v", alert.ID, err)
		}
	}

	if e.notifier != nil && (alert.Severity == models.SeverityError || alert.Severity == models.SeverityCritical) {
		err := e.notifier.Notify(ctx, Notification{
			Title:      fmt.Sprintf("%s alert", alert.Type),
			Message:    alert.Message,
			Severity:   alert.Severity,
			Metadata:   alert.Metadata,
			Recipients: []string{"admin"},
		})
		if err != nil {
			fiberlog.Errorf("alerts: failed to notify for alert %s: %v", alert.ID, err)
		}
	}
}

// GetActiveAlerts returns unacknowledged alerts, newest first
func (e *Engine) GetActiveAlerts(ctx context.Context) ([]models.AlertRecord, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.ActiveAlerts(ctx)
}

// AcknowledgeAlert marks an alert acknowledged by a user
func (e *Engine) AcknowledgeAlert(ctx context.Context, id, userID string) (*models.AlertRecord, error) {
	if e.store == nil {
		return nil, models.NewNotFoundError("alert")
	}
	return e.store.AcknowledgeAlert(ctx, id, userID)
}

func mergeMetadata(base, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
