package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solara-ai/inference-router/internal/models"
	"gorm.io/gorm"
)

// AlertStore persists alert records and serves the acknowledge workflow
type AlertStore struct {
	db *DB
}

func NewAlertStore(db *DB) *AlertStore {
	return &AlertStore{db: db}
}

func (s *AlertStore) CreateAlert(ctx context.Context, alert *models.AlertRecord) error {
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to persist alert %s: %w", alert.ID, err)
	}
	return nil
}

// ActiveAlerts returns unacknowledged alerts, newest first
func (s *AlertStore) ActiveAlerts(ctx context.Context) ([]models.AlertRecord, error) {
	var alerts []models.AlertRecord
	err := s.db.WithContext(ctx).
		Where("acknowledged = ?", false).
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	return alerts, nil
}

// AcknowledgeAlert marks an alert as handled by the given operator.
// Acknowledging an already-acknowledged alert is a no-op that returns the
// stored record unchanged.
func (s *AlertStore) AcknowledgeAlert(ctx context.Context, id, userID string) (*models.AlertRecord, error) {
	var alert models.AlertRecord
	err := s.db.WithContext(ctx).First(&alert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("alert " + id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert %s: %w", id, err)
	}

	if alert.Acknowledged {
		return &alert, nil
	}

	now := time.Now().UTC()
	alert.Acknowledged = true
	alert.AcknowledgedBy = userID
	alert.AcknowledgedAt = &now

	if err := s.db.WithContext(ctx).Save(&alert).Error; err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert %s: %w", id, err)
	}
	return &alert, nil
}
