package store

import (
	"context"
	"fmt"

	"github.com/solara-ai/inference-router/internal/models"
)

// RequestLogStore persists per-request provenance records
type RequestLogStore struct {
	db *DB
}

func NewRequestLogStore(db *DB) *RequestLogStore {
	return &RequestLogStore{db: db}
}

func (s *RequestLogStore) CreateRequestLog(ctx context.Context, log *models.RequestLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to persist request log %s: %w", log.RequestID, err)
	}
	return nil
}

// RecentByUser returns a user's latest request logs, newest first
func (s *RequestLogStore) RecentByUser(ctx context.Context, userID string, limit int) ([]models.RequestLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.RequestLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query request logs for %s: %w", userID, err)
	}
	return logs, nil
}
