package repository

import (
	"fmt"

	"github.com/axellelanca/qrforge/internal/models"
	"gorm.io/gorm"
)

// EventRepository defines the append-only data access methods for
// analytics events.
type EventRepository interface {
	CreateEvent(event *models.AnalyticsEvent) error
	CountEventsByCodeID(codeID uint, eventType models.EventType) (int64, error)
	CountUniqueSessions(codeID uint) (int64, error)
	ListEventsByCodeID(codeID uint, limit int) ([]models.AnalyticsEvent, error)
}

// GormEventRepository is the EventRepository implementation using GORM.
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates and returns a new GormEventRepository.
func NewEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// CreateEvent appends a new analytics event.
func (r *GormEventRepository) CreateEvent(event *models.AnalyticsEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create analytics event: %w", err)
	}
	return nil
}

// CountEventsByCodeID counts events of one type for a given code.
func (r *GormEventRepository) CountEventsByCodeID(codeID uint, eventType models.EventType) (int64, error) {
	var count int64
	if err := r.db.Model(&models.AnalyticsEvent{}).
		Where("scannable_code_id = ? AND event_type = ?", codeID, eventType).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events for code %d: %w", codeID, err)
	}
	return count, nil
}

// CountUniqueSessions counts distinct session ids for a code, which is
// the unique-visitor figure given the day-granular session derivation.
func (r *GormEventRepository) CountUniqueSessions(codeID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.AnalyticsEvent{}).
		Where("scannable_code_id = ?", codeID).
		Distinct("session_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sessions for code %d: %w", codeID, err)
	}
	return count, nil
}

// ListEventsByCodeID retrieves the most recent events for a code.
func (r *GormEventRepository) ListEventsByCodeID(codeID uint, limit int) ([]models.AnalyticsEvent, error) {
	var events []models.AnalyticsEvent
	if err := r.db.Where("scannable_code_id = ?", codeID).
		Order("timestamp desc").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events for code %d: %w", codeID, err)
	}
	return events, nil
}
