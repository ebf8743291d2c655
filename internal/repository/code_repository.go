package repository

import (
	"fmt"
	"time"

	"github.com/axellelanca/qrforge/internal/models"
	"gorm.io/gorm"
)

// CodeRepository defines the data access methods for scannable codes.
type CodeRepository interface {
	CreateCode(code *models.ScannableCode) error
	GetCodeByID(id uint) (*models.ScannableCode, error)
	GetCodeByShortCode(shortCode string) (*models.ScannableCode, error)
	UpdateCode(code *models.ScannableCode) error
	DeleteCode(id uint) error
	ListCodesByOwner(owner string) ([]models.ScannableCode, error)
	RecordScan(codeID uint, event *models.AnalyticsEvent) error
	ExpireDue(now time.Time) (int64, error)
}

// GormCodeRepository is the CodeRepository implementation using GORM.
type GormCodeRepository struct {
	db *gorm.DB
}

// NewCodeRepository creates and returns a new GormCodeRepository.
func NewCodeRepository(db *gorm.DB) *GormCodeRepository {
	return &GormCodeRepository{db: db}
}

// CreateCode inserts a new scannable code. Short-code uniqueness is
// enforced by the storage layer's unique index, not application locking.
func (r *GormCodeRepository) CreateCode(code *models.ScannableCode) error {
	if err := r.db.Create(code).Error; err != nil {
		return fmt.Errorf("failed to create code: %w", err)
	}
	return nil
}

// GetCodeByID retrieves a code by its primary key.
func (r *GormCodeRepository) GetCodeByID(id uint) (*models.ScannableCode, error) {
	var code models.ScannableCode
	if err := r.db.First(&code, id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// GetCodeByShortCode retrieves a code using its short code.
func (r *GormCodeRepository) GetCodeByShortCode(shortCode string) (*models.ScannableCode, error) {
	var code models.ScannableCode
	if err := r.db.Where("short_code = ?", shortCode).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// UpdateCode persists the current state of a code. The scan counters
// are excluded: they only ever move through RecordScan, so a caller
// holding a stale snapshot can never roll back a concurrent increment.
func (r *GormCodeRepository) UpdateCode(code *models.ScannableCode) error {
	if err := r.db.Omit("scan_count", "last_scanned_at").Save(code).Error; err != nil {
		return fmt.Errorf("failed to update code %d: %w", code.ID, err)
	}
	return nil
}

// DeleteCode removes a code. Its analytics events are retained.
func (r *GormCodeRepository) DeleteCode(id uint) error {
	if err := r.db.Delete(&models.ScannableCode{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete code %d: %w", id, err)
	}
	return nil
}

// ListCodesByOwner retrieves all codes belonging to an owner.
func (r *GormCodeRepository) ListCodesByOwner(owner string) ([]models.ScannableCode, error) {
	var codes []models.ScannableCode
	if err := r.db.Where("owner = ?", owner).Order("created_at desc").Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("failed to list codes for owner %s: %w", owner, err)
	}
	return codes, nil
}

// RecordScan commits one resolution: the counter increment, the
// last-scanned timestamp and the analytics event append run inside a
// single transaction, so either both writes land or neither does. The
// increment is expressed in SQL so concurrent scans of the same code
// serialize without lost updates.
func (r *GormCodeRepository) RecordScan(codeID uint, event *models.AnalyticsEvent) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ScannableCode{}).
			Where("id = ?", codeID).
			UpdateColumns(map[string]interface{}{
				"scan_count":      gorm.Expr("scan_count + ?", 1),
				"last_scanned_at": event.Timestamp,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(event).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record scan for code %d: %w", codeID, err)
	}
	return nil
}

// ExpireDue flips every Active code whose expiry has passed to Expired
// and returns how many rows changed.
func (r *GormCodeRepository) ExpireDue(now time.Time) (int64, error) {
	res := r.db.Model(&models.ScannableCode{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.StatusActive, now).
		UpdateColumn("status", models.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
