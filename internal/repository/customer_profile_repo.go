package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerProfileRepository implements CustomerProfileRepository using GORM
type GormCustomerProfileRepository struct {
	db *gorm.DB
}

// NewGormCustomerProfileRepository creates a new GORM customer profile repository
func NewGormCustomerProfileRepository(db *gorm.DB) *GormCustomerProfileRepository {
	return &GormCustomerProfileRepository{db: db}
}

// Lookup retrieves the active profile stored for callerID
func (r *GormCustomerProfileRepository) Lookup(ctx context.Context, callerID string) (domain.CustomerProfile, error) {
	var record domain.CustomerProfileRecord
	err := r.db.WithContext(ctx).
		Where("caller_id = ? AND disabled = ?", callerID, false).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CustomerProfile{}, domain.ErrProfileNotFound
		}
		return domain.CustomerProfile{}, fmt.Errorf("failed to get customer profile: %w", err)
	}

	return RecordToProfile(&record)
}

// Upsert creates or replaces the profile for record.CallerID. A disabled row is re-enabled
// when the record says so.
func (r *GormCustomerProfileRepository) Upsert(ctx context.Context, record *domain.CustomerProfileRecord) error {
	if record == nil || record.CallerID == "" {
		return fmt.Errorf("customer profile record requires a caller id")
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "caller_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_name", "account_status", "last_interaction",
			"loyalty_points", "preferred_language", "disabled", "updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert customer profile: %w", err)
	}
	return nil
}

// RecordToProfile maps a stored row onto the domain profile.
func RecordToProfile(record *domain.CustomerProfileRecord) (domain.CustomerProfile, error) {
	var profile domain.CustomerProfile
	if err := copier.Copy(&profile, record); err != nil {
		return domain.CustomerProfile{}, fmt.Errorf("failed to map customer profile: %w", err)
	}
	return profile, nil
}
