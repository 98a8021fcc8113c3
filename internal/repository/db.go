package repository

import (
	"context"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"gorm.io/gorm"
)

// CustomerProfileRepository defines the interface for customer profile operations
type CustomerProfileRepository interface {
	// Lookup returns the active profile for callerID, or domain.ErrProfileNotFound.
	Lookup(ctx context.Context, callerID string) (domain.CustomerProfile, error)
	ProfileWriter
}

// RepositoryManager combines all repositories
type RepositoryManager interface {
	CustomerProfile() CustomerProfileRepository

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db                  *gorm.DB
	customerProfileRepo *GormCustomerProfileRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:                  db,
		customerProfileRepo: NewGormCustomerProfileRepository(db),
	}
}

// CustomerProfile returns the customer profile repository
func (m *GormRepositoryManager) CustomerProfile() CustomerProfileRepository {
	return m.customerProfileRepo
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
