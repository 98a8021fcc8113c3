package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/jinzhu/copier"
)

// ProfileWriter is the write side of the customer profile store.
type ProfileWriter interface {
	Upsert(ctx context.Context, record *domain.CustomerProfileRecord) error
}

// SeedCustomerProfiles upserts every profile, keyed by caller id, and returns how many were written.
// Seeded rows are always enabled.
func SeedCustomerProfiles(ctx context.Context, writer ProfileWriter, profiles map[string]domain.CustomerProfile) (int, error) {
	callerIDs := make([]string, 0, len(profiles))
	for id := range profiles {
		callerIDs = append(callerIDs, id)
	}
	sort.Strings(callerIDs)

	written := 0
	for _, id := range callerIDs {
		record, err := ProfileToRecord(id, profiles[id])
		if err != nil {
			return written, err
		}
		if err := writer.Upsert(ctx, record); err != nil {
			return written, fmt.Errorf("failed to seed customer %s: %w", id, err)
		}
		written++
	}
	return written, nil
}

// ProfileToRecord is the inverse of RecordToProfile.
func ProfileToRecord(callerID string, profile domain.CustomerProfile) (*domain.CustomerProfileRecord, error) {
	record := &domain.CustomerProfileRecord{}
	if err := copier.Copy(record, &profile); err != nil {
		return nil, fmt.Errorf("failed to map customer profile %s: %w", callerID, err)
	}
	record.CallerID = callerID
	record.Disabled = false
	return record, nil
}
