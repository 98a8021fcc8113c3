package profile

import (
	"context"
	"fmt"
	"os"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"gopkg.in/yaml.v3"
)

// Directory looks up stored profiles by caller id.
// Implementations return domain.ErrProfileNotFound on a miss.
type Directory interface {
	Lookup(ctx context.Context, callerID string) (domain.CustomerProfile, error)
}

// StaticDirectory is a read-only in-memory directory. It is safe for concurrent use
// because it is never mutated after construction.
type StaticDirectory struct {
	profiles map[string]domain.CustomerProfile
}

// NewStaticDirectory copies profiles into a new directory.
func NewStaticDirectory(profiles map[string]domain.CustomerProfile) *StaticDirectory {
	m := make(map[string]domain.CustomerProfile, len(profiles))
	for id, p := range profiles {
		m[id] = p
	}
	return &StaticDirectory{profiles: m}
}

// DefaultDirectory returns the built-in demo customers.
func DefaultDirectory() *StaticDirectory {
	return NewStaticDirectory(map[string]domain.CustomerProfile{
		"+201069440375": {
			CustomerName:      "عمران",
			AccountStatus:     "مميز",
			LastInteraction:   "2023-10-15",
			LoyaltyPoints:     "1250",
			PreferredLanguage: domain.LanguageArabic,
		},
		"+9665542744444": {
			CustomerName:      "سلمان",
			AccountStatus:     "عادي",
			LastInteraction:   "2023-11-20",
			LoyaltyPoints:     "450",
			PreferredLanguage: domain.LanguageArabic,
		},
	})
}

// Lookup implements Directory.
func (d *StaticDirectory) Lookup(_ context.Context, callerID string) (domain.CustomerProfile, error) {
	p, ok := d.profiles[callerID]
	if !ok {
		return domain.CustomerProfile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

// Len returns the number of stored profiles.
func (d *StaticDirectory) Len() int {
	return len(d.profiles)
}

// Entries returns a copy of the stored profiles keyed by caller id.
func (d *StaticDirectory) Entries() map[string]domain.CustomerProfile {
	m := make(map[string]domain.CustomerProfile, len(d.profiles))
	for id, p := range d.profiles {
		m[id] = p
	}
	return m
}

type directoryFile struct {
	Customers []directoryEntry `yaml:"customers"`
}

type directoryEntry struct {
	CallerID               string `yaml:"caller_id"`
	domain.CustomerProfile `yaml:",inline"`
}

// LoadStaticDirectory reads a YAML customer file:
//
//	customers:
//	  - caller_id: "+201069440375"
//	    customer_name: "عمران"
//	    account_status: "مميز"
//	    ...
//
// Caller ids are stored in E.164 form when they parse as phone numbers in region.
func LoadStaticDirectory(path, region string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	return ParseStaticDirectory(data, region)
}

// ParseStaticDirectory is LoadStaticDirectory for an in-memory document.
func ParseStaticDirectory(data []byte, region string) (*StaticDirectory, error) {
	var file directoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	profiles := make(map[string]domain.CustomerProfile, len(file.Customers))
	for i, entry := range file.Customers {
		if entry.CallerID == "" {
			return nil, fmt.Errorf("customer %d: caller_id is required", i)
		}
		if entry.CustomerName == "" {
			return nil, fmt.Errorf("customer %s: customer_name is required", entry.CallerID)
		}

		key := entry.CallerID
		if normalized, ok := NormalizeE164(entry.CallerID, region); ok {
			key = normalized
		}
		if _, dup := profiles[key]; dup {
			return nil, fmt.Errorf("customer %s: duplicate caller_id", entry.CallerID)
		}
		profiles[key] = entry.CustomerProfile
	}

	return &StaticDirectory{profiles: profiles}, nil
}
