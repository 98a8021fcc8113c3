package domain

import (
	"errors"
	"time"
)

// CustomerProfile describes a caller (or the guest caller) to the voice agent.
type CustomerProfile struct {
	CustomerName      string `json:"customer_name" yaml:"customer_name"`
	AccountStatus     string `json:"account_status" yaml:"account_status"`
	LastInteraction   string `json:"last_interaction" yaml:"last_interaction"`
	LoyaltyPoints     string `json:"loyalty_points" yaml:"loyalty_points"`
	PreferredLanguage string `json:"preferred_language" yaml:"preferred_language"`
}

// GuestProfile is returned for every caller the directory does not know.
func GuestProfile() CustomerProfile {
	return CustomerProfile{
		CustomerName:      "زائر",
		AccountStatus:     "عادي",
		LastInteraction:   "لا يوجد",
		LoyaltyPoints:     "0",
		PreferredLanguage: LanguageArabic,
	}
}

// IsComplete reports whether every field is non-empty.
func (p CustomerProfile) IsComplete() bool {
	return p.CustomerName != "" &&
		p.AccountStatus != "" &&
		p.LastInteraction != "" &&
		p.LoyaltyPoints != "" &&
		p.PreferredLanguage != ""
}

// WithDefaults fills empty fields of p from fallback.
func (p CustomerProfile) WithDefaults(fallback CustomerProfile) CustomerProfile {
	if p.CustomerName == "" {
		p.CustomerName = fallback.CustomerName
	}
	if p.AccountStatus == "" {
		p.AccountStatus = fallback.AccountStatus
	}
	if p.LastInteraction == "" {
		p.LastInteraction = fallback.LastInteraction
	}
	if p.LoyaltyPoints == "" {
		p.LoyaltyPoints = fallback.LoyaltyPoints
	}
	if p.PreferredLanguage == "" {
		p.PreferredLanguage = fallback.PreferredLanguage
	}
	return p
}

// DynamicVariables flattens the profile into the variable set injected into the agent runtime.
func (p CustomerProfile) DynamicVariables() map[string]string {
	return map[string]string{
		"customer_name":      p.CustomerName,
		"account_status":     p.AccountStatus,
		"last_interaction":   p.LastInteraction,
		"loyalty_points":     p.LoyaltyPoints,
		"preferred_language": p.PreferredLanguage,
	}
}

// CustomerProfileRecord is the persisted form of a profile, keyed by caller id.
type CustomerProfileRecord struct {
	CallerID          string    `json:"caller_id" gorm:"type:varchar(32);primary_key"`
	CustomerName      string    `json:"customer_name" gorm:"type:varchar(255);not null"`
	AccountStatus     string    `json:"account_status" gorm:"type:varchar(64)"`
	LastInteraction   string    `json:"last_interaction" gorm:"type:varchar(64)"`
	LoyaltyPoints     string    `json:"loyalty_points" gorm:"type:varchar(32)"`
	PreferredLanguage string    `json:"preferred_language" gorm:"type:varchar(8)"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Disabled          bool      `json:"disabled" gorm:"default:false"`
}

// TableName sets the table name for CustomerProfileRecord
func (CustomerProfileRecord) TableName() string {
	return "customer_profiles"
}

// ErrProfileNotFound is returned by profile directories on a miss.
var ErrProfileNotFound = errors.New("customer profile not found")
