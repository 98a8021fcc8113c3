package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
)

type failingDirectory struct{ err error }

func (d failingDirectory) Lookup(context.Context, string) (domain.CustomerProfile, error) {
	return domain.CustomerProfile{}, d.err
}

func TestDirectoryResolver_KnownCallers(t *testing.T) {
	r := NewDirectoryResolver(DefaultDirectory(), "SA")
	ctx := context.Background()

	p := r.Resolve(ctx, "+201069440375")
	assert.Equal(t, "عمران", p.CustomerName)
	assert.Equal(t, "مميز", p.AccountStatus)
	assert.Equal(t, "2023-10-15", p.LastInteraction)
	assert.Equal(t, "1250", p.LoyaltyPoints)
	assert.Equal(t, "ar", p.PreferredLanguage)

	p = r.Resolve(ctx, "+9665542744444")
	assert.Equal(t, "سلمان", p.CustomerName)
	assert.Equal(t, "450", p.LoyaltyPoints)
}

func TestDirectoryResolver_UnknownCallersGetGuest(t *testing.T) {
	r := NewDirectoryResolver(DefaultDirectory(), "SA")
	guest := domain.GuestProfile()

	for _, id := range []string{"", "Unknown", "+000000000", "not-a-number", "+14155550100", "   "} {
		t.Run(id, func(t *testing.T) {
			assert.Equal(t, guest, r.Resolve(context.Background(), id))
		})
	}
}

func TestDirectoryResolver_Deterministic(t *testing.T) {
	r := NewDirectoryResolver(DefaultDirectory(), "SA")
	for _, id := range []string{"+201069440375", "+000000000", "", "abc"} {
		first := r.Resolve(context.Background(), id)
		second := r.Resolve(context.Background(), id)
		assert.Equal(t, first, second)
		assert.True(t, first.IsComplete())
	}
}

func TestDirectoryResolver_FormattedNumberFallsBackToE164(t *testing.T) {
	r := NewDirectoryResolver(DefaultDirectory(), "SA")

	p := r.Resolve(context.Background(), "+20 106 944 0375")
	assert.Equal(t, "عمران", p.CustomerName)
}

func TestDirectoryResolver_DirectoryErrorGetsGuest(t *testing.T) {
	r := NewDirectoryResolver(failingDirectory{err: errors.New("connection reset")}, "SA")

	assert.Equal(t, domain.GuestProfile(), r.Resolve(context.Background(), "+201069440375"))
}

func TestDirectoryResolver_PartialRecordCompletedFromGuest(t *testing.T) {
	dir := NewStaticDirectory(map[string]domain.CustomerProfile{
		"+15550001111": {CustomerName: "Dana"},
	})
	r := NewDirectoryResolver(dir, "US")

	p := r.Resolve(context.Background(), "+15550001111")
	assert.Equal(t, "Dana", p.CustomerName)
	assert.Equal(t, domain.GuestProfile().AccountStatus, p.AccountStatus)
	assert.Equal(t, domain.GuestProfile().PreferredLanguage, p.PreferredLanguage)
	assert.True(t, p.IsComplete())
}

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		raw    string
		region string
		want   string
		ok     bool
	}{
		{"+201069440375", "SA", "+201069440375", true},
		{"+20 106 944 0375", "SA", "+201069440375", true},
		{"+20-106-944-0375", "", "+201069440375", true},
		{"", "SA", "", false},
		{"Unknown", "SA", "", false},
		{"+000000000", "SA", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeE164(tt.raw, tt.region)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
