package profile

import (
	"context"
	"errors"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"go.uber.org/zap"
)

// Resolver maps a caller id to exactly one profile. Implementations must be total:
// unknown, empty or malformed ids resolve to a guest profile, never to an error.
type Resolver interface {
	Resolve(ctx context.Context, callerID string) domain.CustomerProfile
}

// DirectoryResolver resolves against a Directory, trying the caller id verbatim and then
// in E.164 form.
type DirectoryResolver struct {
	directory Directory
	region    string
	guest     domain.CustomerProfile
}

// NewDirectoryResolver returns a resolver over directory. region is the ISO country used to
// interpret numbers that lack a country code.
func NewDirectoryResolver(directory Directory, region string) *DirectoryResolver {
	return &DirectoryResolver{
		directory: directory,
		region:    region,
		guest:     domain.GuestProfile(),
	}
}

// Resolve implements Resolver.
func (r *DirectoryResolver) Resolve(ctx context.Context, callerID string) domain.CustomerProfile {
	for _, candidate := range r.candidates(callerID) {
		p, err := r.directory.Lookup(ctx, candidate)
		if err == nil {
			return p.WithDefaults(r.guest)
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			logger.Warn(ctx, "profile lookup failed, using guest profile",
				zap.String("caller_id", callerID),
				zap.String("candidate", candidate),
				zap.Error(err))
			return r.guest
		}
	}

	logger.Debug(ctx, "no profile for caller, using guest profile", zap.String("caller_id", callerID))
	return r.guest
}

func (r *DirectoryResolver) candidates(callerID string) []string {
	out := []string{callerID}
	if normalized, ok := NormalizeE164(callerID, r.region); ok && normalized != callerID {
		out = append(out, normalized)
	}
	return out
}
