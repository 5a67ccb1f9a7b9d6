package cache

import (
	"context"
	"fmt"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/service"
	"github.com/narwhalmedia/watchtrack/pkg/interfaces"
)

// ProfileKeyPrefix returns the prefix shared by every cached view of a profile.
func ProfileKeyPrefix(accountID, profileID int64) string {
	return fmt.Sprintf("profile:%d:%d:", accountID, profileID)
}

// ProfileKey builds a key for one cached view of a profile, e.g.
// ProfileKey(1, 123, "shows") == "profile:1:123:shows".
func ProfileKey(accountID, profileID int64, view string) string {
	return ProfileKeyPrefix(accountID, profileID) + view
}

// ProfileInvalidator drops every cached view of a profile.
type ProfileInvalidator struct {
	cache  interfaces.Cache
	logger interfaces.Logger
}

// NewProfileInvalidator creates an invalidator over cache.
func NewProfileInvalidator(cache interfaces.Cache, logger interfaces.Logger) *ProfileInvalidator {
	return &ProfileInvalidator{cache: cache, logger: logger}
}

// InvalidateProfileCache removes all keys under the profile's prefix.
func (p *ProfileInvalidator) InvalidateProfileCache(ctx context.Context, accountID, profileID int64) error {
	removed, err := p.cache.DeletePrefix(ctx, ProfileKeyPrefix(accountID, profileID))
	if err != nil {
		return fmt.Errorf("invalidating profile %d cache: %w", profileID, err)
	}

	p.logger.Debug("Profile cache invalidated",
		interfaces.Int64("account_id", accountID),
		interfaces.Int64("profile_id", profileID),
		interfaces.Int("removed", removed))
	return nil
}

var _ service.ProfileCacheInvalidator = (*ProfileInvalidator)(nil)
