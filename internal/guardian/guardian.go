// Package guardian is the capability evaluator: it answers "may actor X do
// Y to theme T" with pure predicates over the actor, the theme, the shared
// flag and the owner's group memberships. Predicates are total — nil actors
// and nil themes are simply denied — and every failure of an injected reader
// fails closed.
package guardian

import (
	"log/slog"

	"github.com/google/uuid"

	"themesandbox/internal/models"
)

// SharedFlags reads a theme's shared flag. Implemented by
// store.SharedFlagStore; reads must hit the store, never a cache.
type SharedFlags interface {
	ThemeShared(themeID int64) bool
}

// GroupMembership answers group allow-list checks. Implemented by
// store.UserStore.
type GroupMembership interface {
	InAnyGroup(userID uuid.UUID, names []string) (bool, error)
}

// ThemeLookup resolves theme keys. Implemented by store.ThemeStore.
type ThemeLookup interface {
	FindByKey(key string) (*models.Theme, error)
}

// Guardian evaluates theme capabilities. The share group allow-list is
// fixed at construction from configuration; membership itself is evaluated
// per call.
type Guardian struct {
	flags       SharedFlags
	groups      GroupMembership
	themes      ThemeLookup
	shareGroups []string
}

// New creates a Guardian. shareGroups empty means every user may share.
func New(flags SharedFlags, groups GroupMembership, themes ThemeLookup, shareGroups []string) *Guardian {
	return &Guardian{
		flags:       flags,
		groups:      groups,
		themes:      themes,
		shareGroups: shareGroups,
	}
}

// CanSeeTheme is the general "may view in any legitimate flow" predicate:
// staff, the owner, or anyone when the theme is shared AND its owner holds
// sharing permission. The owner clause ignores the shared flag entirely.
func (g *Guardian) CanSeeTheme(actor *models.User, theme *models.Theme) bool {
	if actor == nil || theme == nil {
		return false
	}
	if actor.IsStaff() {
		return true
	}
	if theme.OwnedBy(actor.ID) {
		return true
	}
	return g.flags.ThemeShared(theme.ID) && g.CanShareThemes(theme.UserID)
}

// CanHotlinkTheme gates the bare navigable GET preview path. Owner only:
// even staff may not hotlink another user's theme, because a forced GET of
// someone else's script is exactly the XSS vector this exists to block.
func (g *Guardian) CanHotlinkTheme(actor *models.User, theme *models.Theme) bool {
	if actor == nil || theme == nil {
		return false
	}
	return theme.OwnedBy(actor.ID)
}

// CanEditTheme allows staff and the owner to modify a theme.
func (g *Guardian) CanEditTheme(actor *models.User, theme *models.Theme) bool {
	if actor == nil || theme == nil {
		return false
	}
	return actor.IsStaff() || theme.OwnedBy(actor.ID)
}

// CanShareThemes reports whether the theme OWNER holds sharing permission.
// It is always evaluated against the owner's memberships, not the
// requester's. With no allow-list configured, everyone may share.
func (g *Guardian) CanShareThemes(ownerID uuid.UUID) bool {
	if len(g.shareGroups) == 0 {
		return true
	}
	in, err := g.groups.InAnyGroup(ownerID, g.shareGroups)
	if err != nil {
		slog.Error("group membership check failed, denying share", "user_id", ownerID, "error", err)
		return false
	}
	return in
}

// AllowTheme is the integration point for any request declaring a theme
// key: platform-selectable themes are open to everyone, user themes fall
// back to the hotlink rule, unknown keys are denied.
func (g *Guardian) AllowTheme(actor *models.User, key string) bool {
	theme, err := g.themes.FindByKey(key)
	if err != nil {
		slog.Error("theme key lookup failed, denying", "error", err)
		return false
	}
	if theme == nil {
		return false
	}
	if theme.UserSelectable {
		return true
	}
	return g.CanHotlinkTheme(actor, theme)
}
