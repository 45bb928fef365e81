// Package blacklist manages bidding bans: at most one ban per user,
// optionally expiring, recorded when a winner fails to pay and consulted by
// the eligibility gate on every bid attempt.
package blacklist

import (
	"context"
	"fmt"
	"time"

	model "auction-house/internal/models"
	"auction-house/internal/repository"
)

// Manager implements the ban lifecycle over a BlacklistDB.
type Manager struct {
	store repository.BlacklistDB
	now   func() time.Time
}

// NewManager creates a blacklist manager using wall-clock time.
func NewManager(store repository.BlacklistDB) *Manager {
	return &Manager{store: store, now: time.Now}
}

// NewManagerWithClock allows tests to pin the clock.
func NewManagerWithClock(store repository.BlacklistDB, now func() time.Time) *Manager {
	return &Manager{store: store, now: now}
}

// Ban records a ban for the user, overwriting any existing entry. A nil
// expiresAt makes the ban permanent.
func (m *Manager) Ban(ctx context.Context, userID, reason string, expiresAt *time.Time) error {
	ban := model.BidderBlacklist{
		UserID:    userID,
		Reason:    reason,
		CreatedAt: m.now().UTC(),
	}
	if expiresAt != nil {
		ban.ExpiresAt = expiresAt.UTC()
	}
	if err := m.store.PutBan(ctx, ban); err != nil {
		return fmt.Errorf("blacklist: ban user %s: %w", userID, err)
	}
	return nil
}

// IsActive reports whether the user has a ban in force, returning the entry
// for reason/expiry reporting. Expired entries are reported inactive but not
// removed; LiftIfExpired does the removal.
func (m *Manager) IsActive(ctx context.Context, userID string) (bool, model.BidderBlacklist, error) {
	ban, found, err := m.store.GetBan(ctx, userID)
	if err != nil {
		return false, model.BidderBlacklist{}, fmt.Errorf("blacklist: check user %s: %w", userID, err)
	}
	if !found || ban.Expired(m.now()) {
		return false, ban, nil
	}
	return true, ban, nil
}

// LiftIfExpired deletes the user's ban if it has lapsed; no-op otherwise.
func (m *Manager) LiftIfExpired(ctx context.Context, userID string) error {
	ban, found, err := m.store.GetBan(ctx, userID)
	if err != nil {
		return fmt.Errorf("blacklist: lift for user %s: %w", userID, err)
	}
	if !found || !ban.Expired(m.now()) {
		return nil
	}
	if err := m.store.DeleteBan(ctx, userID); err != nil {
		return fmt.Errorf("blacklist: lift for user %s: %w", userID, err)
	}
	return nil
}

// Lift removes the user's ban unconditionally (admin action).
func (m *Manager) Lift(ctx context.Context, userID string) error {
	if err := m.store.DeleteBan(ctx, userID); err != nil {
		return fmt.Errorf("blacklist: lift for user %s: %w", userID, err)
	}
	return nil
}
