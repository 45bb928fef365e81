// Package eligibility decides whether a bidder may participate: identity
// resolved, email verified, no active ban. The only side effect is the
// first-touch removal of an expired ban.
package eligibility

import (
	"context"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/blacklist"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// Gate validates bidder eligibility before any auction state is read.
type Gate struct {
	users repository.UserDB
	bans  *blacklist.Manager
	now   func() time.Time
}

// NewGate creates an eligibility gate.
func NewGate(users repository.UserDB, bans *blacklist.Manager) *Gate {
	return &Gate{users: users, bans: bans, now: time.Now}
}

// CheckEligibility returns nil when the user may bid. Failures unwrap to
// ErrAuthRequired, ErrEmailNotVerified or ErrBlacklisted.
func (g *Gate) CheckEligibility(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("eligibility: %w", auctionerrors.ErrAuthRequired)
	}

	user, found, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("eligibility: resolve user %s: %w", userID, err)
	}
	if !found {
		return fmt.Errorf("eligibility: unknown user %s: %w", userID, auctionerrors.ErrAuthRequired)
	}
	if !user.EmailVerified {
		return fmt.Errorf("eligibility: user %s: %w", userID, auctionerrors.ErrEmailNotVerified)
	}

	active, ban, err := g.bans.IsActive(ctx, userID)
	if err != nil {
		return fmt.Errorf("eligibility: user %s: %w", userID, err)
	}
	if active {
		return fmt.Errorf("eligibility: user %s: %w", userID,
			&auctionerrors.BlacklistedError{Reason: ban.Reason, ExpiresAt: ban.ExpiresAt})
	}

	// Lapsed ban encountered on a live attempt: self-heal by removing it.
	// A failure here must not block an otherwise eligible bidder.
	if ban.UserID != "" && ban.Expired(g.now()) {
		if err := g.bans.LiftIfExpired(ctx, userID); err != nil {
			utils.Warn("eligibility: failed to lift expired ban", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	return nil
}
