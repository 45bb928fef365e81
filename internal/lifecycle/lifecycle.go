// Package lifecycle moves auctions through their wall-clock state machine:
// SCHEDULED -> ACTIVE -> COMPLETED/NO_BIDS, plus the externally triggered
// UNPAID and CANCELLED transitions. Status is treated as derived from
// timestamps and reconciled lazily on read and periodically by the sweep.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/blacklist"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// Manager drives auction status transitions.
type Manager struct {
	repo repository.AuctionDB
	bans *blacklist.Manager

	// banDuration is how long a non-paying winner is blacklisted.
	// Zero means permanent.
	banDuration time.Duration
}

// NewManager creates a lifecycle manager.
func NewManager(repo repository.AuctionDB, bans *blacklist.Manager, banDuration time.Duration) *Manager {
	return &Manager{repo: repo, bans: bans, banDuration: banDuration}
}

// CreateAuction validates invariants and stores a new auction. The initial
// status is ACTIVE when the window has already opened, SCHEDULED otherwise.
func (m *Manager) CreateAuction(ctx context.Context, a *model.Auction, now time.Time) error {
	if !a.EndTime.After(a.StartTime) {
		return fmt.Errorf("lifecycle: %w: end time must be after start time", auctionerrors.ErrInvalidTransition)
	}
	if a.StartPrice < 0 || a.BidIncrement <= 0 || a.ReservePrice < 0 {
		return fmt.Errorf("lifecycle: %w: negative price or non-positive increment", auctionerrors.ErrInvalidAmount)
	}
	if a.AuctionID == "" {
		a.AuctionID = utils.GenerateID()
	}
	a.CurrentPrice = a.StartPrice
	if now.Before(a.StartTime) {
		a.Status = model.StatusScheduled
	} else {
		a.Status = model.StatusActive
	}
	if err := m.repo.CreateAuction(ctx, a); err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	return nil
}

// AuctionStatus returns the auction with its status reconciled against the
// clock, plus the ledger size. The read triggers at most a status
// transition; price and bid data are untouched.
func (m *Manager) AuctionStatus(ctx context.Context, auctionID string, now time.Time) (model.Auction, int64, error) {
	a, _, err := m.repo.AdvanceAuction(ctx, auctionID, now)
	if err != nil {
		return model.Auction{}, 0, fmt.Errorf("lifecycle: %w", err)
	}
	count, err := m.repo.CountBids(ctx, auctionID)
	if err != nil {
		return model.Auction{}, 0, fmt.Errorf("lifecycle: %w", err)
	}
	return a, count, nil
}

// AdvanceExpired is the sweep entry point: it reconciles every auction whose
// stored status lags the clock and returns the number transitioned.
// Idempotent and safe to run concurrently; a racing sweep simply finds
// nothing left to do.
func (m *Manager) AdvanceExpired(ctx context.Context, now time.Time) (int, error) {
	due, err := m.repo.ListDueAuctions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: sweep: %w", err)
	}

	transitioned := 0
	for _, a := range due {
		updated, changed, err := m.repo.AdvanceAuction(ctx, a.AuctionID, now)
		if err != nil {
			// Keep sweeping; one broken auction must not stall the rest.
			utils.Error("lifecycle: sweep failed to advance auction", map[string]any{
				"auction_id": a.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		if changed {
			transitioned++
			utils.Info("lifecycle: auction transitioned", map[string]any{
				"auction_id": updated.AuctionID,
				"status":     string(updated.Status),
				"winner_id":  updated.WinnerID,
			})
		}
	}
	return transitioned, nil
}

// MarkUnpaid transitions a sold auction to UNPAID after the payment grace
// window lapses, and blacklists the non-paying winner.
func (m *Manager) MarkUnpaid(ctx context.Context, auctionID, reason string) (model.Auction, error) {
	a, err := m.repo.MarkUnpaid(ctx, auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("lifecycle: %w", err)
	}

	if a.WinnerID != "" {
		if reason == "" {
			reason = fmt.Sprintf("unpaid auction %s", auctionID)
		}
		var expiresAt *time.Time
		if m.banDuration > 0 {
			t := time.Now().UTC().Add(m.banDuration)
			expiresAt = &t
		}
		if err := m.bans.Ban(ctx, a.WinnerID, reason, expiresAt); err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: auction %s marked unpaid but ban failed: %w", auctionID, err)
		}
	}
	return a, nil
}

// Cancel cancels a SCHEDULED or ACTIVE auction. Auctions with bids are
// cancelled rather than deleted, keeping the ledger intact.
func (m *Manager) Cancel(ctx context.Context, auctionID string) error {
	if err := m.repo.CancelAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	return nil
}

// Delete hard-deletes an auction; refused once any bid exists.
func (m *Manager) Delete(ctx context.Context, auctionID string) error {
	if err := m.repo.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	return nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.AdvanceExpired(ctx, time.Now().UTC())
			if err != nil && !errors.Is(err, context.Canceled) {
				utils.Error("lifecycle: sweep error", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				utils.Info("lifecycle: sweep completed", map[string]any{"transitioned": n})
			}
		}
	}
}
