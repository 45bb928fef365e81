package models

import (
	"time"

	"auction-house/internal/auctionerrors"
)

// AuctionStatus is the stored lifecycle state of an auction.
type AuctionStatus string

const (
	StatusScheduled AuctionStatus = "SCHEDULED"
	StatusActive    AuctionStatus = "ACTIVE"
	StatusEnded     AuctionStatus = "ENDED"
	StatusCompleted AuctionStatus = "COMPLETED"
	StatusNoBids    AuctionStatus = "NO_BIDS"
	StatusUnpaid    AuctionStatus = "UNPAID"
	StatusCancelled AuctionStatus = "CANCELLED"
)

// Terminal reports whether no further bidding can happen in this status.
// UNPAID is reachable from COMPLETED/ENDED but is itself terminal.
func (s AuctionStatus) Terminal() bool {
	switch s {
	case StatusEnded, StatusCompleted, StatusNoBids, StatusUnpaid, StatusCancelled:
		return true
	}
	return false
}

// HasWinner reports whether downstream consumers should treat the auction as
// sold. ENDED and COMPLETED are handled identically; COMPLETED is the
// canonical state written by the lifecycle sweep.
func (s AuctionStatus) HasWinner() bool {
	return s == StatusCompleted || s == StatusEnded
}

// EffectiveStatus recomputes the auction's status from wall-clock time,
// ignoring staleness of the stored field. A stored SCHEDULED auction whose
// window has opened reads as ACTIVE; a stored ACTIVE auction whose window
// has closed reads as ENDED. Terminal stored states are returned as-is; the
// sweep is responsible for resolving ENDED into COMPLETED or NO_BIDS.
func EffectiveStatus(a Auction, now time.Time) AuctionStatus {
	if a.Status.Terminal() {
		return a.Status
	}
	if now.Before(a.StartTime) {
		return StatusScheduled
	}
	if now.Before(a.EndTime) {
		return StatusActive
	}
	return StatusEnded
}

// MinimumBid returns the lowest acceptable next bid amount.
func MinimumBid(a Auction) int64 {
	return a.CurrentPrice + a.BidIncrement
}

// ValidateBidWindow checks that the auction accepts bids at the given
// instant. Called inside the storage transaction so the decision and the
// commit see the same snapshot.
func ValidateBidWindow(a Auction, now time.Time) error {
	switch EffectiveStatus(a, now) {
	case StatusActive:
		return nil
	case StatusScheduled:
		return auctionerrors.ErrNotStarted
	default:
		return auctionerrors.ErrAuctionEnded
	}
}

// ReserveMet reports whether the reserve price (if any) has been reached.
func ReserveMet(a Auction) bool {
	return a.ReservePrice == 0 || a.CurrentPrice >= a.ReservePrice
}
