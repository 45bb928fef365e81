package auctionerrors

import (
	"errors"
	"fmt"
	"time"
)

// Eligibility errors — checked before any auction state is read.
var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrBlacklisted      = errors.New("bidder is blacklisted")
)

// Validation errors — caller-correctable.
var (
	ErrInvalidAmount   = errors.New("invalid bid amount")
	ErrBidTooLow       = errors.New("bid amount below minimum")
	ErrNotStarted      = errors.New("auction has not started")
	ErrAuctionEnded    = errors.New("auction has ended")
	ErrAuctionNotFound = errors.New("auction not found")
)

// Conflict and lifecycle errors.
var (
	// ErrBidConflict means a concurrent bid committed first; the caller
	// should retry against the refreshed minimum.
	ErrBidConflict = errors.New("bid lost a concurrent update race")

	ErrInvalidTransition = errors.New("invalid auction status transition")
	ErrAuctionHasBids    = errors.New("auction has bids")
	ErrNoBids            = errors.New("no bids found for auction")
)

// BidTooLowError carries the minimum acceptable amount so clients can
// re-prompt without another round-trip. Unwraps to ErrBidTooLow.
type BidTooLowError struct {
	MinimumBid int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount below minimum of %d", e.MinimumBid)
}

func (e *BidTooLowError) Unwrap() error { return ErrBidTooLow }

// BidConflictError reports a lost race, with the minimum recomputed against
// the post-conflict price. Unwraps to ErrBidConflict.
type BidConflictError struct {
	MinimumBid int64
}

func (e *BidConflictError) Error() string {
	return fmt.Sprintf("concurrent bid accepted first, new minimum is %d", e.MinimumBid)
}

func (e *BidConflictError) Unwrap() error { return ErrBidConflict }

// BlacklistedError carries the ban reason and expiry. Unwraps to
// ErrBlacklisted.
type BlacklistedError struct {
	Reason    string
	ExpiresAt time.Time
}

func (e *BlacklistedError) Error() string {
	if e.ExpiresAt.IsZero() {
		return fmt.Sprintf("bidder is blacklisted: %s", e.Reason)
	}
	return fmt.Sprintf("bidder is blacklisted until %s: %s", e.ExpiresAt.Format(time.RFC3339), e.Reason)
}

func (e *BlacklistedError) Unwrap() error { return ErrBlacklisted }

// MinimumBidOf extracts the structured minimum from a rejection, if present.
func MinimumBidOf(err error) (int64, bool) {
	var tooLow *BidTooLowError
	if errors.As(err, &tooLow) {
		return tooLow.MinimumBid, true
	}
	var conflict *BidConflictError
	if errors.As(err, &conflict) {
		return conflict.MinimumBid, true
	}
	return 0, false
}
