package repository

import (
	"context"
	"time"

	model "auction-house/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mocks.go -package=repository

// BidCommit is the outcome of an accepted bid: the committed bid, the price
// it established, and the winning bid it displaced (if any) for the outbid
// notification hook.
type BidCommit struct {
	Bid          model.Bid
	CurrentPrice int64
	PrevWinning  model.Bid
	HasPrev      bool
}

// AuctionDB is the auction store plus bid ledger. CommitBid and the
// lifecycle transitions are atomic per auction: two concurrent calls on the
// same auction cannot both observe the same current price and both commit.
type AuctionDB interface {
	CreateAuction(ctx context.Context, a *model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error)
	CountBids(ctx context.Context, auctionID string) (int64, error)

	// CommitBid validates the bid window and minimum against the state
	// inside the same atomic operation that appends the bid, flips the
	// winning flag and raises the current price. The bid's CreatedAt is the
	// validation instant.
	CommitBid(ctx context.Context, bid model.Bid) (BidCommit, error)

	// ListDueAuctions returns non-terminal auctions whose stored status lags
	// wall-clock time at the given instant.
	ListDueAuctions(ctx context.Context, now time.Time) ([]model.Auction, error)

	// AdvanceAuction applies at most one time-driven transition
	// (SCHEDULED->ACTIVE, or finalization into COMPLETED/NO_BIDS) and
	// reports whether anything changed. Idempotent and safe to race.
	AdvanceAuction(ctx context.Context, auctionID string, now time.Time) (model.Auction, bool, error)

	// MarkUnpaid moves a COMPLETED/ENDED auction to UNPAID and returns the
	// updated record so the caller can ban the non-paying winner.
	MarkUnpaid(ctx context.Context, auctionID string) (model.Auction, error)

	// CancelAuction cancels a SCHEDULED or ACTIVE auction. Auctions with
	// bids are cancelled rather than deleted.
	CancelAuction(ctx context.Context, auctionID string) error

	// DeleteAuction hard-deletes an auction with zero bids.
	DeleteAuction(ctx context.Context, auctionID string) error
}

// BlacklistDB persists bidding bans, one per user at most.
type BlacklistDB interface {
	GetBan(ctx context.Context, userID string) (model.BidderBlacklist, bool, error)
	PutBan(ctx context.Context, ban model.BidderBlacklist) error
	DeleteBan(ctx context.Context, userID string) error
}

// UserDB resolves bidder accounts for the eligibility gate.
type UserDB interface {
	GetUser(ctx context.Context, userID string) (model.User, bool, error)
	PutUser(ctx context.Context, u model.User) error
}
