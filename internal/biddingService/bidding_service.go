package bidding

import (
	"context"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/internal/queue"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// EligibilityChecker validates that a bidder may participate.
type EligibilityChecker interface {
	CheckEligibility(ctx context.Context, userID string) error
}

// OutbidNotifier publishes the outbid event after a successful commit.
type OutbidNotifier interface {
	PublishOutbid(ctx context.Context, msg queue.OutbidMessage) error
}

// BiddingService orchestrates one bid attempt: eligibility, amount
// validation, atomic commit, post-commit outbid notification. All state
// validation racing other bidders happens inside the repository commit.
type BiddingService struct {
	repo     repository.AuctionDB
	gate     EligibilityChecker
	notifier OutbidNotifier
	now      func() time.Time
}

// NewBiddingService creates a new BiddingService. notifier may be nil, which
// disables outbid event publishing.
func NewBiddingService(repo repository.AuctionDB, gate EligibilityChecker, notifier OutbidNotifier) *BiddingService {
	return &BiddingService{
		repo:     repo,
		gate:     gate,
		notifier: notifier,
		now:      time.Now,
	}
}

// PlaceBid validates and commits a bid. Every failure path leaves the store
// untouched; the commit itself is atomic in the repository.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, userID string, amount int64) (repository.BidCommit, error) {
	if err := s.gate.CheckEligibility(ctx, userID); err != nil {
		return repository.BidCommit{}, fmt.Errorf("service: bid by user %s rejected: %w", userID, err)
	}
	if amount <= 0 {
		return repository.BidCommit{}, fmt.Errorf("service: %w: amount must be positive", auctionerrors.ErrInvalidAmount)
	}
	if auctionID == "" {
		return repository.BidCommit{}, fmt.Errorf("service: empty auction id: %w", auctionerrors.ErrAuctionNotFound)
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: s.now().UTC(),
	}

	commit, err := s.repo.CommitBid(ctx, bid)
	if err != nil {
		return repository.BidCommit{}, fmt.Errorf("service: failed to commit bid for auction %s by user %s: %w", auctionID, userID, err)
	}

	// The notification hook runs strictly after the transaction has
	// committed. Failures are logged, never surfaced to the bidder.
	if s.notifier != nil && commit.HasPrev {
		msg := queue.OutbidMessage{
			AuctionID:    auctionID,
			OutbidUserID: commit.PrevWinning.UserID,
			OutbidAmount: commit.PrevWinning.Amount,
			NewBidID:     commit.Bid.BidID,
			NewAmount:    commit.Bid.Amount,
		}
		if err := s.notifier.PublishOutbid(ctx, msg); err != nil {
			utils.Warn("service: outbid event publish failed", map[string]any{
				"auction_id":     auctionID,
				"outbid_user_id": commit.PrevWinning.UserID,
				"error":          err.Error(),
			})
		}
	}

	return commit, nil
}

// GetBidsForAuction returns the full bid ledger for an auction.
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: empty auction id: %w", auctionerrors.ErrAuctionNotFound)
	}
	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetWinningBid returns the single currently-winning bid for an auction.
func (s *BiddingService) GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error) {
	if auctionID == "" {
		return model.Bid{}, fmt.Errorf("service: empty auction id: %w", auctionerrors.ErrAuctionNotFound)
	}
	bid, err := s.repo.GetWinningBid(ctx, auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}
