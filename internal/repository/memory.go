package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB,
// BlacklistDB and UserDB, used by integration tests and local runs without a
// database. Each auction carries its own mutex so the commit discipline
// matches the SQL store: per-auction serialization, unrelated auctions
// proceed independently.
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]*auctionState
	users    map[string]model.User
	bans     map[string]model.BidderBlacklist
}

type auctionState struct {
	mu      sync.Mutex
	auction model.Auction
	bids    []model.Bid
}

// NewMemoryRepo creates a new in-memory repository instance.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]*auctionState),
		users:    make(map[string]model.User),
		bans:     make(map[string]model.BidderBlacklist),
	}
}

func (r *MemoryRepo) state(auctionID string) (*auctionState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.auctions[auctionID]
	if !ok {
		return nil, auctionerrors.ErrAuctionNotFound
	}
	return st, nil
}

func (r *MemoryRepo) CreateAuction(_ context.Context, a *model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.auctions[a.AuctionID]; ok {
		return fmt.Errorf("create auction %s: already exists", a.AuctionID)
	}
	r.auctions[a.AuctionID] = &auctionState{auction: *a}
	return nil
}

func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	st, err := r.state(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.auction, nil
}

func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	st, err := r.state(auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]model.Bid(nil), st.bids...), nil
}

func (r *MemoryRepo) GetWinningBid(_ context.Context, auctionID string) (model.Bid, error) {
	st, err := r.state(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, err)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, b := range st.bids {
		if b.IsWinning {
			return b, nil
		}
	}
	return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
}

func (r *MemoryRepo) CountBids(_ context.Context, auctionID string) (int64, error) {
	st, err := r.state(auctionID)
	if err != nil {
		return 0, fmt.Errorf("count bids for auction %s: %w", auctionID, err)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return int64(len(st.bids)), nil
}

func (r *MemoryRepo) CommitBid(_ context.Context, bid model.Bid) (BidCommit, error) {
	st, err := r.state(bid.AuctionID)
	if err != nil {
		return BidCommit{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	a := st.auction
	if err := model.ValidateBidWindow(a, bid.CreatedAt); err != nil {
		return BidCommit{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, err)
	}
	minimum := model.MinimumBid(a)
	if bid.Amount < minimum {
		return BidCommit{}, fmt.Errorf("commit bid for auction %s: %w",
			bid.AuctionID, &auctionerrors.BidTooLowError{MinimumBid: minimum})
	}

	var commit BidCommit
	for i := range st.bids {
		if st.bids[i].IsWinning {
			commit.PrevWinning = st.bids[i]
			commit.HasPrev = true
			st.bids[i].IsWinning = false
		}
	}

	bid.IsWinning = true
	st.bids = append(st.bids, bid)
	st.auction.CurrentPrice = bid.Amount
	st.auction.Status = model.StatusActive

	commit.Bid = bid
	commit.CurrentPrice = bid.Amount
	return commit, nil
}

func (r *MemoryRepo) ListDueAuctions(_ context.Context, now time.Time) ([]model.Auction, error) {
	r.mu.RLock()
	states := make([]*auctionState, 0, len(r.auctions))
	for _, st := range r.auctions {
		states = append(states, st)
	}
	r.mu.RUnlock()

	var due []model.Auction
	for _, st := range states {
		st.mu.Lock()
		a := st.auction
		st.mu.Unlock()
		if a.Status.Terminal() {
			continue
		}
		if a.Status != model.EffectiveStatus(a, now) {
			due = append(due, a)
		}
	}
	return due, nil
}

func (r *MemoryRepo) AdvanceAuction(_ context.Context, auctionID string, now time.Time) (model.Auction, bool, error) {
	st, err := r.state(auctionID)
	if err != nil {
		return model.Auction{}, false, fmt.Errorf("advance auction %s: %w", auctionID, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	a := st.auction
	if a.Status.Terminal() || now.Before(a.StartTime) {
		return a, false, nil
	}

	if now.Before(a.EndTime) {
		if a.Status != model.StatusScheduled {
			return a, false, nil
		}
		st.auction.Status = model.StatusActive
		return st.auction, true, nil
	}

	if len(st.bids) > 0 && model.ReserveMet(a) {
		for _, b := range st.bids {
			if b.IsWinning {
				st.auction.Status = model.StatusCompleted
				st.auction.WinnerID = b.UserID
				st.auction.WinningBid = b.Amount
				return st.auction, true, nil
			}
		}
	}
	st.auction.Status = model.StatusNoBids
	return st.auction, true, nil
}

func (r *MemoryRepo) MarkUnpaid(_ context.Context, auctionID string) (model.Auction, error) {
	st, err := r.state(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("mark auction %s unpaid: %w", auctionID, err)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.auction.Status.HasWinner() {
		return model.Auction{}, fmt.Errorf("mark auction %s unpaid: %w", auctionID, auctionerrors.ErrInvalidTransition)
	}
	st.auction.Status = model.StatusUnpaid
	return st.auction, nil
}

func (r *MemoryRepo) CancelAuction(_ context.Context, auctionID string) error {
	st, err := r.state(auctionID)
	if err != nil {
		return fmt.Errorf("cancel auction %s: %w", auctionID, err)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.auction.Status != model.StatusScheduled && st.auction.Status != model.StatusActive {
		return fmt.Errorf("cancel auction %s: %w", auctionID, auctionerrors.ErrInvalidTransition)
	}
	st.auction.Status = model.StatusCancelled
	return nil
}

func (r *MemoryRepo) DeleteAuction(_ context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.bids) > 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionHasBids)
	}
	delete(r.auctions, auctionID)
	return nil
}

func (r *MemoryRepo) GetBan(_ context.Context, userID string) (model.BidderBlacklist, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ban, ok := r.bans[userID]
	return ban, ok, nil
}

func (r *MemoryRepo) PutBan(_ context.Context, ban model.BidderBlacklist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bans[ban.UserID] = ban
	return nil
}

func (r *MemoryRepo) DeleteBan(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bans, userID)
	return nil
}

func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	return u, ok, nil
}

func (r *MemoryRepo) PutUser(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.UserID] = u
	return nil
}
