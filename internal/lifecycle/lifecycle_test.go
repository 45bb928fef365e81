package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/blacklist"
	model "auction-house/internal/models"
	"auction-house/internal/repository"

	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, banDuration time.Duration) (*Manager, *repository.MemoryRepo, *blacklist.Manager) {
	t.Helper()
	store := repository.NewMemoryRepo()
	bans := blacklist.NewManager(store)
	return NewManager(store, bans, banDuration), store, bans
}

func auctionFixture(start, end time.Time) *model.Auction {
	return &model.Auction{
		Title:        "vintage synthesizer",
		StartPrice:   1000,
		BidIncrement: 100,
		StartTime:    start,
		EndTime:      end,
	}
}

func bidFixture(bidID, auctionID, userID string, amount int64, at time.Time) model.Bid {
	return model.Bid{BidID: bidID, AuctionID: auctionID, UserID: userID, Amount: amount, CreatedAt: at}
}

func TestCreateAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("future_window_is_scheduled", func(t *testing.T) {
		t.Parallel()
		mgr, store, _ := newManager(t, 0)

		a := auctionFixture(now.Add(time.Hour), now.Add(2*time.Hour))
		require.NoError(t, mgr.CreateAuction(ctx, a, now))
		require.NotEmpty(t, a.AuctionID, "id assigned when absent")
		require.Equal(t, model.StatusScheduled, a.Status)
		require.Equal(t, int64(1000), a.CurrentPrice)

		stored, err := store.GetAuction(ctx, a.AuctionID)
		require.NoError(t, err)
		require.Equal(t, model.StatusScheduled, stored.Status)
	})

	t.Run("open_window_is_active", func(t *testing.T) {
		t.Parallel()
		mgr, _, _ := newManager(t, 0)

		a := auctionFixture(now.Add(-time.Minute), now.Add(time.Hour))
		require.NoError(t, mgr.CreateAuction(ctx, a, now))
		require.Equal(t, model.StatusActive, a.Status)
	})

	t.Run("invalid_window_rejected", func(t *testing.T) {
		t.Parallel()
		mgr, _, _ := newManager(t, 0)

		a := auctionFixture(now.Add(time.Hour), now.Add(time.Hour))
		err := mgr.CreateAuction(ctx, a, now)
		require.True(t, errors.Is(err, auctionerrors.ErrInvalidTransition))

		a = auctionFixture(now.Add(2*time.Hour), now.Add(time.Hour))
		err = mgr.CreateAuction(ctx, a, now)
		require.True(t, errors.Is(err, auctionerrors.ErrInvalidTransition))
	})

	t.Run("invalid_pricing_rejected", func(t *testing.T) {
		t.Parallel()
		mgr, _, _ := newManager(t, 0)

		a := auctionFixture(now.Add(time.Hour), now.Add(2*time.Hour))
		a.BidIncrement = 0
		require.True(t, errors.Is(mgr.CreateAuction(ctx, a, now), auctionerrors.ErrInvalidAmount))

		a = auctionFixture(now.Add(time.Hour), now.Add(2*time.Hour))
		a.StartPrice = -1
		require.True(t, errors.Is(mgr.CreateAuction(ctx, a, now), auctionerrors.ErrInvalidAmount))
	})
}

func TestAuctionStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr, store, _ := newManager(t, 0)

	a := auctionFixture(now.Add(-time.Hour), now.Add(-time.Minute))
	a.AuctionID = "auction1"
	a.Status = model.StatusActive
	a.CurrentPrice = 1000
	require.NoError(t, store.CreateAuction(ctx, a))
	_, err := store.CommitBid(ctx, bidFixture("b1", "auction1", "user1", 1100, now.Add(-30*time.Minute)))
	require.NoError(t, err)

	// the read itself reconciles the stale ACTIVE status
	out, count, err := mgr.AuctionStatus(ctx, "auction1", now)
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, out.Status)
	require.Equal(t, "user1", out.WinnerID)
	require.Equal(t, int64(1100), out.WinningBid)
	require.Equal(t, int64(1), count)

	_, _, err = mgr.AuctionStatus(ctx, "missing", now)
	require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
}

func TestAdvanceExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr, store, _ := newManager(t, 0)

	// due for activation
	scheduled := auctionFixture(now.Add(-time.Minute), now.Add(time.Hour))
	scheduled.AuctionID = "to_activate"
	scheduled.Status = model.StatusScheduled
	scheduled.CurrentPrice = scheduled.StartPrice
	require.NoError(t, store.CreateAuction(ctx, scheduled))

	// due for finalization with a winner
	sold := auctionFixture(now.Add(-3*time.Hour), now.Add(-time.Hour))
	sold.AuctionID = "to_complete"
	sold.Status = model.StatusActive
	sold.CurrentPrice = sold.StartPrice
	require.NoError(t, store.CreateAuction(ctx, sold))
	_, err := store.CommitBid(ctx, bidFixture("b1", "to_complete", "user1", 1100, now.Add(-2*time.Hour)))
	require.NoError(t, err)

	// due for finalization without bids
	empty := auctionFixture(now.Add(-3*time.Hour), now.Add(-time.Hour))
	empty.AuctionID = "to_no_bids"
	empty.Status = model.StatusActive
	empty.CurrentPrice = empty.StartPrice
	require.NoError(t, store.CreateAuction(ctx, empty))

	// not due
	live := auctionFixture(now.Add(-time.Hour), now.Add(time.Hour))
	live.AuctionID = "still_live"
	live.Status = model.StatusActive
	live.CurrentPrice = live.StartPrice
	require.NoError(t, store.CreateAuction(ctx, live))

	n, err := mgr.AdvanceExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	expect := map[string]model.AuctionStatus{
		"to_activate": model.StatusActive,
		"to_complete": model.StatusCompleted,
		"to_no_bids":  model.StatusNoBids,
		"still_live":  model.StatusActive,
	}
	for id, want := range expect {
		a, err := store.GetAuction(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, a.Status, id)
	}

	// sweep is idempotent
	n, err = mgr.AdvanceExpired(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMarkUnpaid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	soldAuction := func(t *testing.T, store *repository.MemoryRepo, id string) {
		t.Helper()
		a := auctionFixture(now.Add(-3*time.Hour), now.Add(-time.Hour))
		a.AuctionID = id
		a.Status = model.StatusActive
		a.CurrentPrice = a.StartPrice
		require.NoError(t, store.CreateAuction(ctx, a))
		_, err := store.CommitBid(ctx, bidFixture("b1", id, "deadbeat", 1100, now.Add(-2*time.Hour)))
		require.NoError(t, err)
		_, _, err = store.AdvanceAuction(ctx, id, now)
		require.NoError(t, err)
	}

	t.Run("bans_winner_with_expiry", func(t *testing.T) {
		t.Parallel()
		mgr, store, bans := newManager(t, 72*time.Hour)
		soldAuction(t, store, "auction1")

		a, err := mgr.MarkUnpaid(ctx, "auction1", "no payment received")
		require.NoError(t, err)
		require.Equal(t, model.StatusUnpaid, a.Status)

		active, ban, err := bans.IsActive(ctx, "deadbeat")
		require.NoError(t, err)
		require.True(t, active)
		require.Equal(t, "no payment received", ban.Reason)
		require.False(t, ban.Permanent())
	})

	t.Run("zero_duration_bans_permanently", func(t *testing.T) {
		t.Parallel()
		mgr, store, bans := newManager(t, 0)
		soldAuction(t, store, "auction1")

		_, err := mgr.MarkUnpaid(ctx, "auction1", "")
		require.NoError(t, err)

		active, ban, err := bans.IsActive(ctx, "deadbeat")
		require.NoError(t, err)
		require.True(t, active)
		require.True(t, ban.Permanent())
		require.Contains(t, ban.Reason, "auction1", "default reason names the auction")
	})

	t.Run("rejected_outside_completed", func(t *testing.T) {
		t.Parallel()
		mgr, store, _ := newManager(t, 0)

		a := auctionFixture(now.Add(-time.Hour), now.Add(time.Hour))
		a.AuctionID = "live"
		a.Status = model.StatusActive
		a.CurrentPrice = a.StartPrice
		require.NoError(t, store.CreateAuction(ctx, a))

		_, err := mgr.MarkUnpaid(ctx, "live", "")
		require.True(t, errors.Is(err, auctionerrors.ErrInvalidTransition))
	})
}

func TestCancelAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr, store, _ := newManager(t, 0)

	a := auctionFixture(now.Add(-time.Hour), now.Add(time.Hour))
	a.AuctionID = "auction1"
	a.Status = model.StatusActive
	a.CurrentPrice = a.StartPrice
	require.NoError(t, store.CreateAuction(ctx, a))
	_, err := store.CommitBid(ctx, bidFixture("b1", "auction1", "user1", 1100, now))
	require.NoError(t, err)

	// bids block deletion but not cancellation
	require.True(t, errors.Is(mgr.Delete(ctx, "auction1"), auctionerrors.ErrAuctionHasBids))
	require.NoError(t, mgr.Cancel(ctx, "auction1"))

	got, err := store.GetAuction(ctx, "auction1")
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, got.Status)

	// cancelled is terminal; bids on it are rejected
	_, err = store.CommitBid(ctx, bidFixture("b2", "auction1", "user2", 1300, now))
	require.True(t, errors.Is(err, auctionerrors.ErrAuctionEnded))
}
