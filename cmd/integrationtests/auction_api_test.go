package integrationtests

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	model "auction-house/internal/models"

	"github.com/stretchr/testify/require"
)

func bidBody(userID string, amount int64) map[string]any {
	return map[string]any{"bidder_id": userID, "amount": amount}
}

// Price ladder on a live auction: start 1000, increment 100.
func TestBiddingFlow(t *testing.T) {
	stack := SetupTestStack()
	now := time.Now().UTC()
	stack.SeedUser(t, "user1", true)
	stack.SeedUser(t, "user2", true)
	stack.SeedAuction(t, "auction1", model.StatusActive, now.Add(-time.Hour), now.Add(time.Hour))

	// 1050 is below startPrice+increment
	resp, w := stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("user1", 1050), false)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "BID_TOO_LOW", resp["code"])
	require.Equal(t, 1100.0, resp["minimum_bid"])

	// 1100 meets the minimum
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("user1", 1100), false)
	require.Equal(t, http.StatusCreated, w.Code)
	bid := data(t, resp)
	require.Equal(t, 1100.0, bid["new_current_price"])
	require.NotEmpty(t, bid["bid_id"])
	_, err := time.Parse(time.RFC3339, bid["created_at"].(string))
	require.NoError(t, err)

	// repeating the now-current price no longer clears the bar
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("user2", 1100), false)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "BID_TOO_LOW", resp["code"])
	require.Equal(t, 1200.0, resp["minimum_bid"])

	// a proper raise displaces the leader
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("user2", 1200), false)
	require.Equal(t, http.StatusCreated, w.Code)

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/auction1/winning", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	winning := data(t, resp)
	require.Equal(t, "user2", winning["user_id"])
	require.Equal(t, 1200.0, winning["amount"])

	// full ledger is readable, exactly one winning row
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/auction1/bids", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	bids := resp["data"].([]any)
	require.Len(t, bids, 2)
	winningRows := 0
	for _, raw := range bids {
		if raw.(map[string]any)["is_winning"].(bool) {
			winningRows++
		}
	}
	require.Equal(t, 1, winningRows)
}

// Bids outside the wall-clock window are rejected even when the stored
// status is stale.
func TestBidWindowEnforcement(t *testing.T) {
	stack := SetupTestStack()
	now := time.Now().UTC()
	stack.SeedUser(t, "user1", true)
	stack.SeedAuction(t, "upcoming", model.StatusScheduled, now.Add(time.Hour), now.Add(2*time.Hour))
	stack.SeedAuction(t, "expired", model.StatusActive, now.Add(-2*time.Hour), now.Add(-time.Hour))

	resp, w := stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/upcoming/bids", bidBody("user1", 1100), false)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "NOT_STARTED", resp["code"])

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/expired/bids", bidBody("user1", 1100), false)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "AUCTION_ENDED", resp["code"])

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/missing/bids", bidBody("user1", 1100), false)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "AUCTION_NOT_FOUND", resp["code"])
}

// Eligibility gate: identity, verification, blacklist.
func TestBidderEligibility(t *testing.T) {
	stack := SetupTestStack()
	now := time.Now().UTC()
	stack.SeedUser(t, "verified", true)
	stack.SeedUser(t, "unverified", false)
	stack.SeedAuction(t, "auction1", model.StatusActive, now.Add(-time.Hour), now.Add(time.Hour))

	resp, w := stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", map[string]any{"amount": 1100}, false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "AUTH_REQUIRED", resp["code"])

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("ghost", 1100), false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "AUTH_REQUIRED", resp["code"])

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("unverified", 1100), false)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "EMAIL_NOT_VERIFIED", resp["code"])

	require.NoError(t, stack.bans.Ban(context.Background(), "verified", "unpaid auction xyz", nil))
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("verified", 1100), false)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "BLACKLISTED", resp["code"])
	require.Equal(t, "unpaid auction xyz", resp["reason"])

	// admin lift restores bidding
	_, w = stack.ExecuteRequestAndParse(t, http.MethodDelete, "/blacklist/verified", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("verified", 1100), false)
	require.Equal(t, http.StatusCreated, w.Code)
}

// Full lifecycle: create via API, bid, expire, sweep, mark unpaid, ban.
func TestAuctionLifecycle(t *testing.T) {
	stack := SetupTestStack()
	now := time.Now().UTC()
	stack.SeedUser(t, "user1", true)

	// create an auction whose window is already open
	createReq := map[string]any{
		"title":         "signed first edition",
		"start_price":   1000,
		"bid_increment": 100,
		"start_time":    now.Add(-time.Minute).Format(time.RFC3339),
		"end_time":      now.Add(time.Second).Format(time.RFC3339),
	}
	resp, w := stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions", createReq, true)
	require.Equal(t, http.StatusCreated, w.Code)
	auctionID := data(t, resp)["auction_id"].(string)
	require.NotEmpty(t, auctionID)

	_, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/"+auctionID+"/bids", bidBody("user1", 1100), false)
	require.Equal(t, http.StatusCreated, w.Code)

	// wait out the window, then sweep
	time.Sleep(1500 * time.Millisecond)
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/lifecycle/sweep", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.GreaterOrEqual(t, data(t, resp)["transitioned"].(float64), 1.0)

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/"+auctionID, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	status := data(t, resp)
	require.Equal(t, "COMPLETED", status["status"])
	require.Equal(t, "user1", status["winner_id"])
	require.Equal(t, 1100.0, status["winning_bid"])
	require.Equal(t, 1.0, status["bid_count"])

	// winner never pays
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/"+auctionID+"/unpaid",
		map[string]any{"reason": "payment deadline missed"}, true)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/"+auctionID, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "UNPAID", data(t, resp)["status"])

	// the ban bites on the next auction
	stack.SeedAuction(t, "auction2", model.StatusActive, now.Add(-time.Hour), now.Add(time.Hour))
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction2/bids", bidBody("user1", 1100), false)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "BLACKLISTED", resp["code"])
	require.Equal(t, "payment deadline missed", resp["reason"])
}

// An auction the clock has passed reports NO_BIDS when nobody bid.
func TestSweepNoBids(t *testing.T) {
	stack := SetupTestStack()
	now := time.Now().UTC()
	stack.SeedAuction(t, "lonely", model.StatusActive, now.Add(-2*time.Hour), now.Add(-time.Hour))

	_, w := stack.ExecuteRequestAndParse(t, http.MethodPost, "/lifecycle/sweep", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w := stack.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/lonely", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "NO_BIDS", data(t, resp)["status"])

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/lonely/winning", nil, false)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NO_BIDS", resp["code"])
}

// Cancellation and deletion via the admin surface.
func TestCancelAndDelete(t *testing.T) {
	stack := SetupTestStack()
	now := time.Now().UTC()
	stack.SeedUser(t, "user1", true)
	stack.SeedAuction(t, "auction1", model.StatusActive, now.Add(-time.Hour), now.Add(time.Hour))

	_, w := stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("user1", 1100), false)
	require.Equal(t, http.StatusCreated, w.Code)

	// has bids: delete refused, cancel allowed
	resp, w := stack.ExecuteRequestAndParse(t, http.MethodDelete, "/auctions/auction1", nil, true)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "AUCTION_HAS_BIDS", resp["code"])

	_, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/cancel", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("user1", 1300), false)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "AUCTION_ENDED", resp["code"])

	// cancel is not repeatable
	resp, w = stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/cancel", nil, true)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "INVALID_TRANSITION", resp["code"])

	// bid-free auction deletes cleanly
	stack.SeedAuction(t, "auction2", model.StatusScheduled, now.Add(time.Hour), now.Add(2*time.Hour))
	_, w = stack.ExecuteRequestAndParse(t, http.MethodDelete, "/auctions/auction2", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w = stack.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/auction2", nil, false)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "AUCTION_NOT_FOUND", resp["code"])
}

// Admin endpoints refuse requests without the shared token.
func TestAdminAuth(t *testing.T) {
	stack := SetupTestStack()

	adminCalls := []struct {
		method string
		url    string
	}{
		{http.MethodPost, "/auctions"},
		{http.MethodPost, "/auctions/auction1/cancel"},
		{http.MethodPost, "/auctions/auction1/unpaid"},
		{http.MethodDelete, "/auctions/auction1"},
		{http.MethodPost, "/lifecycle/sweep"},
		{http.MethodPost, "/users"},
		{http.MethodDelete, "/blacklist/user1"},
	}
	for _, call := range adminCalls {
		w := stack.ExecuteRequest(t, call.method, call.url, nil, false)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", call.method, call.url)
	}
}

// Malformed JSON is rejected before reaching the engine.
func TestInvalidPayloads(t *testing.T) {
	stack := SetupTestStack()
	now := time.Now().UTC()
	stack.SeedAuction(t, "auction1", model.StatusActive, now.Add(-time.Hour), now.Add(time.Hour))

	w := stack.ExecuteRequest(t, http.MethodPost, "/auctions/auction1/bids", "{bidder_id: 'missing quotes'}", false)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// zero and negative amounts reach the engine and map to INVALID_AMOUNT
	stack.SeedUser(t, "user1", true)
	for _, amount := range []int64{0, -50} {
		resp, w := stack.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/auction1/bids", bidBody("user1", amount), false)
		require.Equal(t, http.StatusBadRequest, w.Code, fmt.Sprintf("amount %d", amount))
		require.Equal(t, "INVALID_AMOUNT", resp["code"])
	}
}
