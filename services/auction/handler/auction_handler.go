package handler

import (
	"context"
	"net/http"
	"time"

	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auction_handler.go -destination=mocks.go -package=handler

// BiddingServiceInterface is the bidding engine as seen by the transport.
type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, auctionID, userID string, amount int64) (repository.BidCommit, error)
	GetBidsForAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error)
}

// LifecycleInterface is the lifecycle manager as seen by the transport.
type LifecycleInterface interface {
	CreateAuction(ctx context.Context, a *model.Auction, now time.Time) error
	AuctionStatus(ctx context.Context, auctionID string, now time.Time) (model.Auction, int64, error)
	AdvanceExpired(ctx context.Context, now time.Time) (int, error)
	MarkUnpaid(ctx context.Context, auctionID, reason string) (model.Auction, error)
	Cancel(ctx context.Context, auctionID string) error
	Delete(ctx context.Context, auctionID string) error
}

// BlacklistInterface exposes the manual admin lift.
type BlacklistInterface interface {
	Lift(ctx context.Context, userID string) error
}

// AuctionHandler wires HTTP routes to the bidding engine and lifecycle
// manager.
type AuctionHandler struct {
	bidding   BiddingServiceInterface
	lifecycle LifecycleInterface
	bans      BlacklistInterface
	users     repository.UserDB
}

func NewAuctionHandler(bidding BiddingServiceInterface, lifecycle LifecycleInterface, bans BlacklistInterface, users repository.UserDB) *AuctionHandler {
	return &AuctionHandler{bidding: bidding, lifecycle: lifecycle, bans: bans, users: users}
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	commit, err := h.bidding.PlaceBid(c.Request.Context(), auctionID, req.BidderID, req.Amount)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err)
		return
	}

	resp := helpers.PlaceBidResponse{
		BidID:           commit.Bid.BidID,
		AuctionID:       commit.Bid.AuctionID,
		Amount:          commit.Bid.Amount,
		NewCurrentPrice: commit.CurrentPrice,
		CreatedAt:       commit.Bid.CreatedAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"bid_id":     commit.Bid.BidID,
		"auction_id": auctionID,
		"user_id":    req.BidderID,
		"amount":     commit.Bid.Amount,
	})
}

// AuctionStatusHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) AuctionStatusHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	a, bidCount, err := h.lifecycle.AuctionStatus(c.Request.Context(), auctionID, time.Now().UTC())
	if err != nil {
		helpers.RespondError(c, "AuctionStatusHandler", err)
		return
	}

	resp := helpers.AuctionStatusResponse{
		AuctionID:    a.AuctionID,
		Status:       string(a.Status),
		CurrentPrice: a.CurrentPrice,
		EndTime:      a.EndTime.UTC().Format(time.RFC3339),
		BidCount:     bidCount,
		WinnerID:     a.WinnerID,
		WinningBid:   a.WinningBid,
	}
	utils.JSONResponse(c, http.StatusOK, resp, "auction status retrieved")
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	bids, err := h.bidding.GetBidsForAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetBidsByAuctionHandler", err)
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, bidToResponse(b))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	bid, err := h.bidding.GetWinningBid(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetWinningBidHandler", err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, bidToResponse(bid), "winning bid retrieved successfully")
}

// CreateAuctionHandler handles POST /auctions (admin)
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	a := &model.Auction{
		Title:        req.Title,
		Description:  req.Description,
		StartPrice:   req.StartPrice,
		BidIncrement: req.BidIncrement,
		ReservePrice: req.ReservePrice,
		StartTime:    start.UTC(),
		EndTime:      end.UTC(),
	}
	if err := h.lifecycle.CreateAuction(c.Request.Context(), a, time.Now().UTC()); err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, a, "auction created")
	helpers.LogSuccess("CreateAuctionHandler", "auction created", map[string]any{
		"auction_id": a.AuctionID,
		"status":     string(a.Status),
	})
}

// SweepHandler handles POST /lifecycle/sweep (admin)
func (h *AuctionHandler) SweepHandler(c *gin.Context) {
	n, err := h.lifecycle.AdvanceExpired(c.Request.Context(), time.Now().UTC())
	if err != nil {
		helpers.RespondError(c, "SweepHandler", err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"transitioned": n}, "sweep completed")
}

// MarkUnpaidHandler handles POST /auctions/:auction_id/unpaid (admin)
func (h *AuctionHandler) MarkUnpaidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.MarkUnpaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		helpers.HandleBindError(c, "MarkUnpaidHandler", err)
		return
	}

	a, err := h.lifecycle.MarkUnpaid(c.Request.Context(), auctionID, req.Reason)
	if err != nil {
		helpers.RespondError(c, "MarkUnpaidHandler", err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, a, "auction marked unpaid")
	helpers.LogSuccess("MarkUnpaidHandler", "auction marked unpaid", map[string]any{
		"auction_id": auctionID,
		"winner_id":  a.WinnerID,
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel (admin)
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if err := h.lifecycle.Cancel(c.Request.Context(), auctionID); err != nil {
		helpers.RespondError(c, "CancelAuctionHandler", err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction cancelled")
}

// DeleteAuctionHandler handles DELETE /auctions/:auction_id (admin)
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if err := h.lifecycle.Delete(c.Request.Context(), auctionID); err != nil {
		helpers.RespondError(c, "DeleteAuctionHandler", err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction deleted")
}

// LiftBanHandler handles DELETE /blacklist/:user_id (admin)
func (h *AuctionHandler) LiftBanHandler(c *gin.Context) {
	userID := c.Param("user_id")
	if err := h.bans.Lift(c.Request.Context(), userID); err != nil {
		helpers.RespondError(c, "LiftBanHandler", err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"user_id": userID}, "ban lifted")
}

// UpsertUserHandler handles POST /users (admin). The account collaborator is
// out of scope; this seeds the minimal identity the eligibility gate needs.
func (h *AuctionHandler) UpsertUserHandler(c *gin.Context) {
	var req helpers.UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpsertUserHandler", err)
		return
	}

	u := model.User{
		UserID:        req.UserID,
		Username:      req.Username,
		EmailVerified: req.EmailVerified,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.users.PutUser(c.Request.Context(), u); err != nil {
		helpers.RespondError(c, "UpsertUserHandler", err)
		return
	}
	utils.JSONResponse(c, http.StatusCreated, u, "user stored")
}

func bidToResponse(b model.Bid) helpers.BidResponse {
	return helpers.BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		UserID:    b.UserID,
		Amount:    b.Amount,
		IsWinning: b.IsWinning,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
