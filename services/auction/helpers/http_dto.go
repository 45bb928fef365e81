package helpers

// Request/Response DTOs

// PlaceBidRequest carries a bid attempt. BidderID is intentionally not
// bind-required: a missing bidder maps to AUTH_REQUIRED, not a generic
// binding failure. Amount validity is the engine's call (INVALID_AMOUNT).
type PlaceBidRequest struct {
	BidderID string `json:"bidder_id"`
	Amount   int64  `json:"amount"`
}

type PlaceBidResponse struct {
	BidID           string `json:"bid_id"`
	AuctionID       string `json:"auction_id"`
	Amount          int64  `json:"amount"`
	NewCurrentPrice int64  `json:"new_current_price"`
	CreatedAt       string `json:"created_at"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	IsWinning bool   `json:"is_winning"`
	CreatedAt string `json:"created_at"`
}

type CreateAuctionRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	StartPrice   int64  `json:"start_price" binding:"min=0"`
	BidIncrement int64  `json:"bid_increment" binding:"required,min=1"`
	ReservePrice int64  `json:"reserve_price" binding:"min=0"`
	StartTime    string `json:"start_time" binding:"required"`
	EndTime      string `json:"end_time" binding:"required"`
}

type AuctionStatusResponse struct {
	AuctionID    string `json:"auction_id"`
	Status       string `json:"status"`
	CurrentPrice int64  `json:"current_price"`
	EndTime      string `json:"end_time"`
	BidCount     int64  `json:"bid_count"`
	WinnerID     string `json:"winner_id,omitempty"`
	WinningBid   int64  `json:"winning_bid,omitempty"`
}

type UpsertUserRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	Username      string `json:"username"`
	EmailVerified bool   `json:"email_verified"`
}

type MarkUnpaidRequest struct {
	Reason string `json:"reason"`
}
