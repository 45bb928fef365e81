package queue

import "fmt"

// OutbidMessage is emitted after a bid commits, naming the bidder it
// displaced. Downstream consumers (notification service) deliver the actual
// email; this service only publishes the event.
type OutbidMessage struct {
	AuctionID    string `json:"auction_id"`
	OutbidUserID string `json:"outbid_user_id"`
	OutbidAmount int64  `json:"outbid_amount"`
	NewBidID     string `json:"new_bid_id"`
	NewAmount    int64  `json:"new_amount"`
}

// Validate does minimal field checks so consumers never see dirty messages.
func (m OutbidMessage) Validate() error {
	if m.AuctionID == "" {
		return fmt.Errorf("auction_id is required")
	}
	if m.OutbidUserID == "" {
		return fmt.Errorf("outbid_user_id is required")
	}
	if m.NewBidID == "" {
		return fmt.Errorf("new_bid_id is required")
	}
	if m.NewAmount <= 0 {
		return fmt.Errorf("new_amount must be > 0")
	}
	return nil
}
