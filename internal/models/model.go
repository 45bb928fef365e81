package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a participant in the auction system. Accounts are managed
// by an external collaborator; only the fields the eligibility gate needs
// are stored here.
type User struct {
	UserID        string    `gorm:"size:64;primarykey" json:"user_id"`
	Username      string    `gorm:"size:128" json:"username"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// Auction is a time-bounded sale of one item. All monetary values are in
// minor currency units (cents).
type Auction struct {
	AuctionID   string         `gorm:"size:64;primarykey" json:"auction_id"`
	Title       string         `gorm:"size:255" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	StartPrice   int64 `gorm:"not null" json:"start_price"`
	CurrentPrice int64 `gorm:"not null" json:"current_price"`
	BidIncrement int64 `gorm:"not null" json:"bid_increment"`
	// ReservePrice is hidden from bidders; zero means no reserve.
	ReservePrice int64 `gorm:"not null;default:0" json:"-"`

	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status     AuctionStatus `gorm:"size:16;not null;index" json:"status"`
	WinnerID   string        `gorm:"size:64" json:"winner_id,omitempty"`
	WinningBid int64         `json:"winning_bid,omitempty"`
}

func (Auction) TableName() string { return "auctions" }

// Bid is an append-only ledger entry. Immutable once created except for the
// IsWinning flag, which the bidding engine flips atomically with the commit
// of the succeeding winning bid.
type Bid struct {
	BidID     string    `gorm:"size:64;primarykey" json:"bid_id"`
	AuctionID string    `gorm:"size:64;not null;index" json:"auction_id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	IsWinning bool      `gorm:"not null;default:false;index" json:"is_winning"`
	CreatedAt time.Time `json:"created_at"`
}

func (Bid) TableName() string { return "bids" }

// BidderBlacklist records a bidding ban. A zero ExpiresAt means permanent.
type BidderBlacklist struct {
	UserID    string    `gorm:"size:64;primarykey" json:"user_id"`
	Reason    string    `gorm:"size:255" json:"reason"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (BidderBlacklist) TableName() string { return "bidder_blacklist" }

// Permanent reports whether the ban has no expiry.
func (b BidderBlacklist) Permanent() bool { return b.ExpiresAt.IsZero() }

// Expired reports whether the ban has lapsed at the given instant.
func (b BidderBlacklist) Expired(now time.Time) bool {
	return !b.Permanent() && !b.ExpiresAt.After(now)
}
