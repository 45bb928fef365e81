package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo is the SQL-backed implementation of AuctionDB, BlacklistDB and
// UserDB. All multi-row mutations run inside a database transaction;
// concurrent bids on one auction are detected with a conditional update on
// the auction row's current price, so a stale reader fails instead of
// overwriting a newer commit.
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo wraps an open gorm connection.
func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

// AutoMigrate creates or updates the auction schema.
func (r *GormRepo) AutoMigrate() error {
	return r.db.AutoMigrate(
		&model.User{},
		&model.Auction{},
		&model.Bid{},
		&model.BidderBlacklist{},
	)
}

func (r *GormRepo) CreateAuction(ctx context.Context, a *model.Auction) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create auction %s: %w", a.AuctionID, err)
	}
	return nil
}

func (r *GormRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var a model.Auction
	err := r.db.WithContext(ctx).First(&a, "auction_id = ?", auctionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return a, nil
}

func (r *GormRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	var bids []model.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("created_at asc").
		Find(&bids).Error
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

func (r *GormRepo) GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error) {
	var bid model.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND is_winning = ?", auctionID, true).
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
		}
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}

func (r *GormRepo) CountBids(ctx context.Context, auctionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("auction_id = ?", auctionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count bids for auction %s: %w", auctionID, err)
	}
	return count, nil
}

func (r *GormRepo) CommitBid(ctx context.Context, bid model.Bid) (BidCommit, error) {
	var commit BidCommit
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Auction
		if err := tx.First(&a, "auction_id = ?", bid.AuctionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auctionerrors.ErrAuctionNotFound
			}
			return err
		}

		if err := model.ValidateBidWindow(a, bid.CreatedAt); err != nil {
			return err
		}
		minimum := model.MinimumBid(a)
		if bid.Amount < minimum {
			return &auctionerrors.BidTooLowError{MinimumBid: minimum}
		}

		// The price guard is the serialization point: if another bid
		// committed between our read and this update, zero rows match and
		// we report a conflict against the fresh minimum.
		res := tx.Model(&model.Auction{}).
			Where("auction_id = ? AND current_price = ? AND status IN ?",
				bid.AuctionID, a.CurrentPrice,
				[]model.AuctionStatus{model.StatusScheduled, model.StatusActive}).
			Updates(map[string]any{
				"current_price": bid.Amount,
				"status":        model.StatusActive,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var fresh model.Auction
			if err := tx.First(&fresh, "auction_id = ?", bid.AuctionID).Error; err != nil {
				return err
			}
			if err := model.ValidateBidWindow(fresh, bid.CreatedAt); err != nil {
				return err
			}
			return &auctionerrors.BidConflictError{MinimumBid: model.MinimumBid(fresh)}
		}

		var prev model.Bid
		err := tx.Where("auction_id = ? AND is_winning = ?", bid.AuctionID, true).First(&prev).Error
		switch {
		case err == nil:
			commit.PrevWinning = prev
			commit.HasPrev = true
			demote := tx.Model(&model.Bid{}).
				Where("bid_id = ?", prev.BidID).
				Update("is_winning", false)
			if demote.Error != nil {
				return demote.Error
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first bid on this auction
		default:
			return err
		}

		bid.IsWinning = true
		if err := tx.Create(&bid).Error; err != nil {
			return err
		}
		commit.Bid = bid
		commit.CurrentPrice = bid.Amount
		return nil
	})
	if err != nil {
		return BidCommit{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, err)
	}
	return commit, nil
}

func (r *GormRepo) ListDueAuctions(ctx context.Context, now time.Time) ([]model.Auction, error) {
	var due []model.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time <= ?", model.StatusScheduled, now).
		Or("status IN ? AND end_time <= ?",
			[]model.AuctionStatus{model.StatusScheduled, model.StatusActive}, now).
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("list due auctions: %w", err)
	}
	return due, nil
}

func (r *GormRepo) AdvanceAuction(ctx context.Context, auctionID string, now time.Time) (model.Auction, bool, error) {
	var out model.Auction
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Auction
		if err := tx.First(&a, "auction_id = ?", auctionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auctionerrors.ErrAuctionNotFound
			}
			return err
		}
		out = a
		if a.Status.Terminal() || now.Before(a.StartTime) {
			return nil
		}

		if now.Before(a.EndTime) {
			if a.Status != model.StatusScheduled {
				return nil
			}
			res := tx.Model(&model.Auction{}).
				Where("auction_id = ? AND status = ?", auctionID, model.StatusScheduled).
				Update("status", model.StatusActive)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				out.Status = model.StatusActive
				changed = true
			}
			return nil
		}

		// Window closed: finalize. No bids, or reserve unmet, means no
		// winner is recorded.
		var count int64
		if err := tx.Model(&model.Bid{}).Where("auction_id = ?", auctionID).Count(&count).Error; err != nil {
			return err
		}
		updates := map[string]any{"status": model.StatusNoBids}
		target := model.StatusNoBids
		var winner model.Bid
		if count > 0 && model.ReserveMet(a) {
			err := tx.Where("auction_id = ? AND is_winning = ?", auctionID, true).First(&winner).Error
			if err != nil {
				return err
			}
			target = model.StatusCompleted
			updates = map[string]any{
				"status":      model.StatusCompleted,
				"winner_id":   winner.UserID,
				"winning_bid": winner.Amount,
			}
		}
		res := tx.Model(&model.Auction{}).
			Where("auction_id = ? AND status IN ?", auctionID,
				[]model.AuctionStatus{model.StatusScheduled, model.StatusActive}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			out.Status = target
			if target == model.StatusCompleted {
				out.WinnerID = winner.UserID
				out.WinningBid = winner.Amount
			}
			changed = true
		}
		return nil
	})
	if err != nil {
		return model.Auction{}, false, fmt.Errorf("advance auction %s: %w", auctionID, err)
	}
	return out, changed, nil
}

func (r *GormRepo) MarkUnpaid(ctx context.Context, auctionID string) (model.Auction, error) {
	var out model.Auction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Auction
		if err := tx.First(&a, "auction_id = ?", auctionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auctionerrors.ErrAuctionNotFound
			}
			return err
		}
		res := tx.Model(&model.Auction{}).
			Where("auction_id = ? AND status IN ?", auctionID,
				[]model.AuctionStatus{model.StatusCompleted, model.StatusEnded}).
			Update("status", model.StatusUnpaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return auctionerrors.ErrInvalidTransition
		}
		a.Status = model.StatusUnpaid
		out = a
		return nil
	})
	if err != nil {
		return model.Auction{}, fmt.Errorf("mark auction %s unpaid: %w", auctionID, err)
	}
	return out, nil
}

func (r *GormRepo) CancelAuction(ctx context.Context, auctionID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Auction
		if err := tx.First(&a, "auction_id = ?", auctionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auctionerrors.ErrAuctionNotFound
			}
			return err
		}
		res := tx.Model(&model.Auction{}).
			Where("auction_id = ? AND status IN ?", auctionID,
				[]model.AuctionStatus{model.StatusScheduled, model.StatusActive}).
			Update("status", model.StatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return auctionerrors.ErrInvalidTransition
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel auction %s: %w", auctionID, err)
	}
	return nil
}

func (r *GormRepo) DeleteAuction(ctx context.Context, auctionID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Auction
		if err := tx.First(&a, "auction_id = ?", auctionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auctionerrors.ErrAuctionNotFound
			}
			return err
		}
		var count int64
		if err := tx.Model(&model.Bid{}).Where("auction_id = ?", auctionID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return auctionerrors.ErrAuctionHasBids
		}
		return tx.Unscoped().Delete(&model.Auction{}, "auction_id = ?", auctionID).Error
	})
	if err != nil {
		return fmt.Errorf("delete auction %s: %w", auctionID, err)
	}
	return nil
}

func (r *GormRepo) GetBan(ctx context.Context, userID string) (model.BidderBlacklist, bool, error) {
	var ban model.BidderBlacklist
	err := r.db.WithContext(ctx).First(&ban, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.BidderBlacklist{}, false, nil
		}
		return model.BidderBlacklist{}, false, fmt.Errorf("get ban for user %s: %w", userID, err)
	}
	return ban, true, nil
}

func (r *GormRepo) PutBan(ctx context.Context, ban model.BidderBlacklist) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&ban).Error
	if err != nil {
		return fmt.Errorf("put ban for user %s: %w", ban.UserID, err)
	}
	return nil
}

func (r *GormRepo) DeleteBan(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Delete(&model.BidderBlacklist{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("delete ban for user %s: %w", userID, err)
	}
	return nil
}

func (r *GormRepo) GetUser(ctx context.Context, userID string) (model.User, bool, error) {
	var u model.User
	err := r.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, false, nil
		}
		return model.User{}, false, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, true, nil
}

func (r *GormRepo) PutUser(ctx context.Context, u model.User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&u).Error
	if err != nil {
		return fmt.Errorf("put user %s: %w", u.UserID, err)
	}
	return nil
}
