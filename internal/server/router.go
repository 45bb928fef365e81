package server

import (
	"auction-house/internal/config"
	handler "auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// SetupRouter configures all Gin routes. rdb may be nil, which disables
// rate limiting on the bid endpoint.
func SetupRouter(h *handler.AuctionHandler, rdb *rd.Client, cfg config.AppConfig) *gin.Engine {
	router := gin.New() // full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	admin := AdminAuthMiddleware(cfg.AdminToken)

	placeBid := []gin.HandlerFunc{}
	if rdb != nil {
		placeBid = append(placeBid, RedisRateLimit(rdb, cfg.BidRateLimit, cfg.BidRateWindow))
	}
	placeBid = append(placeBid, h.PlaceBidHandler)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", admin, h.CreateAuctionHandler)
		auctions.GET("/:auction_id", h.AuctionStatusHandler)
		auctions.GET("/:auction_id/bids", h.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/winning", h.GetWinningBidHandler)
		auctions.POST("/:auction_id/bids", placeBid...)
		auctions.POST("/:auction_id/cancel", admin, h.CancelAuctionHandler)
		auctions.POST("/:auction_id/unpaid", admin, h.MarkUnpaidHandler)
		auctions.DELETE("/:auction_id", admin, h.DeleteAuctionHandler)
	}

	router.POST("/lifecycle/sweep", admin, h.SweepHandler)
	router.POST("/users", admin, h.UpsertUserHandler)
	router.DELETE("/blacklist/:user_id", admin, h.LiftBanHandler)

	return router
}
