package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-house/internal/auctionerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// Machine-readable error codes returned to clients.
const (
	CodeAuthRequired      = "AUTH_REQUIRED"
	CodeEmailNotVerified  = "EMAIL_NOT_VERIFIED"
	CodeBlacklisted       = "BLACKLISTED"
	CodeNotStarted        = "NOT_STARTED"
	CodeAuctionEnded      = "AUCTION_ENDED"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeBidTooLow         = "BID_TOO_LOW"
	CodeBidConflict       = "BID_CONFLICT"
	CodeAuctionNotFound   = "AUCTION_NOT_FOUND"
	CodeNoBids            = "NO_BIDS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeAuctionHasBids    = "AUCTION_HAS_BIDS"
	CodeInternal          = "INTERNAL_ERROR"
)

// HandleBindError sends a standardized JSON error for binding failures.
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain errors to HTTP status, error code and message.
func MapErrorToHTTP(err error) (int, string, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuthRequired):
		return http.StatusUnauthorized, CodeAuthRequired, "authentication required"
	case errors.Is(err, auctionerrors.ErrEmailNotVerified):
		return http.StatusForbidden, CodeEmailNotVerified, "email not verified"
	case errors.Is(err, auctionerrors.ErrBlacklisted):
		return http.StatusForbidden, CodeBlacklisted, "bidder is blacklisted"
	case errors.Is(err, auctionerrors.ErrNotStarted):
		return http.StatusBadRequest, CodeNotStarted, "auction has not started"
	case errors.Is(err, auctionerrors.ErrAuctionEnded):
		return http.StatusBadRequest, CodeAuctionEnded, "auction has ended"
	case errors.Is(err, auctionerrors.ErrInvalidAmount):
		return http.StatusBadRequest, CodeInvalidAmount, "invalid bid amount"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusBadRequest, CodeBidTooLow, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrBidConflict):
		return http.StatusConflict, CodeBidConflict, "a concurrent bid was accepted first"
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, CodeAuctionNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, CodeNoBids, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidTransition, "invalid auction status transition"
	case errors.Is(err, auctionerrors.ErrAuctionHasBids):
		return http.StatusConflict, CodeAuctionHasBids, "auction has bids"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error"
	}
}

// RespondError maps, logs and sends a rejected operation. Structured details
// (minimum bid, ban reason) ride along so clients can re-prompt without a
// second round-trip.
func RespondError(c *gin.Context, handlerName string, err error) {
	status, code, message := MapErrorToHTTP(err)

	body := gin.H{
		"status":  status,
		"code":    code,
		"message": message,
		"error":   err.Error(),
	}
	if minimum, ok := auctionerrors.MinimumBidOf(err); ok {
		body["minimum_bid"] = minimum
	}
	var blacklisted *auctionerrors.BlacklistedError
	if errors.As(err, &blacklisted) {
		body["reason"] = blacklisted.Reason
	}
	c.JSON(status, body)

	logFn := utils.Warn
	if status >= http.StatusInternalServerError {
		logFn = utils.Error
	}
	logFn(handlerName+": request rejected", map[string]any{
		"code":  code,
		"error": err.Error(),
	})
}

// LogSuccess standardizes logging of successful operations.
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
