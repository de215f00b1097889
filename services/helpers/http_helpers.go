package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key the auth middleware stores the caller under
const UserIDKey = "user_id"

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// HandleServiceError maps err to a status, writes the error envelope and logs it
func HandleServiceError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, biddingerrors.ErrNotFoundOrForbidden):
		return http.StatusNotFound, "product not found or not authorized"
	case errors.Is(err, biddingerrors.ErrNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, biddingerrors.ErrForbidden):
		return http.StatusForbidden, "you cannot bid on your own product"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusConflict, "bidding time is over, auction closed"
	case errors.Is(err, biddingerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "not authorized"
	case errors.Is(err, biddingerrors.ErrNoBids):
		return http.StatusOK, "no bids found for product"
	case errors.Is(err, biddingerrors.ErrAlreadySettled):
		return http.StatusConflict, "auction already settled"
	case errors.Is(err, biddingerrors.ErrEmailTaken):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, biddingerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// CurrentUserID returns the authenticated caller set by the auth middleware
func CurrentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(UserIDKey)
	return id, id != ""
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
