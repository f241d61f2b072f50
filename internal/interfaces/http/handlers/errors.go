package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dipanjanswapna/ongonbd/pkg/errors"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

// handleAuthError converts domain errors to HTTP responses of the form
// {"error": <code>, "message": <text>}.
func handleAuthError(c *gin.Context, err error) {
	var verrs *errors.ValidationErrors
	if errors.As(err, &verrs) && verrs.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": verrs.Errors[0].Message,
			"errors":  verrs.Errors,
		})
		return
	}

	switch {
	case errors.Is(err, errors.ErrUserAlreadyExists):
		respondError(c, http.StatusConflict, "user_exists", "User with this email already exists")
	case errors.Is(err, errors.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, errors.ErrPasswordMismatch):
		respondError(c, http.StatusBadRequest, "password_mismatch", "Passwords do not match")
	case errors.Is(err, errors.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, errors.ErrForbidden):
		respondError(c, http.StatusForbidden, "forbidden", "Account is disabled")
	case errors.Is(err, errors.ErrTokenExpired):
		respondError(c, http.StatusUnauthorized, "token_expired", "Token has expired")
	case errors.Is(err, errors.ErrTokenInvalid):
		respondError(c, http.StatusUnauthorized, "invalid_token", "Invalid token")
	case errors.Is(err, errors.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authorization token is required")
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", logger.Error(err))
		respondError(c, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}

// handleOneTimeTokenError answers verify-email and reset-password, where a
// bad token is a client mistake rather than an authentication failure.
func handleOneTimeTokenError(c *gin.Context, err error) {
	if errors.Is(err, errors.ErrTokenInvalid) || errors.Is(err, errors.ErrTokenExpired) {
		respondError(c, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
		return
	}
	handleAuthError(c, err)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}

func invalidRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
}
