package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nocturne-works/dataport/gameerr"
)

// statusFor maps stable domain codes to HTTP statuses. Codes, not messages,
// are the contract with presentation layers.
func statusFor(code gameerr.Code) int {
	switch code {
	case gameerr.CodeValidation:
		return http.StatusBadRequest
	case gameerr.CodeNotFound:
		return http.StatusNotFound
	case gameerr.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case gameerr.CodeUndiscardable:
		return http.StatusForbidden
	case gameerr.CodeInstanceLocked:
		return http.StatusLocked
	case gameerr.CodeNotAvailable, gameerr.CodeAlreadyAccepted, gameerr.CodeAlreadyCleared,
		gameerr.CodeObjectiveMismatch, gameerr.CodeInsufficientQuantity, gameerr.CodeSlotsExhausted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a domain error with its stable code, or a bare 500 for
// anything else.
func writeError(c *gin.Context, err error) {
	if code := gameerr.CodeOf(err); code != "" {
		c.JSON(statusFor(code), gin.H{"code": code, "error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
