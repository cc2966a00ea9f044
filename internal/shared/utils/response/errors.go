package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
)

// ErrorDetail is the errors payload of a failed request
type ErrorDetail struct {
	Code      string `json:"code"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// StatusForCode maps an error code to its HTTP status
func StatusForCode(code string) int {
	switch code {
	case inventory.CodeInvalidSeats, inventory.CodeInvalidInput:
		return http.StatusBadRequest
	case inventory.CodeNotFound:
		return http.StatusNotFound
	case inventory.CodeSeatsLocked, inventory.CodeSeatsUnavailable, inventory.CodeBookingFinalized:
		return http.StatusConflict
	case inventory.CodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using its code from the error taxonomy
func RespondError(c *gin.Context, message string, err error) {
	code := inventory.ErrorCode(err)
	status := StatusForCode(code)

	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}

	RespondJSON(c, "error", status, message, nil, ErrorDetail{
		Code:      code,
		Details:   details,
		Retryable: inventory.IsRetryable(err),
	})
}

// RespondInvalid writes a 400 for malformed input
func RespondInvalid(c *gin.Context, message string, details string) {
	RespondJSON(c, "error", http.StatusBadRequest, message, nil, ErrorDetail{
		Code:    inventory.CodeInvalidInput,
		Details: details,
	})
}
