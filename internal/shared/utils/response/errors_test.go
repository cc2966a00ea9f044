package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
)

func TestStatusForCode(t *testing.T) {
	tests := map[string]int{
		inventory.CodeInvalidSeats:     http.StatusBadRequest,
		inventory.CodeInvalidInput:     http.StatusBadRequest,
		inventory.CodeNotFound:         http.StatusNotFound,
		inventory.CodeSeatsLocked:      http.StatusConflict,
		inventory.CodeSeatsUnavailable: http.StatusConflict,
		inventory.CodeBookingFinalized: http.StatusConflict,
		inventory.CodeExpired:          http.StatusGone,
		inventory.CodeInternal:         http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, StatusForCode(code), code)
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		retryable bool
		details   bool
	}{
		{"contention", fmt.Errorf("%w: seat 3", inventory.ErrContention), http.StatusConflict, inventory.CodeSeatsLocked, true, true},
		{"expired", inventory.ErrHoldExpired, http.StatusGone, inventory.CodeExpired, false, true},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, inventory.CodeInternal, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondError(c, "request failed", tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Status string      `json:"status"`
				Errors ErrorDetail `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.code, body.Errors.Code)
			assert.Equal(t, tt.retryable, body.Errors.Retryable)
			assert.Equal(t, tt.details, body.Errors.Details != "", "internal errors hide their details")
		})
	}
}
