package bookings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
)

type apiResponse struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Errors     struct {
		Code      string `json:"code"`
		Retryable bool   `json:"retryable"`
	} `json:"errors"`
}

func newTestRouter(f *engineFixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupBookingRoutes(router.Group("/api/v1"), NewController(f.service))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func seatStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func TestController_CreateBooking(t *testing.T) {
	f := newEngine(t, 4, nil)
	router := newTestRouter(f)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"show_id":  f.show.ID.String(),
		"seat_ids": seatStrings(f.seats[:2]),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var booking BookingResponse
	require.NoError(t, json.Unmarshal(resp.Data, &booking))
	assert.Equal(t, "CONFIRMED", booking.Status)
	assert.Len(t, booking.SeatIDs, 2)

	// Same seats again
	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"show_id":  f.show.ID.String(),
		"seat_ids": seatStrings(f.seats[1:3]),
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, inventory.CodeSeatsUnavailable, resp.Errors.Code)
	assert.False(t, resp.Errors.Retryable)

	w, resp = doJSON(t, router, http.MethodGet, "/api/v1/bookings/"+booking.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestController_InvalidSeats(t *testing.T) {
	f := newEngine(t, 2, nil)
	router := newTestRouter(f)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"show_id":  f.show.ID.String(),
		"seat_ids": []string{f.seats[0].String(), "S4"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, inventory.CodeInvalidSeats, resp.Errors.Code)

	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"show_id":  f.show.ID.String(),
		"seat_ids": seatStrings([]uuid.UUID{f.seats[0], uuid.New()}),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, inventory.CodeInvalidSeats, resp.Errors.Code)

	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{"show_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, inventory.CodeInvalidInput, resp.Errors.Code)

	assert.Equal(t, 2, f.available(t))
}

func TestController_DeferredFlow(t *testing.T) {
	f := newEngine(t, 3, nil)
	router := newTestRouter(f)
	holdPath := "/api/v1/shows/" + f.show.ID.String() + "/holds"

	w, resp := doJSON(t, router, http.MethodPost, holdPath, gin.H{
		"seat_ids":    seatStrings(f.seats[:2]),
		"ttl_seconds": 120,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var hold HoldResponse
	require.NoError(t, json.Unmarshal(resp.Data, &hold))
	assert.Len(t, hold.SeatIDs, 2)

	// A second hold on a held seat conflicts
	w, resp = doJSON(t, router, http.MethodPost, holdPath, gin.H{"seat_ids": seatStrings(f.seats[1:])})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, inventory.CodeSeatsUnavailable, resp.Errors.Code)

	// A pending booking must name the hold it will confirm
	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings/pending", gin.H{
		"show_id":  f.show.ID.String(),
		"seat_ids": seatStrings(f.seats[:2]),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, inventory.CodeInvalidInput, resp.Errors.Code)

	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings/pending", gin.H{
		"show_id":  f.show.ID.String(),
		"seat_ids": seatStrings(f.seats[:2]),
		"hold_id":  hold.HoldID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var pending BookingResponse
	require.NoError(t, json.Unmarshal(resp.Data, &pending))
	assert.Equal(t, "PENDING", pending.Status)
	assert.NotNil(t, pending.ExpiresAt)

	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+pending.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var confirmed BookingResponse
	require.NoError(t, json.Unmarshal(resp.Data, &confirmed))
	assert.Equal(t, "CONFIRMED", confirmed.Status)

	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+pending.ID+"/fail", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, inventory.CodeBookingFinalized, resp.Errors.Code)

	assert.Equal(t, 1, f.available(t))
}

func TestController_ReleaseAndExpiry(t *testing.T) {
	f := newEngine(t, 2, nil)
	router := newTestRouter(f)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/bookings/reserve", gin.H{
		"show_id":     f.show.ID.String(),
		"seat_ids":    seatStrings(f.seats),
		"ttl_seconds": 60,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reserved BookingResponse
	require.NoError(t, json.Unmarshal(resp.Data, &reserved))
	require.NotNil(t, reserved.HoldID)

	// A release under the wrong hold id leaves the seats held
	w, resp = doJSON(t, router, http.MethodDelete, "/api/v1/shows/"+f.show.ID.String()+"/holds", gin.H{
		"seat_ids": seatStrings(f.seats),
		"hold_id":  uuid.NewString(),
	})
	require.Equal(t, http.StatusOK, w.Code)
	var untouched ReleaseResponse
	require.NoError(t, json.Unmarshal(resp.Data, &untouched))
	assert.Zero(t, untouched.Released)

	w, resp = doJSON(t, router, http.MethodDelete, "/api/v1/shows/"+f.show.ID.String()+"/holds", gin.H{
		"seat_ids": seatStrings(f.seats),
		"hold_id":  *reserved.HoldID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var released ReleaseResponse
	require.NoError(t, json.Unmarshal(resp.Data, &released))
	assert.Equal(t, 2, released.Released)

	// The booking lost its seats and can no longer be confirmed
	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+reserved.ID+"/confirm", nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, inventory.CodeExpired, resp.Errors.Code)
}

func TestController_NotFound(t *testing.T) {
	f := newEngine(t, 1, nil)
	router := newTestRouter(f)

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, inventory.CodeNotFound, resp.Errors.Code)

	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/bookings/abc/confirm", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, inventory.CodeNotFound, resp.Errors.Code)

	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/shows/"+uuid.NewString()+"/holds", gin.H{
		"seat_ids": seatStrings(f.seats),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, inventory.CodeNotFound, resp.Errors.Code)
}

func TestController_ListBookings(t *testing.T) {
	f := newEngine(t, 3, nil)
	router := newTestRouter(f)

	for i := 0; i < 3; i++ {
		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
			"show_id":  f.show.ID.String(),
			"seat_ids": seatStrings(f.seats[i : i+1]),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/bookings?show_id="+f.show.ID.String()+"&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list BookingListResponse
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.EqualValues(t, 3, list.Total)
	assert.Len(t, list.Bookings, 2)
	assert.Equal(t, 2, list.TotalPages)

	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/bookings?status=CANCELLED", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
