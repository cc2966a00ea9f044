package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushmishra0/Modex-System/internal/shared/config"
	"github.com/piyushmishra0/Modex-System/internal/shared/database"
	"github.com/piyushmishra0/Modex-System/internal/shared/middleware"
)

func newTestEngine(t *testing.T) (*gin.Engine, *Router, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ADMIN_API_KEY", "admin-key")
	t.Setenv("REAPER_LEADER_ELECTION", "true")
	cfg := config.Load()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	appRouter := NewRouter(cfg, &database.DB{Redis: client}, nil)
	engine := gin.New()
	appRouter.SetupRoutes(engine)
	return engine, appRouter, mr
}

func call(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AdminKeyHeader, "admin-key")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestRouter_BookingFlow(t *testing.T) {
	engine, appRouter, mr := newTestEngine(t)

	code, body := call(t, engine, http.MethodPost, "/api/v1/admin/shows", gin.H{
		"name":        "Swan Lake",
		"start_time":  time.Now().Add(72 * time.Hour).UTC(),
		"total_seats": 4,
	})
	require.Equal(t, http.StatusCreated, code, body)
	showID := body["data"].(map[string]interface{})["id"].(string)

	code, body = call(t, engine, http.MethodGet, "/api/v1/shows/"+showID+"/seats", nil)
	require.Equal(t, http.StatusOK, code)
	rawSeats := body["data"].(map[string]interface{})["seats"].([]interface{})
	require.Len(t, rawSeats, 4)
	seatID := func(i int) string {
		return rawSeats[i].(map[string]interface{})["id"].(string)
	}

	code, body = call(t, engine, http.MethodPost, "/api/v1/bookings", gin.H{
		"show_id":  showID,
		"seat_ids": []string{seatID(0), seatID(1)},
	})
	require.Equal(t, http.StatusCreated, code, body)
	bookingID := body["data"].(map[string]interface{})["id"].(string)
	assert.True(t, mr.Exists("modex:bookings:detail:uuid:"+bookingID))

	code, body = call(t, engine, http.MethodPost, "/api/v1/bookings/reserve", gin.H{
		"show_id":  showID,
		"seat_ids": []string{seatID(2)},
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = call(t, engine, http.MethodGet, "/api/v1/admin/shows/"+showID+"/consistency", nil)
	require.Equal(t, http.StatusOK, code)
	report := body["data"].(map[string]interface{})
	assert.Equal(t, true, report["consistent"])
	assert.EqualValues(t, 2, report["available_seats"])
	assert.EqualValues(t, 1, report["pending_rows"])

	code, body = call(t, engine, http.MethodPost, "/api/v1/admin/reaper/run", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["data"].(map[string]interface{})["bookings_failed"])

	require.NotNil(t, appRouter.Reaper())
	assert.Equal(t, true, appRouter.Reaper().GetJobStatus()["leader_election"])
}

func TestRouter_HealthAndStatus(t *testing.T) {
	engine, _, mr := newTestEngine(t)

	code, body := call(t, engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	code, body = call(t, engine, http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "memory", body["store"])
	assert.Equal(t, true, body["redis_cache"])

	mr.Close()
	code, body = call(t, engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestRouter_AdminRoutesNeedKey(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reaper/run", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
