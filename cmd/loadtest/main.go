package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// apiResponse mirrors the server's StandardApiResponse envelope
type apiResponse struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     struct {
		Code      string `json:"code"`
		Retryable bool   `json:"retryable"`
	} `json:"errors"`
}

type show struct {
	ID             string `json:"id"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
}

type seatMap struct {
	Seats []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"seats"`
}

type booking struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	SeatIDs []string `json:"seat_ids"`
}

type consistencyReport struct {
	AvailableSeats  int  `json:"available_seats"`
	ExpectedCounter int  `json:"expected_counter"`
	BookedRows      int  `json:"booked_rows"`
	Consistent      bool `json:"consistent"`
}

// Configuration
type Config struct {
	BaseURL     string
	AdminKey    string
	Requests    int
	Concurrency int
	TotalSeats  int
	SeatsPerReq int
	HotSeats    int
	RetryOnLock int
}

// Metrics Collection
type Metrics struct {
	confirmed      int64
	byCode         sync.Map // code -> *int64
	latencies      []time.Duration
	latenciesMutex sync.Mutex
	bookedSeats    map[string]string
	bookedMutex    sync.Mutex
	duplicateSeats int64
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.BaseURL, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&cfg.AdminKey, "admin-key", os.Getenv("ADMIN_API_KEY"), "Admin key for show creation")
	flag.IntVar(&cfg.Requests, "requests", 50, "Total booking attempts")
	flag.IntVar(&cfg.Concurrency, "concurrency", 50, "Concurrent workers")
	flag.IntVar(&cfg.TotalSeats, "seats", 10, "Seats in the test show")
	flag.IntVar(&cfg.SeatsPerReq, "per-request", 2, "Seats per booking attempt")
	flag.IntVar(&cfg.HotSeats, "hot", 10, "Attempts pick seats among the first N seats")
	flag.IntVar(&cfg.RetryOnLock, "retries", 0, "Retries on SEATS_LOCKED")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Println("Creating test show...")
	s, err := createShow(client, cfg)
	if err != nil {
		log.Fatalf("Failed to create show: %v", err)
	}
	seatIDs, err := loadSeatIDs(client, cfg, s.ID)
	if err != nil {
		log.Fatalf("Failed to load seats: %v", err)
	}
	if cfg.HotSeats <= 0 || cfg.HotSeats > len(seatIDs) {
		cfg.HotSeats = len(seatIDs)
	}
	if cfg.SeatsPerReq > cfg.HotSeats {
		cfg.SeatsPerReq = cfg.HotSeats
	}
	fmt.Printf("Show %s with %d seats\n", s.ID, len(seatIDs))

	metrics := &Metrics{bookedSeats: make(map[string]string)}

	jobs := make(chan int)
	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for range jobs {
				picked := pickSeats(rng, seatIDs[:cfg.HotSeats], cfg.SeatsPerReq)
				attemptBooking(client, cfg, metrics, s.ID, picked)
			}
		}(w)
	}
	for i := 0; i < cfg.Requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	report, err := checkConsistency(client, cfg, s.ID)
	if err != nil {
		log.Printf("Consistency check failed: %v", err)
	}

	printReport(cfg, metrics, elapsed, report)
	if atomic.LoadInt64(&metrics.duplicateSeats) > 0 || (report != nil && !report.Consistent) {
		os.Exit(1)
	}
}

func pickSeats(rng *rand.Rand, pool []string, n int) []string {
	perm := rng.Perm(len(pool))
	picked := make([]string, n)
	for i := 0; i < n; i++ {
		picked[i] = pool[perm[i]]
	}
	return picked
}

func attemptBooking(client *http.Client, cfg Config, m *Metrics, showID string, seats []string) {
	payload := map[string]interface{}{"show_id": showID, "seat_ids": seats}

	for attempt := 0; ; attempt++ {
		t0 := time.Now()
		resp, err := doJSON(client, http.MethodPost, cfg.BaseURL+"/bookings", "", payload)
		m.recordLatency(time.Since(t0))
		if err != nil {
			m.count("TRANSPORT")
			return
		}

		if resp.StatusCode == http.StatusCreated {
			var b booking
			if err := json.Unmarshal(resp.Data, &b); err == nil {
				m.recordConfirmed(b)
			}
			return
		}

		code := resp.Errors.Code
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		if code == "SEATS_LOCKED" && attempt < cfg.RetryOnLock {
			time.Sleep(time.Duration(5+rand.Intn(20)) * time.Millisecond)
			continue
		}
		m.count(code)
		return
	}
}

func (m *Metrics) recordLatency(d time.Duration) {
	m.latenciesMutex.Lock()
	m.latencies = append(m.latencies, d)
	m.latenciesMutex.Unlock()
}

func (m *Metrics) count(code string) {
	v, _ := m.byCode.LoadOrStore(code, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func (m *Metrics) recordConfirmed(b booking) {
	atomic.AddInt64(&m.confirmed, 1)
	m.bookedMutex.Lock()
	defer m.bookedMutex.Unlock()
	for _, seat := range b.SeatIDs {
		if owner, taken := m.bookedSeats[seat]; taken {
			fmt.Printf("DUPLICATE seat %s in bookings %s and %s\n", seat, owner, b.ID)
			atomic.AddInt64(&m.duplicateSeats, 1)
			continue
		}
		m.bookedSeats[seat] = b.ID
	}
}

func printReport(cfg Config, m *Metrics, elapsed time.Duration, report *consistencyReport) {
	fmt.Println("\n==================== RESULTS ====================")
	fmt.Printf("Attempts:        %d (concurrency %d)\n", cfg.Requests, cfg.Concurrency)
	fmt.Printf("Elapsed:         %v (%.1f req/s)\n", elapsed, float64(cfg.Requests)/elapsed.Seconds())
	fmt.Printf("Confirmed:       %d bookings, %d seats\n", m.confirmed, len(m.bookedSeats))
	m.byCode.Range(func(k, v interface{}) bool {
		fmt.Printf("%-16s %d\n", k.(string)+":", atomic.LoadInt64(v.(*int64)))
		return true
	})
	fmt.Printf("Duplicate seats: %d\n", m.duplicateSeats)

	if len(m.latencies) > 0 {
		sort.Slice(m.latencies, func(i, j int) bool { return m.latencies[i] < m.latencies[j] })
		p := func(q float64) time.Duration { return m.latencies[int(q*float64(len(m.latencies)-1))] }
		fmt.Printf("Latency p50/p95/p99: %v / %v / %v\n", p(0.50), p(0.95), p(0.99))
	}

	if report != nil {
		fmt.Printf("Counter:         available=%d expected=%d booked=%d consistent=%v\n",
			report.AvailableSeats, report.ExpectedCounter, report.BookedRows, report.Consistent)
	}
	fmt.Println("=================================================")
}

func createShow(client *http.Client, cfg Config) (*show, error) {
	resp, err := doJSON(client, http.MethodPost, cfg.BaseURL+"/admin/shows", cfg.AdminKey, map[string]interface{}{
		"name":        fmt.Sprintf("Load Test %s", time.Now().Format(time.RFC3339)),
		"start_time":  time.Now().Add(24 * time.Hour).UTC(),
		"total_seats": cfg.TotalSeats,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, resp.Message)
	}
	var s show
	return &s, json.Unmarshal(resp.Data, &s)
}

func loadSeatIDs(client *http.Client, cfg Config, showID string) ([]string, error) {
	resp, err := doJSON(client, http.MethodGet, cfg.BaseURL+"/shows/"+showID+"/seats", "", nil)
	if err != nil {
		return nil, err
	}
	var sm seatMap
	if err := json.Unmarshal(resp.Data, &sm); err != nil {
		return nil, err
	}
	ids := make([]string, len(sm.Seats))
	for i, seat := range sm.Seats {
		ids[i] = seat.ID
	}
	return ids, nil
}

func checkConsistency(client *http.Client, cfg Config, showID string) (*consistencyReport, error) {
	resp, err := doJSON(client, http.MethodGet, cfg.BaseURL+"/admin/shows/"+showID+"/consistency", cfg.AdminKey, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, resp.Message)
	}
	var r consistencyReport
	return &r, json.Unmarshal(resp.Data, &r)
}

func doJSON(client *http.Client, method, url, adminKey string, body interface{}) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", method, url, err)
	}
	parsed.StatusCode = resp.StatusCode
	return &parsed, nil
}
