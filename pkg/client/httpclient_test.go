package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, serverURL string, maxRetries, breakerFailures int) *Client {
	t.Helper()
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewClient(Config{
		BaseURL:            serverURL,
		Timeout:            2 * time.Second,
		RateLimit:          1000,
		Burst:              1000,
		MaxRetries:         maxRetries,
		RetryDelay:         time.Millisecond,
		BreakerFailures:    breakerFailures,
		BreakerOpenTimeout: time.Minute,
	}, log, nil)
}

func TestGET_RetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Hotel{{ID: "h1", Name: "Harbor Inn"}})
	}))
	defer server.Close()

	c := testClient(t, server.URL, 2, 10)
	hotels, err := c.Hotels.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hotels) != 1 || hotels[0].ID != "h1" {
		t.Errorf("unexpected hotels: %+v", hotels)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestPOST_IsNeverRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := testClient(t, server.URL, 3, 10)
	_, err := c.Bookings.Create(context.Background(), &model.CreateBookingRequest{HotelID: "h1"})

	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.Status)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 call for POST, got %d", got)
	}
}

func TestAPIError_DecodesBackendBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"name":"NotFoundError","message":"No bookings found for this user"}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, 0, 10)
	_, err := c.Bookings.ListForUser(context.Background())

	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", apiErr.Status)
	}
	if apiErr.Name != "NotFoundError" {
		t.Errorf("expected name NotFoundError, got %q", apiErr.Name)
	}
	if apiErr.Message != "No bookings found for this user" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestBearerTokenIsForwarded(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, 0, 10)
	ctx := WithBearerToken(context.Background(), "tok-123")
	if _, err := c.Favorites.List(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testClient(t, server.URL, 0, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Hotels.Trending(ctx)
		if _, ok := AsAPIError(err); !ok {
			t.Fatalf("call %d: expected APIError, got %v", i, err)
		}
	}

	_, err := c.Hotels.Trending(ctx)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable once the breaker is open, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected the open breaker to short-circuit, server saw %d calls", got)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL, 0, 1)
	for i := 0; i < 5; i++ {
		_, err := c.Hotels.GetByID(context.Background(), "missing")
		if errors.Is(err, ErrBackendUnavailable) {
			t.Fatalf("call %d: 404 responses must not open the breaker", i)
		}
	}
}

func TestAvailabilityQuery(t *testing.T) {
	var gotPath, gotCheckIn string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCheckIn = r.URL.Query().Get("checkIn")
		_, _ = w.Write([]byte(`[{"type":"Deluxe","availableCount":2}]`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, 0, 10)
	checkIn := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records, err := c.Hotels.Availability(context.Background(), "h 1", checkIn, checkIn.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/hotels/h 1/availability" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotCheckIn != "2024-01-01T00:00:00Z" {
		t.Errorf("unexpected checkIn %q", gotCheckIn)
	}
	if len(records) != 1 || records[0].AvailableCount != 2 {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestWaitForHealthy(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(t, server.URL, 0, 10)
	if err := c.HTTP.WaitForHealthy(context.Background(), "/hotels/locations", 3*time.Second); err != nil {
		t.Fatalf("expected healthy backend, got %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	c = testClient(t, down.URL, 0, 10)
	if err := c.HTTP.WaitForHealthy(context.Background(), "/hotels/locations", 200*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}
