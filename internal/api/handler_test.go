package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/service"
	"staybook/internal/cancellation"
	"staybook/internal/checkout"
	"staybook/internal/favorites"
	"staybook/internal/identity"
	"staybook/internal/result"
	"staybook/pkg/client"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

type mockCatalog struct {
	listFunc func(ctx context.Context, filter model.HotelFilter) result.Result[[]model.Hotel]
}

func (m *mockCatalog) List(ctx context.Context, filter model.HotelFilter) result.Result[[]model.Hotel] {
	return m.listFunc(ctx, filter)
}

func (m *mockCatalog) ByID(context.Context, string) result.Result[*model.Hotel] {
	return result.Empty[*model.Hotel]()
}

func (m *mockCatalog) Locations(context.Context) result.Result[[]string] {
	return result.Ok([]string{"Galle"})
}

func (m *mockCatalog) Search(context.Context, string) result.Result[[]model.SearchResult] {
	return result.Empty[[]model.SearchResult]()
}

func (m *mockCatalog) Trending(context.Context) result.Result[[]model.Hotel] {
	return result.Empty[[]model.Hotel]()
}

func (m *mockCatalog) Create(context.Context, identity.Principal, *model.CreateHotelRequest) (*model.Hotel, error) {
	return nil, nil
}

type mockBookings struct {
	service.BookingService
	submitFunc   func(ctx context.Context, p identity.Principal, draftID string) (service.Handoff, error)
	setDatesFunc func(ctx context.Context, p identity.Principal, draftID string, checkIn, checkOut time.Time) (service.View, error)
	listFunc     func(ctx context.Context, p identity.Principal, now time.Time) result.Result[service.Listing]
}

func (m *mockBookings) Submit(ctx context.Context, p identity.Principal, draftID string) (service.Handoff, error) {
	return m.submitFunc(ctx, p, draftID)
}

func (m *mockBookings) SetDates(ctx context.Context, p identity.Principal, draftID string, checkIn, checkOut time.Time) (service.View, error) {
	return m.setDatesFunc(ctx, p, draftID, checkIn, checkOut)
}

func (m *mockBookings) List(ctx context.Context, p identity.Principal, now time.Time) result.Result[service.Listing] {
	return m.listFunc(ctx, p, now)
}

type mockCancellation struct {
	confirmFunc func(ctx context.Context, p identity.Principal, bookingID string) (cancellation.Dialog, error)
	closeFunc   func(p identity.Principal, bookingID string) bool
}

func (m *mockCancellation) Open(context.Context, identity.Principal, string, time.Time) (cancellation.Dialog, error) {
	return cancellation.Dialog{}, nil
}

func (m *mockCancellation) Confirm(ctx context.Context, p identity.Principal, bookingID string) (cancellation.Dialog, error) {
	return m.confirmFunc(ctx, p, bookingID)
}

func (m *mockCancellation) Close(p identity.Principal, bookingID string) bool {
	return m.closeFunc(p, bookingID)
}

type mockFavorites struct {
	toggleFunc func(ctx context.Context, p identity.Principal, hotelID string) (favorites.Toggle, error)
}

func (m *mockFavorites) List(context.Context, identity.Principal) result.Result[[]model.Favorite] {
	return result.Empty[[]model.Favorite]()
}

func (m *mockFavorites) IsFavorite(context.Context, identity.Principal, string) bool {
	return false
}

func (m *mockFavorites) Toggle(ctx context.Context, p identity.Principal, hotelID string) (favorites.Toggle, error) {
	return m.toggleFunc(ctx, p, hotelID)
}

type mockCheckout struct {
	confirmationFunc func(ctx context.Context, p identity.Principal, sessionID string) checkout.Confirmation
}

func (m *mockCheckout) OpenSession(context.Context, identity.Principal, string) (checkout.Session, error) {
	return checkout.Session{}, nil
}

func (m *mockCheckout) Confirmation(ctx context.Context, p identity.Principal, sessionID string) checkout.Confirmation {
	return m.confirmationFunc(ctx, p, sessionID)
}

func newTestRouter(s Services) *httprouter.Router {
	log := logger.New(logger.Config{Level: "info", Format: logger.JSON, Service: "test"})
	h := NewHandler(s, time.UTC, log)
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListHotels(t *testing.T) {
	var received model.HotelFilter
	router := newTestRouter(Services{Catalog: &mockCatalog{
		listFunc: func(_ context.Context, filter model.HotelFilter) result.Result[[]model.Hotel] {
			received = filter
			return result.Ok([]model.Hotel{{ID: "h1"}})
		},
	}})

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{name: "no filter", target: "/api/hotels", wantStatus: http.StatusOK},
		{name: "location and sort", target: "/api/hotels?location=Galle&sortByPrice=desc", wantStatus: http.StatusOK},
		{name: "bad sort", target: "/api/hotels?sortByPrice=cheapest", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.target, "", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	if received.Location != "Galle" || received.SortByPrice != "desc" {
		t.Errorf("unexpected filter %+v", received)
	}
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "created", wantStatus: http.StatusCreated},
		{name: "in flight", err: bookingserrors.ErrSubmissionInFlight, wantStatus: http.StatusConflict, wantCode: apperrors.CodeConflict},
		{name: "validation", err: apperrors.Validation("At least one room must be selected", map[string]any{"roomSelections": "At least one room must be selected"}), wantStatus: http.StatusUnprocessableEntity, wantCode: apperrors.CodeValidation},
		{name: "signed out", err: apperrors.Unauthorized(identity.MsgNoToken), wantStatus: http.StatusUnauthorized, wantCode: apperrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(Services{Bookings: &mockBookings{
				submitFunc: func(_ context.Context, _ identity.Principal, draftID string) (service.Handoff, error) {
					if tt.err != nil {
						return service.Handoff{}, tt.err
					}
					return service.Handoff{BookingID: "b1", PaymentPath: service.PaymentPathPrefix + "b1"}, nil
				},
			}})

			rec := serve(router, http.MethodPost, "/api/drafts/d1/submit", "", "token-1")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode == "" {
				var body struct {
					Data service.Handoff `json:"data"`
				}
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Data.PaymentPath != "/booking/payment?bookingId=b1" {
					t.Errorf("payment path = %q", body.Data.PaymentPath)
				}
				return
			}
			var body apperrors.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
		})
	}
}

func TestSetDates_InvalidDate(t *testing.T) {
	called := false
	router := newTestRouter(Services{Bookings: &mockBookings{
		setDatesFunc: func(context.Context, identity.Principal, string, time.Time, time.Time) (service.View, error) {
			called = true
			return service.View{}, nil
		},
	}})

	rec := serve(router, http.MethodPut, "/api/drafts/d1/dates", `{"checkIn":"tomorrow","checkOut":"2026-10-20"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("service should not be called with an invalid date")
	}

	var gotIn, gotOut time.Time
	router = newTestRouter(Services{Bookings: &mockBookings{
		setDatesFunc: func(_ context.Context, _ identity.Principal, _ string, checkIn, checkOut time.Time) (service.View, error) {
			gotIn, gotOut = checkIn, checkOut
			return service.View{CheckIn: checkIn, CheckOut: checkOut}, nil
		},
	}})
	rec = serve(router, http.MethodPut, "/api/drafts/d1/dates", `{"checkIn":"2026-10-18","checkOut":"2026-10-20T15:00:00Z"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !gotIn.Equal(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)) || !gotOut.Equal(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("dates = %v, %v", gotIn, gotOut)
	}
}

func TestSetDates_MissingDatesAreUnset(t *testing.T) {
	var gotIn, gotOut time.Time
	router := newTestRouter(Services{Bookings: &mockBookings{
		setDatesFunc: func(_ context.Context, _ identity.Principal, _ string, checkIn, checkOut time.Time) (service.View, error) {
			gotIn, gotOut = checkIn, checkOut
			return service.View{}, nil
		},
	}})

	rec := serve(router, http.MethodPut, "/api/drafts/d1/dates", `{"checkIn":"2026-10-18"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotIn.IsZero() || !gotOut.IsZero() {
		t.Errorf("dates = %v, %v; want check-out unset", gotIn, gotOut)
	}
}

func TestListBookings_ResultStatus(t *testing.T) {
	tests := []struct {
		name       string
		res        result.Result[service.Listing]
		wantStatus int
		wantKind   result.Kind
	}{
		{name: "empty", res: result.Empty[service.Listing](), wantStatus: http.StatusOK, wantKind: result.KindEmpty},
		{name: "signed out", res: result.Fail[service.Listing](result.ErrUnauthorized, identity.ErrNoToken), wantStatus: http.StatusUnauthorized, wantKind: result.KindError},
		{name: "network", res: result.Fail[service.Listing](result.ErrNetwork, client.ErrBackendUnavailable), wantStatus: http.StatusServiceUnavailable, wantKind: result.KindError},
		{name: "backend", res: result.Fail[service.Listing](result.ErrBackend, &client.APIError{Status: http.StatusInternalServerError, Message: "boom"}), wantStatus: http.StatusBadGateway, wantKind: result.KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(Services{Bookings: &mockBookings{
				listFunc: func(context.Context, identity.Principal, time.Time) result.Result[service.Listing] { return tt.res },
			}})

			rec := serve(router, http.MethodGet, "/api/bookings", "", "token-1")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Kind result.Kind `json:"kind"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", body.Kind, tt.wantKind)
			}
		})
	}
}

func TestConfirmCancellation(t *testing.T) {
	t.Run("failure keeps the dialog", func(t *testing.T) {
		router := newTestRouter(Services{Cancellation: &mockCancellation{
			confirmFunc: func(_ context.Context, _ identity.Principal, bookingID string) (cancellation.Dialog, error) {
				return cancellation.Dialog{BookingID: bookingID, Open: true, Cancellable: true, Error: cancellation.MsgCancelFailed},
					apperrors.Upstream(http.StatusInternalServerError, cancellation.MsgCancelFailed)
			},
		}})

		rec := serve(router, http.MethodPost, "/api/bookings/b1/cancellation", "", "token-1")
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		var body struct {
			Message string              `json:"message"`
			Dialog  cancellation.Dialog `json:"dialog"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body.Dialog.Open || body.Dialog.Error != cancellation.MsgCancelFailed || body.Message != cancellation.MsgCancelFailed {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("not cancellable", func(t *testing.T) {
		router := newTestRouter(Services{Cancellation: &mockCancellation{
			confirmFunc: func(context.Context, identity.Principal, string) (cancellation.Dialog, error) {
				return cancellation.Dialog{Open: true, Explanation: cancellation.ExplainRecent}, cancellation.ErrNotCancellable
			},
		}})

		if rec := serve(router, http.MethodPost, "/api/bookings/b1/cancellation", "", "token-1"); rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("close while pending", func(t *testing.T) {
		router := newTestRouter(Services{Cancellation: &mockCancellation{
			closeFunc: func(identity.Principal, string) bool { return false },
		}})

		if rec := serve(router, http.MethodDelete, "/api/bookings/b1/cancellation", "", "token-1"); rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}

func TestToggleFavorite(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "added", wantStatus: http.StatusOK},
		{name: "in flight", err: favorites.ErrToggleInFlight, wantStatus: http.StatusConflict},
		{name: "backend failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(Services{Favorites: &mockFavorites{
				toggleFunc: func(_ context.Context, _ identity.Principal, hotelID string) (favorites.Toggle, error) {
					if tt.err != nil {
						return favorites.Toggle{}, tt.err
					}
					return favorites.Toggle{HotelID: hotelID, Favorite: true, Message: favorites.MsgAdded}, nil
				},
			}})

			rec := serve(router, http.MethodPost, "/api/favorites/h1/toggle", "", "token-1")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestPaymentConfirmation_PassesSessionID(t *testing.T) {
	var got string
	router := newTestRouter(Services{Checkout: &mockCheckout{
		confirmationFunc: func(_ context.Context, _ identity.Principal, sessionID string) checkout.Confirmation {
			got = sessionID
			return checkout.Confirmation{State: checkout.StateUnknown, Redirect: "/", Message: checkout.MsgStatusUnknown}
		},
	}})

	rec := serve(router, http.MethodGet, "/api/payments/confirmation?session_id=cs_1", "", "token-1")
	if rec.Code != http.StatusOK || got != "cs_1" {
		t.Fatalf("status = %d, session = %q", rec.Code, got)
	}
}

func TestReady(t *testing.T) {
	log := logger.New(logger.Config{Level: "info", Format: logger.JSON, Service: "test"})

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
	}{
		{name: "no dependencies", checks: nil, wantStatus: http.StatusOK},
		{name: "all healthy", checks: map[string]Check{"redis": func(context.Context) error { return nil }}, wantStatus: http.StatusOK},
		{name: "one failing", checks: map[string]Check{
			"redis": func(context.Context) error { return nil },
			"mongo": func(context.Context) error { return errors.New("no reachable servers") },
		}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(tt.checks, log).RegisterRoutes(router)

			rec := serve(router, http.MethodGet, "/ready", "", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
