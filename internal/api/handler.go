// Package api exposes the BFF operations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"staybook/internal/action"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/service"
	"staybook/internal/cancellation"
	"staybook/internal/checkout"
	"staybook/internal/favorites"
	"staybook/internal/identity"
	"staybook/internal/result"
	"staybook/pkg/client"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

type CatalogService interface {
	List(ctx context.Context, filter model.HotelFilter) result.Result[[]model.Hotel]
	ByID(ctx context.Context, id string) result.Result[*model.Hotel]
	Locations(ctx context.Context) result.Result[[]string]
	Search(ctx context.Context, query string) result.Result[[]model.SearchResult]
	Trending(ctx context.Context) result.Result[[]model.Hotel]
	Create(ctx context.Context, p identity.Principal, req *model.CreateHotelRequest) (*model.Hotel, error)
}

type CancellationService interface {
	Open(ctx context.Context, p identity.Principal, bookingID string, now time.Time) (cancellation.Dialog, error)
	Confirm(ctx context.Context, p identity.Principal, bookingID string) (cancellation.Dialog, error)
	Close(p identity.Principal, bookingID string) bool
}

type FavoriteService interface {
	List(ctx context.Context, p identity.Principal) result.Result[[]model.Favorite]
	IsFavorite(ctx context.Context, p identity.Principal, hotelID string) bool
	Toggle(ctx context.Context, p identity.Principal, hotelID string) (favorites.Toggle, error)
}

type CheckoutService interface {
	OpenSession(ctx context.Context, p identity.Principal, bookingID string) (checkout.Session, error)
	Confirmation(ctx context.Context, p identity.Principal, sessionID string) checkout.Confirmation
}

type Services struct {
	Catalog      CatalogService
	Bookings     service.BookingService
	Cancellation CancellationService
	Favorites    FavoriteService
	Checkout     CheckoutService
}

type Handler struct {
	catalog      CatalogService
	bookings     service.BookingService
	cancellation CancellationService
	favorites    FavoriteService
	checkout     CheckoutService
	loc          *time.Location
	log          *logger.Logger
	now          func() time.Time
}

func NewHandler(s Services, loc *time.Location, log *logger.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		catalog:      s.Catalog,
		bookings:     s.Bookings,
		cancellation: s.Cancellation,
		favorites:    s.Favorites,
		checkout:     s.Checkout,
		loc:          loc,
		log:          log.Component("api"),
		now:          time.Now,
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/hotels", h.ListHotels)
	router.POST("/api/hotels", h.CreateHotel)
	router.GET("/api/hotels/:id", h.GetHotel)
	router.GET("/api/locations", h.Locations)
	router.GET("/api/search", h.Search)
	router.GET("/api/trending", h.Trending)

	router.POST("/api/drafts", h.NewDraft)
	router.GET("/api/drafts/:id", h.GetDraft)
	router.PUT("/api/drafts/:id/dates", h.SetDates)
	router.POST("/api/drafts/:id/rooms", h.AddRoom)
	router.PUT("/api/drafts/:id/rooms/:index", h.UpdateRoom)
	router.DELETE("/api/drafts/:id/rooms/:index", h.RemoveRoom)
	router.PUT("/api/drafts/:id/special-requests", h.SetSpecialRequests)
	router.POST("/api/drafts/:id/availability", h.RefreshAvailability)
	router.POST("/api/drafts/:id/submit", h.Submit)

	router.GET("/api/bookings", h.ListBookings)
	router.GET("/api/bookings/:id/cancellation", h.OpenCancellation)
	router.POST("/api/bookings/:id/cancellation", h.ConfirmCancellation)
	router.DELETE("/api/bookings/:id/cancellation", h.CloseCancellation)

	router.GET("/api/favorites", h.ListFavorites)
	router.GET("/api/favorites/:hotelId", h.IsFavorite)
	router.POST("/api/favorites/:hotelId/toggle", h.ToggleFavorite)

	router.POST("/api/payments/sessions", h.OpenPaymentSession)
	router.GET("/api/payments/confirmation", h.PaymentConfirmation)
}

func principal(r *http.Request) identity.Principal {
	return identity.FromRequest(r)
}

// toAppError maps the in-flight sentinels onto 409 so a repeated command is
// reported as a no-op rather than a server fault.
func toAppError(err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrSubmissionInFlight),
		errors.Is(err, cancellation.ErrCancelInFlight),
		errors.Is(err, favorites.ErrToggleInFlight),
		errors.Is(err, action.ErrPending):
		return apperrors.Conflict(err.Error()).WithDetails(map[string]any{"in_flight": true})
	case errors.Is(err, cancellation.ErrNotCancellable):
		return apperrors.Conflict(err.Error())
	}
	return err
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, toAppError(err)); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

// writeResult renders a query result as-is. Ok and Empty are both 200 so the
// caller renders its empty state from the kind.
func writeResult[T any](h *Handler, w http.ResponseWriter, handler string, res result.Result[T]) {
	status := http.StatusOK
	if res.IsError() {
		status = resultStatus(res.ErrorKind, res.Err)
	}
	if err := httputil.WriteJSON(w, status, res); err != nil {
		h.log.Error("failed to write result response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func resultStatus(kind result.ErrorKind, err error) int {
	switch kind {
	case result.ErrUnauthorized:
		return http.StatusUnauthorized
	case result.ErrNetwork:
		return http.StatusServiceUnavailable
	case result.ErrInvalid:
		return http.StatusBadRequest
	case result.ErrBackend:
		if apiErr, ok := client.AsAPIError(err); ok {
			return apperrors.Upstream(apiErr.Status, apiErr.Message).StatusCode()
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
