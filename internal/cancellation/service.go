package cancellation

import (
	"context"
	"errors"
	"sync"
	"time"

	"staybook/internal/action"
	"staybook/internal/events"
	"staybook/internal/identity"
	"staybook/internal/querycache"
	"staybook/internal/result"
	"staybook/pkg/client"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"staybook/pkg/model"
)

const MsgCancelFailed = "Failed to cancel booking. Please try again."

var (
	ErrCancelInFlight = errors.New("cancellation already in progress")
	ErrNotCancellable = errors.New("booking can no longer be cancelled")
)

type BookingFinder interface {
	Find(ctx context.Context, p identity.Principal, bookingID string) (*model.Booking, error)
}

type Canceller interface {
	Cancel(ctx context.Context, bookingID string) (*model.Booking, error)
}

type Dialog struct {
	BookingID   string          `json:"bookingId"`
	HotelName   string          `json:"hotelName"`
	CheckIn     time.Time       `json:"checkIn"`
	Cancellable bool            `json:"cancellable"`
	Explanation string          `json:"explanation,omitempty"`
	Open        bool            `json:"open"`
	Error       string          `json:"error,omitempty"`
	Submission  action.Snapshot `json:"submission"`
}

type dialog struct {
	booking *model.Booking
	guard   *action.Guard
	errMsg  string
}

type Service struct {
	finder    BookingFinder
	backend   Canceller
	policy    Policy
	cache     *querycache.Cache
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	dialogs map[string]*dialog
}

func NewService(finder BookingFinder, backend Canceller, policy Policy, cache *querycache.Cache, publisher events.Publisher, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		finder:    finder,
		backend:   backend,
		policy:    policy,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		log:       log.Component("cancellation"),
		now:       time.Now,
		dialogs:   make(map[string]*dialog),
	}
}

func dialogKey(p identity.Principal, bookingID string) string {
	return p.Scope() + ":" + bookingID
}

// Open loads the booking and shows whether it can still be cancelled.
func (s *Service) Open(ctx context.Context, p identity.Principal, bookingID string, now time.Time) (Dialog, error) {
	if !p.SignedIn() {
		return Dialog{}, apperrors.Unauthorized(identity.MsgNoToken)
	}
	booking, err := s.finder.Find(ctx, p, bookingID)
	if err != nil {
		return Dialog{}, err
	}

	key := dialogKey(p, bookingID)
	s.mu.Lock()
	d, ok := s.dialogs[key]
	if !ok {
		d = &dialog{guard: action.NewGuard()}
		s.dialogs[key] = d
	}
	if !d.guard.Pending() {
		d.booking = booking
	}
	view := s.view(d, now, true)
	s.mu.Unlock()

	return view, nil
}

// Confirm cancels the booking behind an open dialog. The policy is checked
// again first; a refused booking never reaches the backend.
func (s *Service) Confirm(ctx context.Context, p identity.Principal, bookingID string) (Dialog, error) {
	now := s.now()
	key := dialogKey(p, bookingID)

	s.mu.Lock()
	d, ok := s.dialogs[key]
	s.mu.Unlock()
	if !ok {
		if _, err := s.Open(ctx, p, bookingID, now); err != nil {
			return Dialog{}, err
		}
		s.mu.Lock()
		d = s.dialogs[key]
		s.mu.Unlock()
	}

	s.mu.Lock()
	booking := d.booking
	s.mu.Unlock()

	if !s.policy.IsCancellable(booking, now) {
		return s.snapshot(d, now, true), ErrNotCancellable
	}
	if err := d.guard.Begin(); err != nil {
		return s.snapshot(d, now, true), ErrCancelInFlight
	}
	s.mu.Lock()
	d.errMsg = ""
	s.mu.Unlock()

	_, err := s.backend.Cancel(client.WithBearerToken(ctx, p.Token), bookingID)
	if err != nil {
		d.guard.Fail(err)
		s.metrics.ObserveAction("cancel_booking", "failure")
		msg := result.Message(err, MsgCancelFailed)
		s.mu.Lock()
		d.errMsg = msg
		s.mu.Unlock()
		s.log.Error("Failed to cancel booking", "booking_id", bookingID, "error", err)

		appErr := result.ToAppError(err, MsgCancelFailed)
		appErr.Message = msg
		return s.snapshot(d, now, true), appErr
	}

	d.guard.Succeed()
	s.metrics.ObserveAction("cancel_booking", "success")
	s.cache.Invalidate(ctx, querycache.BookingsTag(p.Scope()), querycache.AvailabilityTag(booking.Hotel.ID))

	s.mu.Lock()
	delete(s.dialogs, key)
	s.mu.Unlock()

	if err := s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeBookingCancelled,
		BookingID: bookingID,
		HotelID:   booking.Hotel.ID,
		Scope:     p.Scope(),
	}); err != nil {
		s.log.Warn("Failed to publish cancellation event", "booking_id", bookingID, "error", err)
	}

	s.log.Info("Booking cancelled successfully", "booking_id", bookingID)
	return s.snapshot(d, now, false), nil
}

// Close dismisses a dialog. A pending cancellation keeps it open.
func (s *Service) Close(p identity.Principal, bookingID string) bool {
	key := dialogKey(p, bookingID)
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dialogs[key]
	if !ok {
		return true
	}
	if d.guard.Pending() {
		return false
	}
	delete(s.dialogs, key)
	return true
}

func (s *Service) snapshot(d *dialog, now time.Time, open bool) Dialog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(d, now, open)
}

// view renders d. The caller holds s.mu.
func (s *Service) view(d *dialog, now time.Time, open bool) Dialog {
	decision := s.policy.Evaluate(d.booking, now)
	v := Dialog{
		BookingID:   d.booking.ID,
		HotelName:   d.booking.Hotel.Name,
		CheckIn:     d.booking.CheckIn,
		Cancellable: decision.Cancellable,
		Open:        open,
		Error:       d.errMsg,
		Submission:  d.guard.Snapshot(),
	}
	if !decision.Cancellable {
		v.Explanation = decision.Explanation()
	}
	return v
}
