package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"staybook/internal/action"
	"staybook/internal/availability"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	"staybook/internal/cancellation"
	"staybook/internal/events"
	"staybook/internal/flow"
	"staybook/internal/identity"
	"staybook/internal/querycache"
	"staybook/internal/result"
	"staybook/pkg/client"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"staybook/pkg/model"
	"staybook/pkg/timeutil"
)

const PaymentPathPrefix = "/booking/payment?bookingId="

// BookingBackend is the slice of the backend booking API the service uses.
type BookingBackend interface {
	Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error)
	ListForUser(ctx context.Context) ([]model.Booking, error)
}

type HotelLookup interface {
	Hotel(ctx context.Context, id string) (*model.Hotel, error)
}

type Handoff struct {
	BookingID   string `json:"bookingId"`
	PaymentPath string `json:"paymentPath"`
}

type View struct {
	ID              string                     `json:"id"`
	HotelID         string                     `json:"hotelId"`
	HotelName       string                     `json:"hotelName"`
	CheckIn         time.Time                  `json:"checkIn"`
	CheckOut        time.Time                  `json:"checkOut"`
	Selections      []model.RoomSelection      `json:"roomSelections"`
	SpecialRequests string                     `json:"specialRequests"`
	AvailableRooms  []model.RoomType           `json:"availableRooms"`
	Message         string                     `json:"message,omitempty"`
	Fetching        bool                       `json:"fetching"`
	Quote           Quote                      `json:"quote"`
	Errors          validator.ValidationErrors `json:"errors,omitempty"`
	CanSubmit       bool                       `json:"canSubmit"`
	Submission      action.Snapshot            `json:"submission"`
}

type ListedBooking struct {
	model.Booking
	Cancellable bool    `json:"cancellable"`
	Nights      int     `json:"nights"`
	Total       float64 `json:"total"`
}

type Listing struct {
	Upcoming []ListedBooking `json:"upcoming"`
	Past     []ListedBooking `json:"past"`
}

type Dependencies struct {
	Backend   BookingBackend
	Hotels    HotelLookup
	Resolver  *availability.Resolver
	Validator *validator.BookingValidator
	Policy    cancellation.Policy
	Attempts  repository.AttemptRepository
	Publisher events.Publisher
	Cache     *querycache.Cache
	Drafts    *DraftStore
	Metrics   *metrics.Metrics
	Log       *logger.Logger
	Location  *time.Location
}

type BookingService interface {
	NewDraft(ctx context.Context, p identity.Principal, hotelID string) (View, error)
	Draft(ctx context.Context, p identity.Principal, draftID string) (View, error)
	SetDates(ctx context.Context, p identity.Principal, draftID string, checkIn, checkOut time.Time) (View, error)
	AddRoomSelection(ctx context.Context, p identity.Principal, draftID string) (View, error)
	RemoveRoomSelection(ctx context.Context, p identity.Principal, draftID string, index int) (View, error)
	UpdateRoomSelection(ctx context.Context, p identity.Principal, draftID string, index int, roomType string, numRooms int) (View, error)
	SetSpecialRequests(ctx context.Context, p identity.Principal, draftID string, text string) (View, error)
	RefreshAvailability(ctx context.Context, p identity.Principal, draftID string) (View, error)
	Submit(ctx context.Context, p identity.Principal, draftID string) (Handoff, error)
	List(ctx context.Context, p identity.Principal, now time.Time) result.Result[Listing]
	Find(ctx context.Context, p identity.Principal, bookingID string) (*model.Booking, error)
}

type submission struct {
	principal identity.Principal
	draftID   string
	request   *model.CreateBookingRequest
	quote     Quote
	now       time.Time
	booking   *model.Booking
}

type bookingService struct {
	backend   BookingBackend
	hotels    HotelLookup
	resolver  *availability.Resolver
	validator *validator.BookingValidator
	policy    cancellation.Policy
	attempts  repository.AttemptRepository
	publisher events.Publisher
	cache     *querycache.Cache
	drafts    *DraftStore
	metrics   *metrics.Metrics
	log       *logger.Logger
	loc       *time.Location
	now       func() time.Time
	submit    *flow.Flow[submission]
}

func NewBookingService(deps Dependencies) BookingService {
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	attempts := deps.Attempts
	if attempts == nil {
		attempts = repository.NoopAttemptRepository{}
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}

	s := &bookingService{
		backend:   deps.Backend,
		hotels:    deps.Hotels,
		resolver:  deps.Resolver,
		validator: deps.Validator,
		policy:    deps.Policy,
		attempts:  attempts,
		publisher: publisher,
		cache:     deps.Cache,
		drafts:    deps.Drafts,
		metrics:   deps.Metrics,
		log:       log.Component("bookings"),
		loc:       loc,
		now:       time.Now,
	}
	s.submit = flow.New("submit_booking", log,
		flow.NewStep("validate", s.validateStep),
		flow.NewStep("create_booking", s.createStep),
		flow.Optional(flow.NewStep("record_attempt", s.recordStep)),
		flow.Optional(flow.NewStep("publish_event", s.publishStep)),
	)
	return s
}

func (s *bookingService) NewDraft(ctx context.Context, p identity.Principal, hotelID string) (View, error) {
	if hotelID == "" {
		return View{}, apperrors.InvalidInput(validator.MsgHotelRequired)
	}
	hotel, err := s.hotels.Hotel(ctx, hotelID)
	if err != nil {
		return View{}, result.ToAppError(err, "Failed to load hotel")
	}
	if hotel == nil {
		return View{}, apperrors.NotFoundWithID("Hotel", hotelID)
	}

	d := newDraft(p.Scope(), hotel, s.now(), s.loc)
	s.drafts.put(d)
	s.log.Debug("Booking draft opened", "draft_id", d.ID, "hotel_id", hotel.ID)

	return s.refresh(ctx, p, d)
}

func (s *bookingService) Draft(_ context.Context, p identity.Principal, draftID string) (View, error) {
	d, err := s.draft(p, draftID)
	if err != nil {
		return View{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return s.view(d), nil
}

// SetDates changes the stay window and re-resolves availability for it.
func (s *bookingService) SetDates(ctx context.Context, p identity.Principal, draftID string, checkIn, checkOut time.Time) (View, error) {
	d, err := s.draft(p, draftID)
	if err != nil {
		return View{}, err
	}
	d.mu.Lock()
	d.setDates(s.dateOnly(checkIn), s.dateOnly(checkOut))
	d.mu.Unlock()

	return s.refresh(ctx, p, d)
}

func (s *bookingService) AddRoomSelection(_ context.Context, p identity.Principal, draftID string) (View, error) {
	return s.mutate(p, draftID, func(d *Draft) error {
		d.addSelection()
		return nil
	})
}

func (s *bookingService) RemoveRoomSelection(_ context.Context, p identity.Principal, draftID string, index int) (View, error) {
	return s.mutate(p, draftID, func(d *Draft) error {
		return d.removeSelection(index)
	})
}

func (s *bookingService) UpdateRoomSelection(_ context.Context, p identity.Principal, draftID string, index int, roomType string, numRooms int) (View, error) {
	return s.mutate(p, draftID, func(d *Draft) error {
		return d.updateSelection(index, roomType, numRooms)
	})
}

func (s *bookingService) SetSpecialRequests(_ context.Context, p identity.Principal, draftID string, text string) (View, error) {
	return s.mutate(p, draftID, func(d *Draft) error {
		d.SpecialRequests = text
		return nil
	})
}

func (s *bookingService) RefreshAvailability(ctx context.Context, p identity.Principal, draftID string) (View, error) {
	d, err := s.draft(p, draftID)
	if err != nil {
		return View{}, err
	}
	return s.refresh(ctx, p, d)
}

// refresh resolves availability for the draft's current window. The outcome
// is dropped if the window changed while the lookup was running.
func (s *bookingService) refresh(ctx context.Context, p identity.Principal, d *Draft) (View, error) {
	d.mu.Lock()
	key := d.beginRefresh()
	hotel, checkIn, checkOut := d.Hotel, d.CheckIn, d.CheckOut
	d.mu.Unlock()

	res, err := s.resolver.Resolve(ctx, p, hotel, checkIn, checkOut)

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.applyResolution(key, res, err) {
		s.log.Debug("Discarding stale availability", "draft_id", d.ID, "key", key)
	}
	return s.view(d), nil
}

func (s *bookingService) mutate(p identity.Principal, draftID string, fn func(d *Draft) error) (View, error) {
	d, err := s.draft(p, draftID)
	if err != nil {
		return View{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.submission.Pending() {
		return View{}, apperrors.Conflict(bookingserrors.ErrSubmissionInFlight.Error())
	}
	if err := fn(d); err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidSelection) {
			return View{}, apperrors.InvalidInput("Invalid room selection")
		}
		return View{}, err
	}
	return s.view(d), nil
}

func (s *bookingService) draft(p identity.Principal, draftID string) (*Draft, error) {
	d, err := s.drafts.get(draftID, p.Scope(), s.now())
	if err != nil {
		return nil, apperrors.NotFoundWithID("Booking draft", draftID)
	}
	return d, nil
}

// view snapshots d. The caller holds d.mu.
func (s *bookingService) view(d *Draft) View {
	v := View{
		ID:              d.ID,
		HotelID:         d.Hotel.ID,
		HotelName:       d.Hotel.Name,
		CheckIn:         d.CheckIn,
		CheckOut:        d.CheckOut,
		Selections:      append([]model.RoomSelection(nil), d.Selections...),
		SpecialRequests: d.SpecialRequests,
		AvailableRooms:  append([]model.RoomType(nil), d.available...),
		Message:         d.message,
		Fetching:        d.fetching(),
		Quote:           NewQuote(d.Hotel, d.Selections, d.CheckIn, d.CheckOut),
		CanSubmit:       d.canSubmit(),
		Submission:      d.submission.Snapshot(),
	}
	if err := s.validator.Validate(d.request(), s.now()); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			v.Errors = verrs
		}
	}
	return v
}

// Submit creates the booking for a draft and hands off to payment. Sign-in
// is required. A second call while one is pending fails with
// ErrSubmissionInFlight and changes nothing.
func (s *bookingService) Submit(ctx context.Context, p identity.Principal, draftID string) (Handoff, error) {
	if !p.SignedIn() {
		return Handoff{}, apperrors.Unauthorized(identity.MsgNoToken)
	}
	d, err := s.draft(p, draftID)
	if err != nil {
		return Handoff{}, err
	}

	d.mu.Lock()
	if !d.canSubmit() {
		pending := d.submission.Pending()
		d.mu.Unlock()
		if pending {
			return Handoff{}, bookingserrors.ErrSubmissionInFlight
		}
		return Handoff{}, apperrors.Conflict(bookingserrors.ErrNotSubmittable.Error())
	}
	if err := d.submission.Begin(); err != nil {
		d.mu.Unlock()
		return Handoff{}, bookingserrors.ErrSubmissionInFlight
	}
	state := &submission{
		principal: p,
		draftID:   d.ID,
		request:   d.request(),
		quote:     NewQuote(d.Hotel, d.Selections, d.CheckIn, d.CheckOut),
		now:       s.now(),
	}
	d.mu.Unlock()

	if err := s.submit.Run(ctx, state); err != nil {
		d.submission.Fail(err)
		s.metrics.ObserveAction("submit_booking", "failure")
		s.recordFailure(ctx, state, err)
		s.log.Error("Failed to create booking", "draft_id", d.ID, "hotel_id", state.request.HotelID, "error", err)
		return Handoff{}, submitError(err)
	}

	d.submission.Succeed()
	s.metrics.ObserveAction("submit_booking", "success")
	s.cache.Invalidate(ctx, querycache.BookingsTag(p.Scope()), querycache.AvailabilityTag(state.request.HotelID))
	s.drafts.delete(d.ID)

	s.log.Info("Booking created successfully",
		"booking_id", state.booking.ID,
		"hotel_id", state.request.HotelID,
		"check_in", state.request.CheckIn,
		"check_out", state.request.CheckOut,
	)
	return Handoff{BookingID: state.booking.ID, PaymentPath: PaymentPathPrefix + state.booking.ID}, nil
}

func submitError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(verrs[0].Message, verrs.Details())
	}
	return result.ToAppError(err, bookingserrors.MsgCreateFailed)
}

func (s *bookingService) validateStep(_ context.Context, st *submission) error {
	return s.validator.Validate(st.request, st.now)
}

func (s *bookingService) createStep(ctx context.Context, st *submission) error {
	ctx = client.WithBearerToken(ctx, st.principal.Token)
	booking, err := s.backend.Create(ctx, st.request)
	if err != nil {
		return err
	}
	if booking == nil || booking.ID == "" {
		return bookingserrors.ErrNoBookingID
	}
	st.booking = booking
	return nil
}

func (s *bookingService) recordStep(ctx context.Context, st *submission) error {
	attempt := s.attempt(st, model.AttemptOutcomeCreated)
	attempt.BookingID = st.booking.ID
	return s.attempts.Record(ctx, attempt)
}

func (s *bookingService) publishStep(ctx context.Context, st *submission) error {
	return s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeBookingCreated,
		BookingID: st.booking.ID,
		HotelID:   st.request.HotelID,
		Scope:     st.principal.Scope(),
		Data:      st.quote,
	})
}

func (s *bookingService) recordFailure(ctx context.Context, st *submission, cause error) {
	attempt := s.attempt(st, model.AttemptOutcomeFailed)
	attempt.Error = cause.Error()
	if err := s.attempts.Record(ctx, attempt); err != nil {
		s.log.Warn("Failed to record booking attempt", "draft_id", st.draftID, "error", err)
	}
}

func (s *bookingService) attempt(st *submission, outcome string) *model.BookingAttempt {
	return &model.BookingAttempt{
		DraftID:        st.draftID,
		Scope:          st.principal.Scope(),
		HotelID:        st.request.HotelID,
		CheckIn:        st.request.CheckIn,
		CheckOut:       st.request.CheckOut,
		RoomSelections: st.request.RoomSelections,
		QuotedTotal:    st.quote.Total,
		Outcome:        outcome,
	}
}

// List splits the user's bookings into upcoming and past and annotates each
// one for display.
func (s *bookingService) List(ctx context.Context, p identity.Principal, now time.Time) result.Result[Listing] {
	if !p.SignedIn() {
		return result.Fail[Listing](result.ErrUnauthorized, identity.ErrNoToken)
	}

	bookings, err := s.bookings(ctx, p)
	if err != nil {
		return result.FromError[Listing](err)
	}
	if len(bookings) == 0 {
		return result.Empty[Listing]()
	}

	listing := Listing{Upcoming: []ListedBooking{}, Past: []ListedBooking{}}
	for i := range bookings {
		b := bookings[i]
		item := ListedBooking{
			Booking:     b,
			Cancellable: s.policy.IsCancellable(&b, now),
			Nights:      Nights(b.CheckIn, b.CheckOut),
			Total:       BookingTotal(&b),
		}
		if b.Status == model.BookingStatusOngoing {
			listing.Upcoming = append(listing.Upcoming, item)
		} else {
			listing.Past = append(listing.Past, item)
		}
	}
	return result.Ok(listing)
}

// Find returns one of the user's bookings by id.
func (s *bookingService) Find(ctx context.Context, p identity.Principal, bookingID string) (*model.Booking, error) {
	bookings, err := s.bookings(ctx, p)
	if err != nil && !result.IsNotFound(err) {
		return nil, result.ToAppError(err, "Failed to load bookings")
	}
	for i := range bookings {
		if bookings[i].ID == bookingID {
			return &bookings[i], nil
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "Booking not found", http.StatusNotFound)
}

func (s *bookingService) bookings(ctx context.Context, p identity.Principal) ([]model.Booking, error) {
	tag := querycache.BookingsTag(p.Scope())
	q := querycache.Query{Family: querycache.TagBookings, Key: tag, Tags: []string{querycache.TagBookings, tag}}
	return querycache.Fetch(ctx, s.cache, q, func(ctx context.Context) ([]model.Booking, error) {
		return s.backend.ListForUser(client.WithBearerToken(ctx, p.Token))
	})
}

func (s *bookingService) dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return timeutil.DateOnly(t, s.loc)
}
