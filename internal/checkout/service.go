// Package checkout opens hosted payment sessions and turns a returned
// session into the confirmation the user sees.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"staybook/internal/events"
	"staybook/internal/identity"
	"staybook/internal/querycache"
	"staybook/internal/result"
	"staybook/pkg/client"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/timeutil"
)

const (
	MsgNoClientSecret = "Client secret not returned from server"
	MsgStatusUnknown  = "We couldn't determine the status of your payment. If you completed a booking, please check your email for confirmation."
	MsgPaymentFailed  = "We couldn't process your payment information. Please try again or contact support."

	CheckInTime  = "2:00 PM"
	CheckOutTime = "12:00 PM"

	paymentPath = "/booking/payment?bookingId="
	dateLayout  = "Jan 02, 2006"
)

var ErrNoClientSecret = errors.New(MsgNoClientSecret)

type State string

const (
	StateMissingSession State = "missing_session"
	StateOpen           State = "open"
	StateComplete       State = "complete"
	StateUnknown        State = "unknown"
	StateFailed         State = "failed"
)

// Backend session statuses.
const (
	sessionOpen     = "open"
	sessionComplete = "complete"
)

type Backend interface {
	CreateCheckoutSession(ctx context.Context, bookingID string) (*model.CheckoutSessionResponse, error)
	SessionStatus(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
}

type Session struct {
	BookingID    string `json:"bookingId"`
	ClientSecret string `json:"clientSecret"`
}

type Summary struct {
	BookingID       string              `json:"bookingId"`
	Hotel           model.HotelSnapshot `json:"hotel"`
	Rating          float64             `json:"rating,omitempty"`
	Reviews         int                 `json:"reviews,omitempty"`
	Amenities       []string            `json:"amenities,omitempty"`
	Rooms           string              `json:"rooms"`
	CheckIn         string              `json:"checkIn"`
	CheckOut        string              `json:"checkOut"`
	CheckInTime     string              `json:"checkInTime"`
	CheckOutTime    string              `json:"checkOutTime"`
	Nights          int                 `json:"nights"`
	Duration        string              `json:"duration"`
	PaymentStatus   string              `json:"paymentStatus"`
	PaymentMethod   string              `json:"paymentMethod,omitempty"`
	SpecialRequests string              `json:"specialRequests,omitempty"`
}

type Confirmation struct {
	State    State    `json:"state"`
	Redirect string   `json:"redirect,omitempty"`
	Message  string   `json:"message,omitempty"`
	Summary  *Summary `json:"summary,omitempty"`
}

type Service struct {
	backend   Backend
	cache     *querycache.Cache
	publisher events.Publisher
	log       *logger.Logger
	loc       *time.Location
}

func NewService(backend Backend, cache *querycache.Cache, publisher events.Publisher, loc *time.Location, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{backend: backend, cache: cache, publisher: publisher, loc: loc, log: log.Component("checkout")}
}

// OpenSession starts a hosted checkout for bookingID.
func (s *Service) OpenSession(ctx context.Context, p identity.Principal, bookingID string) (Session, error) {
	if !p.SignedIn() {
		return Session{}, apperrors.Unauthorized(identity.MsgNoToken)
	}
	if bookingID == "" {
		return Session{}, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	resp, err := s.backend.CreateCheckoutSession(client.WithBearerToken(ctx, p.Token), bookingID)
	if err != nil {
		s.log.Error("Failed to create checkout session", "booking_id", bookingID, "error", err)
		return Session{}, result.ToAppError(err, "Failed to create checkout session")
	}
	if resp == nil || resp.ClientSecret == "" {
		return Session{}, apperrors.Internal(MsgNoClientSecret, ErrNoClientSecret)
	}
	return Session{BookingID: bookingID, ClientSecret: resp.ClientSecret}, nil
}

// Confirmation maps a returned checkout session onto what the user should
// see next. It never fails; lookup errors become StateFailed.
func (s *Service) Confirmation(ctx context.Context, p identity.Principal, sessionID string) Confirmation {
	if sessionID == "" {
		return Confirmation{State: StateMissingSession, Redirect: "/"}
	}

	sess, err := s.backend.SessionStatus(client.WithBearerToken(ctx, p.Token), sessionID)
	if err != nil || sess == nil {
		s.log.Warn("Checkout session lookup failed", "session_id", sessionID, "error", err)
		c := Confirmation{State: StateFailed, Message: MsgPaymentFailed, Redirect: paymentPath}
		if sess != nil {
			c.Redirect += sess.BookingID
		}
		return c
	}

	switch sess.Status {
	case sessionOpen:
		return Confirmation{State: StateOpen, Redirect: paymentPath + sess.BookingID}
	case sessionComplete:
		if sess.Booking == nil {
			break
		}
		s.confirmed(ctx, p, sess)
		return Confirmation{State: StateComplete, Summary: s.summarize(sess)}
	}
	return Confirmation{State: StateUnknown, Redirect: "/", Message: MsgStatusUnknown}
}

// confirmed makes the paid booking visible in the user's listing.
func (s *Service) confirmed(ctx context.Context, p identity.Principal, sess *model.CheckoutSession) {
	s.cache.Invalidate(ctx, querycache.BookingsTag(p.Scope()))
	if err := s.publisher.Publish(ctx, events.Event{
		Type:      events.TypePaymentConfirmed,
		BookingID: bookingID(sess),
		HotelID:   sess.Booking.Hotel.ID,
		Scope:     p.Scope(),
	}); err != nil {
		s.log.Warn("Failed to publish payment event", "booking_id", bookingID(sess), "error", err)
	}
}

func (s *Service) summarize(sess *model.CheckoutSession) *Summary {
	b := sess.Booking
	sum := &Summary{
		BookingID:       bookingID(sess),
		Hotel:           b.Hotel,
		Rooms:           RoomLines(b.RoomAssignments),
		CheckIn:         b.CheckIn.In(s.loc).Format(dateLayout),
		CheckOut:        b.CheckOut.In(s.loc).Format(dateLayout),
		CheckInTime:     CheckInTime,
		CheckOutTime:    CheckOutTime,
		Nights:          timeutil.Nights(b.CheckIn, b.CheckOut),
		PaymentStatus:   b.PaymentStatus,
		PaymentMethod:   b.PaymentMethod,
		SpecialRequests: b.SpecialRequests,
	}
	sum.Duration = duration(sum.Nights)

	if h := sess.Hotel; h != nil {
		sum.Hotel = model.HotelSnapshot{ID: h.ID, Name: h.Name, Location: h.Location, Image: h.Image}
		sum.Rating = h.Rating
		sum.Reviews = h.Reviews
		sum.Amenities = h.Amenities
	}
	return sum
}

func bookingID(sess *model.CheckoutSession) string {
	if sess.Booking != nil && sess.Booking.ID != "" {
		return sess.Booking.ID
	}
	return sess.BookingID
}

func duration(nights int) string {
	if nights == 1 {
		return "1 night"
	}
	return fmt.Sprintf("%d nights", nights)
}

// RoomLines renders assignments as "Deluxe (101, 102), Suite (401)".
func RoomLines(assignments []model.RoomAssignment) string {
	if len(assignments) == 0 {
		return "N/A"
	}
	lines := make([]string, 0, len(assignments))
	for _, ra := range assignments {
		numbers := make([]string, len(ra.RoomNumbers))
		for i, n := range ra.RoomNumbers {
			numbers[i] = strconv.Itoa(n)
		}
		lines = append(lines, ra.RoomType+" ("+strings.Join(numbers, ", ")+")")
	}
	return strings.Join(lines, ", ")
}
