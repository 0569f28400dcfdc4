package model

import "time"

const (
	AttemptOutcomeCreated = "created"
	AttemptOutcomeFailed  = "failed"
)

// BookingAttempt is one journaled submission of a booking draft.
type BookingAttempt struct {
	ID             string          `json:"id" bson:"_id"`
	DraftID        string          `json:"draftId" bson:"draft_id"`
	Scope          string          `json:"scope" bson:"scope"`
	HotelID        string          `json:"hotelId" bson:"hotel_id"`
	CheckIn        time.Time       `json:"checkIn" bson:"check_in"`
	CheckOut       time.Time       `json:"checkOut" bson:"check_out"`
	RoomSelections []RoomSelection `json:"roomSelections" bson:"room_selections"`
	QuotedTotal    float64         `json:"quotedTotal" bson:"quoted_total"`
	Outcome        string          `json:"outcome" bson:"outcome"`
	BookingID      string          `json:"bookingId,omitempty" bson:"booking_id,omitempty"`
	Error          string          `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" bson:"created_at"`
}
