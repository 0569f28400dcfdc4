package model

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	BookingStatusOngoing   = "ongoing"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"

	MinRoomsPerSelection = 1
	MaxRoomsPerSelection = 10
)

type RoomSelection struct {
	RoomType string `json:"roomType" validate:"required"`
	NumRooms int    `json:"numRooms" validate:"min=1,max=10"`
}

type AvailabilityRecord struct {
	Type           string `json:"type"`
	AvailableCount int    `json:"availableCount"`
}

type RoomAssignment struct {
	RoomType      string  `json:"roomType"`
	RoomNumbers   []int   `json:"roomNumbers"`
	PricePerNight float64 `json:"price"`
}

// HotelSnapshot is the denormalized hotel carried on a booking for display.
type HotelSnapshot struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Image    string `json:"image"`
}

type Booking struct {
	ID              string           `json:"_id"`
	Hotel           HotelSnapshot    `json:"hotel"`
	CheckIn         time.Time        `json:"checkIn"`
	CheckOut        time.Time        `json:"checkOut"`
	RoomAssignments []RoomAssignment `json:"roomAssignments"`
	SpecialRequests string           `json:"specialRequests,omitempty"`
	Status          string           `json:"status"`
	PaymentStatus   string           `json:"paymentStatus"`
	PaymentMethod   string           `json:"paymentMethod,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// UnmarshalJSON reads the backend booking shape: "hotelId" is either the id
// string or a populated hotel object, and the display fields may arrive flat
// as "hotelName", "location" and "image".
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var wire struct {
		plain
		HotelID   json.RawMessage `json:"hotelId"`
		HotelName string          `json:"hotelName"`
		Location  string          `json:"location"`
		Image     string          `json:"image"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*b = Booking(wire.plain)
	switch raw := bytes.TrimSpace(wire.HotelID); {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &b.Hotel.ID); err != nil {
			return err
		}
	default:
		if err := json.Unmarshal(raw, &b.Hotel); err != nil {
			return err
		}
	}

	if b.Hotel.Name == "" {
		b.Hotel.Name = wire.HotelName
	}
	if b.Hotel.Location == "" {
		b.Hotel.Location = wire.Location
	}
	if b.Hotel.Image == "" {
		b.Hotel.Image = wire.Image
	}
	return nil
}

// CreateBookingRequest is the wire payload for booking creation. Dates are
// serialized as RFC 3339 timestamps.
type CreateBookingRequest struct {
	HotelID         string          `json:"hotelId" validate:"required"`
	CheckIn         time.Time       `json:"checkIn"`
	CheckOut        time.Time       `json:"checkOut"`
	RoomSelections  []RoomSelection `json:"roomSelections" validate:"min=1,dive"`
	SpecialRequests string          `json:"specialRequests"`
}

type Favorite struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Image    string  `json:"image"`
	Price    float64 `json:"price,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}
