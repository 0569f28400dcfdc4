package service

import (
	"time"

	"staybook/pkg/model"
	"staybook/pkg/timeutil"
)

type QuoteLine struct {
	RoomType      string  `json:"roomType"`
	NumRooms      int     `json:"numRooms"`
	PricePerNight float64 `json:"pricePerNight"`
	Subtotal      float64 `json:"subtotal"`
}

// Quote is advisory. The backend prices the booking it creates.
type Quote struct {
	Nights int         `json:"nights"`
	Lines  []QuoteLine `json:"lines"`
	Total  float64     `json:"total"`
}

func Nights(checkIn, checkOut time.Time) int {
	return timeutil.Nights(checkIn, checkOut)
}

// NewQuote prices selections against the hotel catalog. Unknown room types
// price at zero.
func NewQuote(hotel *model.Hotel, selections []model.RoomSelection, checkIn, checkOut time.Time) Quote {
	q := Quote{Nights: Nights(checkIn, checkOut), Lines: make([]QuoteLine, 0, len(selections))}
	for _, sel := range selections {
		var price float64
		if hotel != nil {
			if room, ok := hotel.RoomType(sel.RoomType); ok {
				price = room.Price
			}
		}
		line := QuoteLine{
			RoomType:      sel.RoomType,
			NumRooms:      sel.NumRooms,
			PricePerNight: price,
			Subtotal:      price * float64(sel.NumRooms) * float64(q.Nights),
		}
		q.Lines = append(q.Lines, line)
		q.Total += line.Subtotal
	}
	return q
}

// BookingTotal prices a stored booking from its assigned room numbers.
func BookingTotal(b *model.Booking) float64 {
	nights := Nights(b.CheckIn, b.CheckOut)
	var total float64
	for _, ra := range b.RoomAssignments {
		total += ra.PricePerNight * float64(len(ra.RoomNumbers)) * float64(nights)
	}
	return total
}
