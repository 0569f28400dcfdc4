// Package availability turns a hotel catalog and a stay window into the room
// types that can still be booked, and reconciles a draft's selections with it.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staybook/internal/identity"
	"staybook/internal/querycache"
	"staybook/pkg/client"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

const (
	MsgChecking      = "Checking availability..."
	MsgCheckFailed   = "Failed to check room availability. Please try again."
	MsgNoneAvailable = "No rooms are available for the selected dates. Please choose different dates."
)

var ErrCheckFailed = errors.New("availability check failed")

// Source is the backend query the resolver depends on.
type Source interface {
	Availability(ctx context.Context, hotelID string, checkIn, checkOut time.Time) ([]model.AvailabilityRecord, error)
}

type Resolution struct {
	Key       string           `json:"key"`
	Available []model.RoomType `json:"availableRooms"`
	Skipped   bool             `json:"skipped"`
}

type Resolver struct {
	source Source
	cache  *querycache.Cache
	log    *logger.Logger
}

func NewResolver(source Source, cache *querycache.Cache, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{source: source, cache: cache, log: log.Component("availability")}
}

// Key identifies one (hotel, check-in, check-out) lookup.
func Key(hotelID string, checkIn, checkOut time.Time) string {
	return querycache.Key(querycache.TagAvailability, hotelID, stamp(checkIn), stamp(checkOut))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// Resolve returns the catalog room types with at least one free room for the
// window. Missing dates skip the lookup and return the whole catalog.
func (r *Resolver) Resolve(ctx context.Context, p identity.Principal, hotel *model.Hotel, checkIn, checkOut time.Time) (Resolution, error) {
	key := Key(hotel.ID, checkIn, checkOut)
	if checkIn.IsZero() || checkOut.IsZero() {
		return Resolution{Key: key, Available: append([]model.RoomType(nil), hotel.Rooms...), Skipped: true}, nil
	}

	if p.SignedIn() {
		ctx = client.WithBearerToken(ctx, p.Token)
	}

	q := querycache.Query{
		Family: querycache.TagAvailability,
		Key:    key,
		Tags:   []string{querycache.TagAvailability, querycache.AvailabilityTag(hotel.ID)},
	}
	records, err := querycache.Fetch(ctx, r.cache, q, func(ctx context.Context) ([]model.AvailabilityRecord, error) {
		return r.source.Availability(ctx, hotel.ID, checkIn, checkOut)
	})
	if err != nil {
		r.log.Warn("Availability lookup failed", "hotel_id", hotel.ID, "error", err)
		return Resolution{Key: key}, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}

	return Resolution{Key: key, Available: Filter(hotel.Rooms, records)}, nil
}

// Filter keeps the catalog types whose record reports a positive count, in
// catalog order.
func Filter(catalog []model.RoomType, records []model.AvailabilityRecord) []model.RoomType {
	counts := make(map[string]int, len(records))
	for _, rec := range records {
		counts[rec.Type] = rec.AvailableCount
	}

	out := make([]model.RoomType, 0, len(catalog))
	for _, room := range catalog {
		if counts[room.Type] > 0 {
			out = append(out, room)
		}
	}
	return out
}
