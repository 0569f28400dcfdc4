package events

import (
	"context"

	"staybook/internal/querycache"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
)

// Backend change notifications consumed from BACKEND_UPDATES_TOPIC.
const (
	UpdateAvailabilityChanged = "availability.changed"
	UpdateHotelChanged        = "hotel.changed"
	UpdateBookingChanged      = "booking.changed"
	UpdateFavoritesChanged    = "favorites.changed"
)

type Update struct {
	Type    string `json:"type"`
	HotelID string `json:"hotelId,omitempty"`
	Scope   string `json:"scope,omitempty"`
}

// Invalidator is satisfied by *querycache.Cache.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string)
}

// Tags maps an update to the cache tags it makes stale.
func (u Update) Tags() []string {
	switch u.Type {
	case UpdateAvailabilityChanged:
		if u.HotelID == "" {
			return []string{querycache.TagAvailability}
		}
		return []string{querycache.AvailabilityTag(u.HotelID)}
	case UpdateHotelChanged:
		tags := []string{querycache.TagHotels, querycache.TagTrending}
		if u.HotelID != "" {
			tags = append(tags, querycache.HotelTag(u.HotelID), querycache.AvailabilityTag(u.HotelID))
		}
		return tags
	case UpdateBookingChanged:
		tags := []string{}
		if u.Scope != "" {
			tags = append(tags, querycache.BookingsTag(u.Scope))
		}
		if u.HotelID != "" {
			tags = append(tags, querycache.AvailabilityTag(u.HotelID))
		}
		return tags
	case UpdateFavoritesChanged:
		if u.Scope != "" {
			return []string{querycache.FavoritesTag(u.Scope)}
		}
	}
	return nil
}

// UpdateHandler returns the consumer handler that turns backend updates into
// cache invalidations. Undecodable messages fail permanently.
func UpdateHandler(cache Invalidator, log *logger.Logger) kafka.MessageHandler {
	if log == nil {
		log = logger.Discard()
	}
	log = log.Component("backend-updates")

	return func(ctx context.Context, msg kafka.Message) error {
		var u Update
		if err := msg.DecodeValue(&u); err != nil {
			return err
		}
		if u.Type == "" {
			u.Type = msg.GetEventType()
		}
		if u.Scope == "" {
			u.Scope, _ = msg.GetHeader(HeaderScope)
		}

		tags := u.Tags()
		if len(tags) == 0 {
			log.Debug("Ignoring backend update", "type", u.Type, "key", msg.Key)
			return nil
		}
		cache.Invalidate(ctx, tags...)
		log.Info("Backend update applied", "type", u.Type, "tags", tags)
		return nil
	}
}
