// Package favorites lists and toggles the signed-in user's favorite hotels.
package favorites

import (
	"context"
	"errors"
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

const (
	MsgAdded        = "Hotel added to favorites!"
	MsgRemoved      = "Hotel removed from favorites!"
	MsgAddFailed    = "Failed to add hotel to favorites"
	MsgRemoveFailed = "Failed to remove hotel from favorites"
)

var ErrToggleInFlight = errors.New("favorite update already in progress")

type Backend interface {
	List(ctx context.Context) ([]model.Favorite, error)
	Add(ctx context.Context, hotelID string) error
	Remove(ctx context.Context, hotelID string) error
}

type Toggle struct {
	HotelID  string `json:"hotelId"`
	Favorite bool   `json:"favorite"`
	Message  string `json:"message"`
}

type Service struct {
	backend   Backend
	cache     *querycache.Cache
	guards    *action.Registry
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewService(backend Backend, cache *querycache.Cache, publisher events.Publisher, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		backend:   backend,
		cache:     cache,
		guards:    action.NewRegistry(),
		publisher: publisher,
		metrics:   m,
		log:       log.Component("favorites"),
	}
}

func (s *Service) List(ctx context.Context, p identity.Principal) result.Result[[]model.Favorite] {
	if !p.SignedIn() {
		return result.Fail[[]model.Favorite](result.ErrUnauthorized, identity.ErrNoToken)
	}
	favs, err := s.favorites(ctx, p)
	return result.Of(favs, err)
}

// IsFavorite reports whether hotelID is among the user's favorites. Any
// failure reads as false.
func (s *Service) IsFavorite(ctx context.Context, p identity.Principal, hotelID string) bool {
	if !p.SignedIn() {
		return false
	}
	favs, err := s.favorites(ctx, p)
	if err != nil {
		return false
	}
	return contains(favs, hotelID)
}

// Toggle adds or removes hotelID. One toggle per user and hotel runs at a
// time; a second one fails with ErrToggleInFlight.
func (s *Service) Toggle(ctx context.Context, p identity.Principal, hotelID string) (Toggle, error) {
	if !p.SignedIn() {
		return Toggle{}, apperrors.Unauthorized(identity.MsgNoToken)
	}
	if hotelID == "" {
		return Toggle{}, apperrors.InvalidInput("Hotel ID cannot be empty")
	}

	guard := s.guards.Get(p.Scope() + ":" + hotelID)
	if err := guard.Begin(); err != nil {
		return Toggle{}, ErrToggleInFlight
	}

	favs, err := s.favorites(ctx, p)
	if err != nil && !result.IsNotFound(err) {
		guard.Fail(err)
		return Toggle{}, result.ToAppError(err, "Failed to load favorites")
	}
	remove := contains(favs, hotelID)

	authed := client.WithBearerToken(ctx, p.Token)
	if remove {
		err = s.backend.Remove(authed, hotelID)
	} else {
		err = s.backend.Add(authed, hotelID)
	}
	if err != nil {
		guard.Fail(err)
		s.metrics.ObserveAction("toggle_favorite", "failure")
		fallback := MsgAddFailed
		if remove {
			fallback = MsgRemoveFailed
		}
		s.log.Error(fallback, "hotel_id", hotelID, "error", err)
		return Toggle{}, result.ToAppError(err, fallback)
	}

	guard.Succeed()
	s.metrics.ObserveAction("toggle_favorite", "success")
	s.cache.Invalidate(ctx, querycache.FavoritesTag(p.Scope()))

	out := Toggle{HotelID: hotelID, Favorite: !remove, Message: MsgAdded}
	evType := events.TypeFavoriteAdded
	if remove {
		out.Message = MsgRemoved
		evType = events.TypeFavoriteRemoved
	}
	if err := s.publisher.Publish(ctx, events.Event{Type: evType, HotelID: hotelID, Scope: p.Scope()}); err != nil {
		s.log.Warn("Failed to publish favorite event", "hotel_id", hotelID, "error", err)
	}
	return out, nil
}

// Sweep drops settled toggle guards older than ttl.
func (s *Service) Sweep(ttl time.Duration) int {
	return s.guards.Sweep(ttl)
}

func (s *Service) favorites(ctx context.Context, p identity.Principal) ([]model.Favorite, error) {
	tag := querycache.FavoritesTag(p.Scope())
	q := querycache.Query{Family: querycache.TagFavorites, Key: tag, Tags: []string{querycache.TagFavorites, tag}}
	return querycache.Fetch(ctx, s.cache, q, func(ctx context.Context) ([]model.Favorite, error) {
		return s.backend.List(client.WithBearerToken(ctx, p.Token))
	})
}

func contains(favs []model.Favorite, hotelID string) bool {
	for _, f := range favs {
		if f.ID == hotelID {
			return true
		}
	}
	return false
}
