// Package catalog serves the hotel list, detail, locations, search and
// trending queries, and the admin create-hotel command.
package catalog

import (
	"context"
	"sort"
	"strings"

	"staybook/internal/events"
	"staybook/internal/identity"
	"staybook/internal/querycache"
	"staybook/internal/result"
	"staybook/pkg/client"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

const MsgCreateFailed = "Failed to create hotel"

type Backend interface {
	List(ctx context.Context) ([]model.Hotel, error)
	GetByID(ctx context.Context, id string) (*model.Hotel, error)
	Locations(ctx context.Context) ([]string, error)
	Create(ctx context.Context, req *model.CreateHotelRequest) (*model.Hotel, error)
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
	Trending(ctx context.Context) ([]model.Hotel, error)
}

type Service struct {
	backend   Backend
	cache     *querycache.Cache
	validator *HotelValidator
	publisher events.Publisher
	log       *logger.Logger
}

func NewService(backend Backend, cache *querycache.Cache, validator *HotelValidator, publisher events.Publisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{backend: backend, cache: cache, validator: validator, publisher: publisher, log: log.Component("catalog")}
}

// List returns the catalog narrowed and ordered by filter.
func (s *Service) List(ctx context.Context, filter model.HotelFilter) result.Result[[]model.Hotel] {
	hotels, err := s.hotels(ctx)
	if err != nil {
		return result.FromError[[]model.Hotel](err)
	}
	return result.Of(Apply(hotels, filter), nil)
}

// Apply filters by case-insensitive location substring and sorts by price.
// "All" or an empty location keeps every hotel. Ties keep backend order.
func Apply(hotels []model.Hotel, filter model.HotelFilter) []model.Hotel {
	out := make([]model.Hotel, 0, len(hotels))
	loc := strings.ToLower(strings.TrimSpace(filter.Location))
	for _, h := range hotels {
		if loc == "" || loc == strings.ToLower(model.LocationAll) || strings.Contains(strings.ToLower(h.Location), loc) {
			out = append(out, h)
		}
	}

	switch filter.SortByPrice {
	case model.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case model.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

func (s *Service) hotels(ctx context.Context) ([]model.Hotel, error) {
	q := querycache.Query{Family: querycache.TagHotels, Key: querycache.TagHotels, Tags: []string{querycache.TagHotels}}
	return querycache.Fetch(ctx, s.cache, q, s.backend.List)
}

// Hotel loads one hotel through the cache.
func (s *Service) Hotel(ctx context.Context, id string) (*model.Hotel, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Hotel ID cannot be empty")
	}
	tag := querycache.HotelTag(id)
	q := querycache.Query{Family: "hotel", Key: tag, Tags: []string{querycache.TagHotels, tag}}
	return querycache.Fetch(ctx, s.cache, q, func(ctx context.Context) (*model.Hotel, error) {
		return s.backend.GetByID(ctx, id)
	})
}

func (s *Service) ByID(ctx context.Context, id string) result.Result[*model.Hotel] {
	hotel, err := s.Hotel(ctx, id)
	return result.Of(hotel, err)
}

func (s *Service) Locations(ctx context.Context) result.Result[[]string] {
	key := querycache.Key(querycache.TagHotels, "locations")
	q := querycache.Query{Family: "locations", Key: key, Tags: []string{querycache.TagHotels}}
	locations, err := querycache.Fetch(ctx, s.cache, q, s.backend.Locations)
	return result.Of(locations, err)
}

// Search runs the backend's semantic search. A blank query returns nothing
// without a request.
func (s *Service) Search(ctx context.Context, query string) result.Result[[]model.SearchResult] {
	query = strings.TrimSpace(query)
	if query == "" {
		return result.Empty[[]model.SearchResult]()
	}
	key := querycache.Key("search", strings.ToLower(query))
	q := querycache.Query{Family: "search", Key: key, Tags: []string{querycache.TagHotels}}
	hits, err := querycache.Fetch(ctx, s.cache, q, func(ctx context.Context) ([]model.SearchResult, error) {
		return s.backend.Search(ctx, query)
	})
	return result.Of(hits, err)
}

func (s *Service) Trending(ctx context.Context) result.Result[[]model.Hotel] {
	q := querycache.Query{Family: querycache.TagTrending, Key: querycache.TagTrending, Tags: []string{querycache.TagHotels, querycache.TagTrending}}
	hotels, err := querycache.Fetch(ctx, s.cache, q, s.backend.Trending)
	return result.Of(hotels, err)
}

// Create normalizes, validates and creates a hotel, then drops every cached hotel list.
func (s *Service) Create(ctx context.Context, p identity.Principal, req *model.CreateHotelRequest) (*model.Hotel, error) {
	if !p.SignedIn() {
		return nil, apperrors.Unauthorized(identity.MsgNoToken)
	}
	sanitizer.HotelRequest(req)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hotel, err := s.backend.Create(client.WithBearerToken(ctx, p.Token), req)
	if err != nil {
		s.log.Error(MsgCreateFailed, "name", req.Name, "error", err)
		return nil, result.ToAppError(err, MsgCreateFailed)
	}
	if hotel == nil {
		return nil, apperrors.Internal(MsgCreateFailed, nil)
	}

	s.cache.Invalidate(ctx, querycache.TagHotels)
	if err := s.publisher.Publish(ctx, events.Event{Type: events.TypeHotelCreated, HotelID: hotel.ID, Scope: p.Scope()}); err != nil {
		s.log.Warn("Failed to publish hotel event", "hotel_id", hotel.ID, "error", err)
	}

	s.log.Info("Hotel created successfully", "hotel_id", hotel.ID, "name", hotel.Name, "location", hotel.Location)
	return hotel, nil
}
