package client

import (
	"context"
	"net/url"
	"staybook/pkg/model"
	"time"
)

type HotelClient struct {
	httpClient *HttpClient
}

func NewHotelClient(httpClient *HttpClient) *HotelClient {
	return &HotelClient{httpClient: httpClient}
}

func (c *HotelClient) List(ctx context.Context) ([]model.Hotel, error) {
	resp, err := c.httpClient.GET(ctx, "/hotels")
	if err != nil {
		return nil, err
	}
	return decode[[]model.Hotel](resp, "hotel list")
}

func (c *HotelClient) GetByID(ctx context.Context, id string) (*model.Hotel, error) {
	resp, err := c.httpClient.GET(ctx, "/hotels/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return decode[*model.Hotel](resp, "hotel")
}

func (c *HotelClient) Locations(ctx context.Context) ([]string, error) {
	resp, err := c.httpClient.GET(ctx, "/hotels/locations")
	if err != nil {
		return nil, err
	}
	return decode[[]string](resp, "hotel locations")
}

func (c *HotelClient) Create(ctx context.Context, req *model.CreateHotelRequest) (*model.Hotel, error) {
	resp, err := c.httpClient.POST(ctx, "/hotels", req)
	if err != nil {
		return nil, err
	}
	return decode[*model.Hotel](resp, "created hotel")
}

func (c *HotelClient) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	resp, err := c.httpClient.GET(ctx, "/hotels/search/retrieve?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return decode[[]model.SearchResult](resp, "search results")
}

func (c *HotelClient) Trending(ctx context.Context) ([]model.Hotel, error) {
	resp, err := c.httpClient.GET(ctx, "/hotels/trending")
	if err != nil {
		return nil, err
	}
	return decode[[]model.Hotel](resp, "trending hotels")
}

// Availability reports per room type capacity for [checkIn, checkOut).
func (c *HotelClient) Availability(ctx context.Context, hotelID string, checkIn, checkOut time.Time) ([]model.AvailabilityRecord, error) {
	q := url.Values{}
	q.Set("checkIn", checkIn.UTC().Format(time.RFC3339))
	q.Set("checkOut", checkOut.UTC().Format(time.RFC3339))

	path := "/hotels/" + url.PathEscape(hotelID) + "/availability?" + q.Encode()
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	return decode[[]model.AvailabilityRecord](resp, "room availability")
}
