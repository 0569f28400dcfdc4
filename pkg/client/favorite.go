package client

import (
	"context"
	"net/url"
	"staybook/pkg/model"
)

type FavoriteClient struct {
	httpClient *HttpClient
}

func NewFavoriteClient(httpClient *HttpClient) *FavoriteClient {
	return &FavoriteClient{httpClient: httpClient}
}

func (c *FavoriteClient) List(ctx context.Context) ([]model.Favorite, error) {
	resp, err := c.httpClient.GET(ctx, "/favorites")
	if err != nil {
		return nil, err
	}
	return decode[[]model.Favorite](resp, "favorites")
}

func (c *FavoriteClient) Add(ctx context.Context, hotelID string) error {
	resp, err := c.httpClient.POST(ctx, "/favorites/"+url.PathEscape(hotelID), nil)
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

func (c *FavoriteClient) Remove(ctx context.Context, hotelID string) error {
	resp, err := c.httpClient.DELETE(ctx, "/favorites/"+url.PathEscape(hotelID))
	if err != nil {
		return err
	}
	return checkResponse(resp)
}
