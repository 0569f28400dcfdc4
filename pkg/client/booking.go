package client

import (
	"context"
	"net/url"
	"staybook/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{httpClient: httpClient}
}

func (c *BookingClient) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, "/bookings", req)
	if err != nil {
		return nil, err
	}
	return decode[*model.Booking](resp, "created booking")
}

func (c *BookingClient) ListForUser(ctx context.Context) ([]model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/bookings/user")
	if err != nil {
		return nil, err
	}
	return decode[[]model.Booking](resp, "user bookings")
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.PATCH(ctx, "/bookings/"+url.PathEscape(id)+"/cancel", nil)
	if err != nil {
		return nil, err
	}
	return decode[*model.Booking](resp, "cancelled booking")
}
