package client

import (
	"context"
	"net/url"
	"staybook/pkg/model"
)

type PaymentClient struct {
	httpClient *HttpClient
}

func NewPaymentClient(httpClient *HttpClient) *PaymentClient {
	return &PaymentClient{httpClient: httpClient}
}

func (c *PaymentClient) CreateCheckoutSession(ctx context.Context, bookingID string) (*model.CheckoutSessionResponse, error) {
	resp, err := c.httpClient.POST(ctx, "/payments/create-checkout-session", model.CheckoutSessionRequest{BookingID: bookingID})
	if err != nil {
		return nil, err
	}
	return decode[*model.CheckoutSessionResponse](resp, "checkout session")
}

func (c *PaymentClient) SessionStatus(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	q := url.Values{}
	q.Set("session_id", sessionID)
	resp, err := c.httpClient.GET(ctx, "/payments/session-status?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return decode[*model.CheckoutSession](resp, "checkout session status")
}
