package client

import (
	"context"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client aggregates every backend resource client plus the optional MongoDB
// connection used by the booking journal.
type Client struct {
	HTTP      *HttpClient
	Hotels    *HotelClient
	Bookings  *BookingClient
	Favorites *FavoriteClient
	Payments  *PaymentClient
	Mongo     *mongo.Client
}

func NewClient(cfg Config, log *logger.Logger, m *metrics.Metrics) *Client {
	httpClient := NewHttpClient(cfg, log, m)
	return &Client{
		HTTP:      httpClient,
		Hotels:    NewHotelClient(httpClient),
		Bookings:  NewBookingClient(httpClient),
		Favorites: NewFavoriteClient(httpClient),
		Payments:  NewPaymentClient(httpClient),
	}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) GracefulShutdown(ctx context.Context, log *logger.Logger) {
	if c.Mongo == nil {
		return
	}
	if err := c.Mongo.Disconnect(ctx); err != nil {
		log.Error("Failed to disconnect from MongoDB", "error", err)
		return
	}
	log.Info("Disconnected from MongoDB")
}
