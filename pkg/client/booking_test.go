package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"staybook/pkg/model"
)

const bookingPayload = `{
	"_id": "b1",
	"hotelId": "h1",
	"hotelName": "Harbor View",
	"location": "Galle, Sri Lanka",
	"image": "https://img/h1.jpg",
	"checkIn": "2024-01-01T00:00:00.000Z",
	"checkOut": "2024-01-04T00:00:00.000Z",
	"roomAssignments": [{"roomType": "Deluxe", "roomNumbers": [101, 102], "price": 100}],
	"status": "ongoing",
	"paymentStatus": "pending",
	"createdAt": "2023-12-30T10:00:00.000Z"
}`

func wireServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func assertWireBooking(t *testing.T, b *model.Booking) {
	t.Helper()
	if b == nil {
		t.Fatal("expected booking")
	}
	want := model.HotelSnapshot{ID: "h1", Name: "Harbor View", Location: "Galle, Sri Lanka", Image: "https://img/h1.jpg"}
	if b.Hotel != want {
		t.Errorf("hotel = %+v, want %+v", b.Hotel, want)
	}
	if len(b.RoomAssignments) != 1 || b.RoomAssignments[0].PricePerNight != 100 {
		t.Errorf("unexpected assignments %+v", b.RoomAssignments)
	}
}

func TestBookingClient_WireShapes(t *testing.T) {
	server := wireServer(t, map[string]string{
		"GET /bookings/user":        "[" + bookingPayload + "]",
		"POST /bookings":            bookingPayload,
		"PATCH /bookings/b1/cancel": bookingPayload,
	})
	c := testClient(t, server.URL, 0, 10)
	ctx := context.Background()

	list, err := c.Bookings.ListForUser(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one booking, got %d", len(list))
	}
	assertWireBooking(t, &list[0])

	created, err := c.Bookings.Create(ctx, &model.CreateBookingRequest{HotelID: "h1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	assertWireBooking(t, created)

	cancelled, err := c.Bookings.Cancel(ctx, "b1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	assertWireBooking(t, cancelled)
}

func TestPaymentClient_SessionStatusWireShape(t *testing.T) {
	server := wireServer(t, map[string]string{
		"GET /payments/session-status": `{
			"status": "complete",
			"bookingId": "b1",
			"booking": ` + bookingPayload + `,
			"hotel": {"_id": "h1", "name": "Harbor View", "location": "Galle, Sri Lanka", "rating": 4.5}
		}`,
	})
	c := testClient(t, server.URL, 0, 10)

	sess, err := c.Payments.SessionStatus(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	if sess.Status != model.SessionStatusComplete || sess.Hotel == nil || sess.Hotel.Rating != 4.5 {
		t.Errorf("unexpected session %+v", sess)
	}
	assertWireBooking(t, sess.Booking)
}
