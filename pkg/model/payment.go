package model

const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
)

type CheckoutSessionRequest struct {
	BookingID string `json:"bookingId"`
}

type CheckoutSessionResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CheckoutSession is the backend's view of a hosted payment session.
type CheckoutSession struct {
	Status        string   `json:"status"`
	BookingID     string   `json:"bookingId"`
	CustomerEmail string   `json:"customer_email,omitempty"`
	PaymentStatus string   `json:"payment_status,omitempty"`
	Booking       *Booking `json:"booking,omitempty"`
	Hotel         *Hotel   `json:"hotel,omitempty"`
}
