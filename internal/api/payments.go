package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	httputil "staybook/pkg/http"
)

type sessionRequest struct {
	BookingID string `json:"bookingId"`
}

func (h *Handler) OpenPaymentSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req sessionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "OpenPaymentSession", err)
		return
	}

	session, err := h.checkout.OpenSession(r.Context(), principal(r), req.BookingID)
	if err != nil {
		h.writeError(w, "OpenPaymentSession", err)
		return
	}
	if err := httputil.WriteCreated(w, session); err != nil {
		h.log.Error("failed to write created response", "handler", "OpenPaymentSession", "operation", "WriteCreated", "error", err)
	}
}

// PaymentConfirmation always answers 200; the state tells the caller where
// to go next.
func (h *Handler) PaymentConfirmation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	confirmation := h.checkout.Confirmation(r.Context(), principal(r), r.URL.Query().Get("session_id"))
	h.writeSuccess(w, "PaymentConfirmation", confirmation)
}
