package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
)

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeResult(h, w, "ListBookings", h.bookings.List(r.Context(), principal(r), h.now()))
}

func (h *Handler) OpenCancellation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dialog, err := h.cancellation.Open(r.Context(), principal(r), ps.ByName("id"), h.now())
	if err != nil {
		h.writeError(w, "OpenCancellation", err)
		return
	}
	h.writeSuccess(w, "OpenCancellation", dialog)
}

// ConfirmCancellation returns the dialog alongside any failure so the caller
// can keep showing it with the error text.
func (h *Handler) ConfirmCancellation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dialog, err := h.cancellation.Confirm(r.Context(), principal(r), ps.ByName("id"))
	if err != nil {
		appErr := apperrors.AsAppError(toAppError(err))
		if !dialog.Open {
			h.writeError(w, "ConfirmCancellation", appErr)
			return
		}
		if writeErr := httputil.WriteJSON(w, appErr.StatusCode(), dialogError{
			ErrorResponse: apperrors.ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details},
			Dialog:        dialog,
		}); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ConfirmCancellation", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	h.writeSuccess(w, "ConfirmCancellation", dialog)
}

func (h *Handler) CloseCancellation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.cancellation.Close(principal(r), ps.ByName("id")) {
		h.writeError(w, "CloseCancellation", apperrors.Conflict("Cancellation in progress"))
		return
	}
	httputil.WriteNoContent(w)
}

type dialogError struct {
	apperrors.ErrorResponse
	Dialog any `json:"dialog"`
}
