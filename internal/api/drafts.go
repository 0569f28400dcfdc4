package api

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"staybook/internal/bookings/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
)

type newDraftRequest struct {
	HotelID string `json:"hotelId"`
}

type datesRequest struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

type roomRequest struct {
	RoomType string `json:"roomType"`
	NumRooms int    `json:"numRooms"`
}

type specialRequestsRequest struct {
	SpecialRequests string `json:"specialRequests"`
}

func (h *Handler) NewDraft(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req newDraftRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "NewDraft", err)
		return
	}
	if req.HotelID == "" {
		h.writeError(w, "NewDraft", apperrors.InvalidInput("hotelId is required"))
		return
	}

	view, err := h.bookings.NewDraft(r.Context(), principal(r), req.HotelID)
	if err != nil {
		h.writeError(w, "NewDraft", err)
		return
	}
	if err := httputil.WriteCreated(w, view); err != nil {
		h.log.Error("failed to write created response", "handler", "NewDraft", "operation", "WriteCreated", "error", err)
	}
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.writeView(w, "GetDraft")(h.bookings.Draft(r.Context(), principal(r), ps.ByName("id")))
}

func (h *Handler) SetDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req datesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetDates", err)
		return
	}
	checkIn, err := httputil.ParseDate(req.CheckIn, h.loc)
	if err != nil {
		h.writeError(w, "SetDates", err)
		return
	}
	checkOut, err := httputil.ParseDate(req.CheckOut, h.loc)
	if err != nil {
		h.writeError(w, "SetDates", err)
		return
	}

	h.writeView(w, "SetDates")(h.bookings.SetDates(r.Context(), principal(r), ps.ByName("id"), checkIn, checkOut))
}

func (h *Handler) AddRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.writeView(w, "AddRoom")(h.bookings.AddRoomSelection(r.Context(), principal(r), ps.ByName("id")))
}

func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	index, err := roomIndex(ps)
	if err != nil {
		h.writeError(w, "UpdateRoom", err)
		return
	}
	var req roomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "UpdateRoom", err)
		return
	}

	h.writeView(w, "UpdateRoom")(h.bookings.UpdateRoomSelection(r.Context(), principal(r), ps.ByName("id"), index, req.RoomType, req.NumRooms))
}

func (h *Handler) RemoveRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	index, err := roomIndex(ps)
	if err != nil {
		h.writeError(w, "RemoveRoom", err)
		return
	}

	h.writeView(w, "RemoveRoom")(h.bookings.RemoveRoomSelection(r.Context(), principal(r), ps.ByName("id"), index))
}

func (h *Handler) SetSpecialRequests(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req specialRequestsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetSpecialRequests", err)
		return
	}

	h.writeView(w, "SetSpecialRequests")(h.bookings.SetSpecialRequests(r.Context(), principal(r), ps.ByName("id"), req.SpecialRequests))
}

func (h *Handler) RefreshAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.writeView(w, "RefreshAvailability")(h.bookings.RefreshAvailability(r.Context(), principal(r), ps.ByName("id")))
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	handoff, err := h.bookings.Submit(r.Context(), principal(r), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}
	if err := httputil.WriteCreated(w, handoff); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *Handler) writeView(w http.ResponseWriter, handler string) func(service.View, error) {
	return func(view service.View, err error) {
		if err != nil {
			h.writeError(w, handler, err)
			return
		}
		h.writeSuccess(w, handler, view)
	}
}

func roomIndex(ps httprouter.Params) (int, error) {
	raw := ps.ByName("index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, apperrors.InvalidInput("invalid room index: " + raw)
	}
	return index, nil
}
