package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type favoriteStatus struct {
	HotelID  string `json:"hotelId"`
	Favorite bool   `json:"favorite"`
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeResult(h, w, "ListFavorites", h.favorites.List(r.Context(), principal(r)))
}

func (h *Handler) IsFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hotelID := ps.ByName("hotelId")
	h.writeSuccess(w, "IsFavorite", favoriteStatus{
		HotelID:  hotelID,
		Favorite: h.favorites.IsFavorite(r.Context(), principal(r), hotelID),
	})
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	toggle, err := h.favorites.Toggle(r.Context(), principal(r), ps.ByName("hotelId"))
	if err != nil {
		h.writeError(w, "ToggleFavorite", err)
		return
	}
	h.writeSuccess(w, "ToggleFavorite", toggle)
}
