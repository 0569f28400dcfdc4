package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/model"
)

func (h *Handler) ListHotels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	filter := model.HotelFilter{
		Location:    query.Get("location"),
		SortByPrice: query.Get("sortByPrice"),
	}
	switch filter.SortByPrice {
	case "", model.SortPriceAsc, model.SortPriceDesc:
	default:
		h.writeError(w, "ListHotels", apperrors.InvalidInput("invalid sortByPrice parameter: "+filter.SortByPrice))
		return
	}

	writeResult(h, w, "ListHotels", h.catalog.List(r.Context(), filter))
}

func (h *Handler) GetHotel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	writeResult(h, w, "GetHotel", h.catalog.ByID(r.Context(), ps.ByName("id")))
}

func (h *Handler) Locations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeResult(h, w, "Locations", h.catalog.Locations(r.Context()))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeResult(h, w, "Search", h.catalog.Search(r.Context(), r.URL.Query().Get("query")))
}

func (h *Handler) Trending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeResult(h, w, "Trending", h.catalog.Trending(r.Context()))
}

func (h *Handler) CreateHotel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateHotelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CreateHotel", err)
		return
	}

	hotel, err := h.catalog.Create(r.Context(), principal(r), &req)
	if err != nil {
		h.writeError(w, "CreateHotel", err)
		return
	}

	if err := httputil.WriteCreated(w, hotel); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateHotel", "operation", "WriteCreated", "error", err)
	}
}
