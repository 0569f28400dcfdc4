package model

// Hotel is owned by the backend. The BFF never mutates it except through the
// admin create endpoint.
type Hotel struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	Image       string     `json:"image"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Rating      float64    `json:"rating,omitempty"`
	Reviews     int        `json:"reviews,omitempty"`
	Amenities   []string   `json:"amenities,omitempty"`
	Rooms       []RoomType `json:"rooms"`
}

type RoomType struct {
	Type        string       `json:"type" validate:"required"`
	Price       float64      `json:"price" validate:"gt=0"`
	RoomNumbers *RoomNumbers `json:"roomNumbers,omitempty" validate:"omitempty"`
}

// RoomNumbers is the inclusive range of physical room numbers for a type.
type RoomNumbers struct {
	From int `json:"from" validate:"min=1"`
	To   int `json:"to" validate:"gtefield=From"`
}

// RoomType returns the catalog entry with the given label.
func (h *Hotel) RoomType(label string) (RoomType, bool) {
	for _, room := range h.Rooms {
		if room.Type == label {
			return room, true
		}
	}
	return RoomType{}, false
}

type CreateHotelRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Location    string     `json:"location" validate:"required,max=200"`
	Image       string     `json:"image" validate:"required,url"`
	Price       float64    `json:"price" validate:"gt=0"`
	Description string     `json:"description" validate:"required"`
	Amenities   []string   `json:"amenities,omitempty" validate:"omitempty,dive,oneof=wifi restaurant tv coffee pool spa gym parking ac bar"`
	Rooms       []RoomType `json:"rooms,omitempty" validate:"omitempty,dive"`
}

type SearchResult struct {
	Hotel      Hotel   `json:"hotel"`
	Confidence float64 `json:"confidence"`
}

const (
	SortPriceAsc  = "asc"
	SortPriceDesc = "desc"
	LocationAll   = "All"
)

type HotelFilter struct {
	Location    string `json:"location,omitempty"`
	SortByPrice string `json:"sortByPrice,omitempty" validate:"omitempty,oneof=asc desc"`
}
