package sanitizer

import (
	"strings"

	"staybook/pkg/model"
)

// HotelRequest normalizes req in place.
func HotelRequest(req *model.CreateHotelRequest) {
	if req == nil {
		return
	}
	req.Name = TrimAndNormalize(req.Name)
	req.Location = TrimAndNormalize(req.Location)
	req.Image = strings.TrimSpace(req.Image)
	req.Description = NormalizeParagraph(req.Description)
	req.Amenities = NormalizeAmenities(req.Amenities)
	for i := range req.Rooms {
		req.Rooms[i].Type = TrimAndNormalize(req.Rooms[i].Type)
	}
}
