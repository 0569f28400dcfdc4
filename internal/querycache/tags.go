package querycache

const (
	TagHotels       = "hotels"
	TagAvailability = "availability"
	TagBookings     = "bookings"
	TagFavorites    = "favorites"
	TagTrending     = "trending"
)

func HotelTag(hotelID string) string { return Key("hotel", hotelID) }

func AvailabilityTag(hotelID string) string { return Key(TagAvailability, hotelID) }

// BookingsTag and FavoritesTag are per user; scope comes from the principal.
func BookingsTag(scope string) string { return Key(TagBookings, scope) }

func FavoritesTag(scope string) string { return Key(TagFavorites, scope) }
