package ranking

// Order selects the comparator used to sort ranked results.
type Order string

// Ranking order constants.
const (
	// ByRating orders by rating, review count, distance, id.
	ByRating Order = "rating"
	// ByDistance orders by distance first; vendors without distance go last.
	ByDistance Order = "distance"
	// ByPrice orders by hourly rate first; vendors without a rate go last.
	ByPrice Order = "price"
)

// Default is the order used when the caller does not choose one.
const Default = ByRating

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == ByRating || o == ByDistance || o == ByPrice
}
