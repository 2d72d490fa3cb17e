package domain

import "math"

// Component is one listing sourced from the product search endpoint.
// Price is stored in minor currency units (cents) to avoid floating-point
// drift; the whole set for a category is replaced on each refresh.
type Component struct {
	ID       string
	Category Category
	Title    string
	Link     string
	Image    string
	Price    int64
	Brand    string
	Model    string
	Attrs    map[string]string
}

// MinorUnits converts a price in major currency units to integer minor
// units, truncating fractional sub-cent values (19.99 -> 1999, 3.999 -> 399).
// The epsilon compensates for binary floats landing just under the decimal
// product: 19.99*100 evaluates to 1998.9999..., which must not truncate to 1998.
func MinorUnits(major float64) int64 {
	return int64(math.Trunc(major*100 + 1e-6))
}
