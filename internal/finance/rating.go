package finance

import (
	"liyantis-backend/internal/domain"

	"github.com/shopspring/decimal"
)

const DefaultRating = "5.0"

// AggregateRating rescales the 1..5 category average to 0..10 with one decimal.
// Only present keys count; no ratings at all yields "5.0".
func AggregateRating(r domain.Ratings) string {
	if len(r) == 0 {
		return DefaultRating
	}
	var sum int64
	for _, v := range r {
		sum += int64(v)
	}
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(r))))
	return avg.Mul(decimal.NewFromInt(2)).StringFixed(1)
}
