package finance

import (
	"math"
	"strings"
	"time"

	"liyantis-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// TimelinePoint is one installment expanded into what has been paid by its date.
type TimelinePoint struct {
	Ordinal           int          `json:"ordinal"`
	Date              string       `json:"date"`
	DisplayDate       string       `json:"displayDate"`
	Stage             domain.Stage `json:"stage"`
	CumulativePercent float64      `json:"cumulativePercent"`
	CumulativeAmount  int64        `json:"cumulativeAmount"`
}

var dateLayouts = []string{
	"2006-01",
	"2006-01-02",
	time.RFC3339,
	"Jan 2006",
	"January 2006",
	"Jan 06",
}

// ParseInstallmentDate accepts the date shapes the app has stored over time.
func ParseInstallmentDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// displayDate renders "Jan 26"; unknown shapes are shown as entered.
func displayDate(s string) string {
	if t, ok := ParseInstallmentDate(s); ok {
		return t.Format("Jan 06")
	}
	return s
}

// BuildTimeline keeps installment order. Dates are not re-sorted.
func BuildTimeline(installments []domain.Installment, price float64) []TimelinePoint {
	out := make([]TimelinePoint, 0, len(installments))
	if !finite(price) {
		price = 0
	}
	p := decimal.NewFromFloat(price)
	for _, in := range installments {
		pct := in.Percent.Float()
		amount := roundHalfUp(p.Mul(decimal.NewFromFloat(pct)).Div(hundred))
		out = append(out, TimelinePoint{
			Ordinal:           in.Ordinal,
			Date:              in.Date,
			DisplayDate:       displayDate(in.Date),
			Stage:             in.Stage,
			CumulativePercent: pct,
			CumulativeAmount:  amount.IntPart(),
		})
	}
	return out
}

// ValueAtIndex returns the point at index clamped to the timeline bounds.
// ok is false only for an empty timeline.
func ValueAtIndex(timeline []TimelinePoint, index int) (TimelinePoint, bool) {
	if len(timeline) == 0 {
		return TimelinePoint{}, false
	}
	return timeline[clamp(index, 0, len(timeline)-1)], true
}

// InterpolatePosition snaps a scrub position in [0,1] to the nearest installment
// index. Out-of-range positions clamp, NaN maps to 0 and an empty timeline yields -1.
func InterpolatePosition(timeline []TimelinePoint, position float64) int {
	n := len(timeline)
	if n == 0 {
		return -1
	}
	if math.IsNaN(position) {
		return 0
	}
	if math.IsInf(position, 1) {
		return n - 1
	}
	if math.IsInf(position, -1) {
		return 0
	}
	idx := math.Floor(position*float64(n-1) + 0.5)
	if idx < 0 {
		return 0
	}
	if idx > float64(n-1) {
		return n - 1
	}
	return int(idx)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
