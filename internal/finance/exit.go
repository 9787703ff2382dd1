package finance

import (
	"math"

	"liyantis-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultLongTermHoldYears is how long the compound scenario holds after handover.
const DefaultLongTermHoldYears = 5

const daysPerYear = 365.25

// DeriveExitStrategies returns the authored table when the project carries one.
// Otherwise it synthesizes a deterministic table from projections and reports derived=true.
func DeriveExitStrategies(p domain.Project, fin Financials, holdYears int) (table domain.ExitStrategyTable, derived bool) {
	if !p.ExitStrategies.IsEmpty() {
		return p.ExitStrategies, false
	}
	if holdYears <= 0 {
		holdYears = DefaultLongTermHoldYears
	}

	price := fin.Price.InexactFloat64()
	plan := p.PaymentPlan
	proj := p.Projections
	cur := p.CurrencyCode()

	before := proj.YoYGrowthBeforeHandover.Float() / 100
	after := proj.YoYGrowthAfterHandover.Float() / 100
	yield := proj.RentalYieldPercent.Float() / 100

	// Flip: growth until the flip milestone against what has been paid by then.
	flipYears := yearsUntil(plan.Installments, plan.FlipAtPercent.Float())
	stpGain := price * (math.Pow(1+before, flipYears) - 1)
	stpCapital := price * plan.FlipAtPercent.Float() / 100
	stp := bands(stpGain, stpCapital, proj.ExitStrategy, cur)

	// Compound: growth to handover, then a hold with rent on top.
	handoverYears := yearsUntil(plan.Installments, plan.HandoverAtPercent.Float())
	hold := float64(holdYears)
	atHandover := price * math.Pow(1+before, handoverYears)
	atExit := atHandover * math.Pow(1+after, hold)
	rent := price * yield * hold
	ltpGain := atExit - price + rent
	ltpCapital := price*plan.HandoverAtPercent.Float()/100 + float64(fin.DLDFeeAmount)
	ltp := bands(ltpGain, ltpCapital, proj.ExitStrategy, cur)

	return domain.ExitStrategyTable{STP: stp, MTP: stp, LTP: ltp}, true
}

func bands(gain, capital float64, adj domain.ExitAdjustment, currency string) domain.StrategyBands {
	if !finite(gain) {
		gain = 0
	}
	g := decimal.NewFromFloat(gain)
	pct := decimal.Zero
	if finite(capital) && capital > 0 {
		pct = g.Div(decimal.NewFromFloat(capital)).Mul(hundred)
	}
	band := func(adjust float64) domain.Band {
		factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(adjust).Div(hundred))
		return domain.Band{
			Percent: FormatPercent(pct.Mul(factor)),
			Val:     FormatValue(currency, g.Mul(factor)),
		}
	}
	return domain.StrategyBands{
		Conservative: band(adj.ConservativePercent.Float()),
		Moderate:     band(0),
		Optimistic:   band(adj.OptimisticPercent.Float()),
	}
}

// yearsUntil measures from the first installment to the first installment whose
// cumulative percent reaches threshold. Missing or unparseable dates count as one year.
func yearsUntil(list []domain.Installment, threshold float64) float64 {
	if len(list) == 0 {
		return 1
	}
	start, ok := ParseInstallmentDate(list[0].Date)
	if !ok {
		return 1
	}
	for _, in := range list {
		if in.Percent.Float() < threshold {
			continue
		}
		end, ok := ParseInstallmentDate(in.Date)
		if !ok {
			return 1
		}
		years := end.Sub(start).Hours() / 24 / daysPerYear
		if years <= 0 {
			return 1
		}
		return years
	}
	return 1
}

// MilestoneIndex is the first timeline index whose cumulative percent reaches threshold, or -1.
func MilestoneIndex(timeline []TimelinePoint, threshold float64) int {
	for i, pt := range timeline {
		if pt.CumulativePercent >= threshold {
			return i
		}
	}
	return -1
}
