package finance

import (
	"strconv"

	"liyantis-backend/internal/domain"
)

// Options carries the configurable constants of the model.
type Options struct {
	Fees              FeeSchedule
	LongTermHoldYears int
}

func DefaultOptions() Options {
	return Options{Fees: DefaultFees(), LongTermHoldYears: DefaultLongTermHoldYears}
}

// Analysis is everything the dashboard and the report show for one project.
type Analysis struct {
	ProjectID             string                   `json:"projectId"`
	Currency              string                   `json:"currency"`
	PriceDisplay          string                   `json:"priceDisplay"`
	PaymentPlanSummary    string                   `json:"paymentPlanSummary"`
	Financials            Financials               `json:"financials"`
	Timeline              []TimelinePoint          `json:"timeline"`
	TotalPercent          float64                  `json:"totalPercent"`
	FlipIndex             int                      `json:"flipIndex"`
	HandoverIndex         int                      `json:"handoverIndex"`
	ExitStrategies        domain.ExitStrategyTable `json:"exitStrategies"`
	ExitStrategiesDerived bool                     `json:"exitStrategiesDerived"`
	Rating                string                   `json:"rating"`
}

// Analyze runs the four derivations over one record.
func Analyze(p domain.Project, opts Options) (Analysis, error) {
	fin, err := ComputeFinancials(p, opts.Fees)
	if err != nil {
		return Analysis{}, err
	}
	timeline := BuildTimeline(p.PaymentPlan.Installments, p.Price)
	table, derived := DeriveExitStrategies(p, fin, opts.LongTermHoldYears)

	return Analysis{
		ProjectID:             p.ProjectID.String(),
		Currency:              p.CurrencyCode(),
		PriceDisplay:          FormatCompact(fin.Price),
		PaymentPlanSummary:    PaymentPlanSummary(p.PaymentPlan),
		Financials:            fin,
		Timeline:              timeline,
		TotalPercent:          TotalPercent(p.PaymentPlan.Installments),
		FlipIndex:             MilestoneIndex(timeline, p.PaymentPlan.FlipAtPercent.Float()),
		HandoverIndex:         MilestoneIndex(timeline, p.PaymentPlan.HandoverAtPercent.Float()),
		ExitStrategies:        table,
		ExitStrategiesDerived: derived,
		Rating:                AggregateRating(p.Ratings),
	}, nil
}

// PaymentPlanSummary renders "40/60" from the construction and handover targets.
func PaymentPlanSummary(plan domain.PaymentPlan) string {
	return trimFloat(plan.DuringConstructionPercent.Float()) + "/" + trimFloat(plan.OnHandoverPercent.Float())
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
