package domain

import (
	"database/sql/driver"
)

// Stage labels an installment milestone.
type Stage string

const (
	StageDownPayment        Stage = "Down Payment"
	StageDuringConstruction Stage = "During Construction"
	StageOnHandover         Stage = "On Handover"
	StagePostHandover       Stage = "Post Handover"
	StageHandover           Stage = "Handover"
	StageFullPayment        Stage = "Full Payment"
)

var Stages = []Stage{
	StageDownPayment,
	StageDuringConstruction,
	StageOnHandover,
	StagePostHandover,
	StageHandover,
	StageFullPayment,
}

func (s Stage) Valid() bool {
	for _, v := range Stages {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultDownPaymentPercent pins the first installment when the plan does not set one.
const DefaultDownPaymentPercent = 10.0

// Installment is one payment milestone. Percent is cumulative: the share of the
// price paid by Date.
type Installment struct {
	Ordinal int     `json:"ordinal"`
	Date    string  `json:"date"`
	Percent Percent `json:"percent"`
	Stage   Stage   `json:"stage"`
}

// PaymentPlan is stored as a json column on Projects.
type PaymentPlan struct {
	DuringConstructionPercent Percent       `json:"duringConstructionPercent"`
	OnHandoverPercent         Percent       `json:"onHandoverPercent"`
	PostHandoverPercent       Percent       `json:"postHandoverPercent"`
	FlipAtPercent             Percent       `json:"flipAtPercent"`
	HandoverAtPercent         Percent       `json:"handoverAtPercent"`
	DownPaymentPercent        *Percent      `json:"downPaymentPercent,omitempty"`
	Installments              []Installment `json:"installments"`
}

// DownPayment returns the configured down payment, or def when the plan has none.
func (p PaymentPlan) DownPayment(def float64) float64 {
	if p.DownPaymentPercent == nil {
		return def
	}
	return p.DownPaymentPercent.Float()
}

func (p *PaymentPlan) Scan(value interface{}) error {
	return scanJSON(value, p, "PaymentPlan")
}

func (p PaymentPlan) Value() (driver.Value, error) {
	if p.Installments == nil {
		p.Installments = []Installment{}
	}
	return jsonValue(p)
}

// ExitAdjustment holds the signed band multipliers, e.g. -50 and +25.
type ExitAdjustment struct {
	ConservativePercent Percent `json:"conservativePercent"`
	OptimisticPercent   Percent `json:"optimisticPercent"`
}

// Projections is stored as a json column on Projects.
type Projections struct {
	YoYGrowthBeforeHandover Percent        `json:"yoyGrowthBeforeHandover"`
	YoYGrowthAfterHandover  Percent        `json:"yoyGrowthAfterHandover"`
	RentalYieldPercent      Percent        `json:"rentalYieldPercent"`
	ExitStrategy            ExitAdjustment `json:"exitStrategy"`
}

func (p *Projections) Scan(value interface{}) error {
	return scanJSON(value, p, "Projections")
}

func (p Projections) Value() (driver.Value, error) {
	return jsonValue(p)
}
