package finance

import (
	"liyantis-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// FeeSchedule holds the fixed acquisition costs added on top of price, DLD and service charge.
type FeeSchedule struct {
	LegalFee               decimal.Decimal
	AgentCommissionPercent decimal.Decimal
}

func DefaultFees() FeeSchedule {
	return FeeSchedule{
		LegalFee:               decimal.NewFromInt(5000),
		AgentCommissionPercent: decimal.NewFromInt(2),
	}
}

// Financials is the cost breakdown of a project.
type Financials struct {
	Price              decimal.Decimal `json:"price"`
	PricePerSqft       int64           `json:"pricePerSqft"`
	DLDPercent         decimal.Decimal `json:"dldPercent"`
	DLDFeeAmount       int64           `json:"dldFeeAmount"`
	TotalServiceCharge decimal.Decimal `json:"totalServiceCharge"`
	LegalFee           decimal.Decimal `json:"legalFee"`
	AgentCommission    decimal.Decimal `json:"agentCommission"`
	NetAcquisitionCost decimal.Decimal `json:"netAcquisitionCost"`
}

// ComputeFinancials derives the cost breakdown. Area must be positive; the
// result never carries Inf or NaN.
func ComputeFinancials(p domain.Project, fees FeeSchedule) (Financials, error) {
	if !finite(p.AreaSqFt) || p.AreaSqFt <= 0 {
		return Financials{}, ErrInvalidArea
	}
	dldPct := p.DLD()
	if !finite(p.Price, p.ServiceChargePerSqFt, dldPct) {
		return Financials{}, ErrNonFiniteInput
	}

	price := decimal.NewFromFloat(p.Price)
	area := decimal.NewFromFloat(p.AreaSqFt)
	dldPercent := decimal.NewFromFloat(dldPct)

	pricePerSqft := roundHalfUp(price.Div(area))
	dldFee := roundHalfUp(price.Mul(dldPercent).Div(hundred))
	serviceCharge := decimal.NewFromFloat(p.ServiceChargePerSqFt).Mul(area)
	commission := price.Mul(fees.AgentCommissionPercent).Div(hundred)

	net := price.
		Add(dldFee).
		Add(serviceCharge).
		Add(fees.LegalFee).
		Add(commission)

	return Financials{
		Price:              price,
		PricePerSqft:       pricePerSqft.IntPart(),
		DLDPercent:         dldPercent,
		DLDFeeAmount:       dldFee.IntPart(),
		TotalServiceCharge: serviceCharge,
		LegalFee:           fees.LegalFee,
		AgentCommission:    commission,
		NetAcquisitionCost: net,
	}, nil
}
