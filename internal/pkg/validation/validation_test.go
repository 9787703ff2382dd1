package validation

import (
	"testing"

	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plan(flip, handover float64, percents ...float64) domain.PaymentPlan {
	p := domain.PaymentPlan{
		DuringConstructionPercent: 40,
		OnHandoverPercent:         60,
		FlipAtPercent:             domain.Percent(flip),
		HandoverAtPercent:         domain.Percent(handover),
	}
	for i, pct := range percents {
		stage := domain.StageDuringConstruction
		if i == 0 {
			stage = domain.StageDownPayment
		}
		p.Installments = append(p.Installments, domain.Installment{
			Ordinal: i + 1,
			Date:    "2026-01",
			Percent: domain.Percent(pct),
			Stage:   stage,
		})
	}
	return p
}

func TestValidatePaymentPlan_FlipHandoverOrdering(t *testing.T) {
	errs := ValidatePaymentPlan(plan(70, 50))
	assert.Contains(t, errs, "flipAtPercent")
	assert.Error(t, errs.Err())

	errs = ValidatePaymentPlan(plan(35, 70))
	assert.Empty(t, errs)
	assert.NoError(t, errs.Err())

	errs = ValidatePaymentPlan(plan(70, 70))
	assert.NotContains(t, errs, "flipAtPercent")
}

func TestValidatePaymentPlan_CumulativeEndsAt100(t *testing.T) {
	errs := ValidatePaymentPlan(plan(35, 70, 10, 30, 60))
	assert.Equal(t, "Last installment must reach 100% (currently 60%)", errs["installments"])

	errs = ValidatePaymentPlan(plan(35, 70, 10, 30, 100))
	assert.Empty(t, errs)

	errs = ValidatePaymentPlan(plan(35, 70, 10, 40, 40, 100, 100))
	assert.Empty(t, errs)

	errs = ValidatePaymentPlan(plan(35, 70, 10, 50, 30, 100))
	assert.Equal(t, "Must not be lower than the previous installment", errs["installments[2].percent"])
	assert.NotContains(t, errs, "installments")

	// shares that add up to 100 are not a complete cumulative plan
	errs = ValidatePaymentPlan(plan(35, 70, 10, 40, 50))
	assert.Contains(t, errs, "installments")
}

func TestValidatePaymentPlan_ValidPlanAnalyzes(t *testing.T) {
	p := domain.Project{
		ProjectName: "The Weave", Developer: "Al Ghurair", Type: "Apartment",
		Status: domain.StatusOffPlan, Price: 1225000, AreaSqFt: 776, AreaSqM: 72.09,
		PaymentPlan: plan(35, 70, 10, 20, 40, 70, 100),
	}
	require.Empty(t, ValidatePaymentPlan(p.PaymentPlan))

	a, err := finance.Analyze(p, finance.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, a.Timeline, 5)
	last := a.Timeline[len(a.Timeline)-1]
	assert.Equal(t, 100.0, last.CumulativePercent)
	assert.Equal(t, int64(1225000), last.CumulativeAmount)
	assert.Equal(t, 100.0, a.TotalPercent)
	assert.Equal(t, 2, a.FlipIndex)
	assert.Equal(t, 3, a.HandoverIndex)
	assert.GreaterOrEqual(t, a.HandoverIndex, 0)
}

func TestValidatePaymentPlan_InstallmentShape(t *testing.T) {
	p := plan(35, 70, 10, 90)
	p.Installments[1].Stage = domain.StageDownPayment
	p.Installments[1].Date = ""
	p.Installments[1].Ordinal = 5
	errs := ValidatePaymentPlan(p)
	assert.Contains(t, errs, "installments[1].stage")
	assert.Contains(t, errs, "installments[1].date")
	assert.Contains(t, errs, "installments[1].ordinal")
}

func TestValidatePropertyDetails(t *testing.T) {
	errs := ValidatePropertyDetails(domain.Project{})
	for _, f := range []string{"projectName", "developer", "type", "price", "areaSqFt", "areaSqM"} {
		assert.Contains(t, errs, f)
	}

	bad := 140.0
	errs = ValidatePropertyDetails(domain.Project{
		ProjectName: "The Weave", Developer: "Al Ghurair", Type: "Apartment",
		Status: "Sold Out", Currency: "aed", Price: 1225000, AreaSqFt: 776, AreaSqM: 72.09,
		DLDPercent: &bad, ServiceChargePerSqFt: -1,
	})
	assert.Contains(t, errs, "status")
	assert.Contains(t, errs, "currency")
	assert.Contains(t, errs, "dldPercent")
	assert.Contains(t, errs, "serviceChargePerSqFt")
	assert.NotContains(t, errs, "price")

	errs = ValidatePropertyDetails(domain.Project{
		ProjectName: "The Weave", Developer: "Al Ghurair", Type: "Apartment",
		Status: domain.StatusOffPlan, Price: 1225000, AreaSqFt: 776, AreaSqM: 72.09,
	})
	assert.Empty(t, errs)
}

func TestValidateProjections(t *testing.T) {
	ok := domain.Projections{
		YoYGrowthBeforeHandover: 8, YoYGrowthAfterHandover: 7, RentalYieldPercent: 10,
		ExitStrategy: domain.ExitAdjustment{ConservativePercent: -50, OptimisticPercent: 25},
	}
	assert.Empty(t, ValidateProjections(ok))

	bad := ok
	bad.ExitStrategy.ConservativePercent = 10
	bad.RentalYieldPercent = -1
	errs := ValidateProjections(bad)
	assert.Contains(t, errs, "exitStrategy.conservativePercent")
	assert.Contains(t, errs, "rentalYieldPercent")
}

func TestValidateRatings(t *testing.T) {
	assert.Empty(t, ValidateRatings(domain.Ratings{"quality": 4, "resale": 1}))
	assert.Empty(t, ValidateRatings(nil))

	errs := ValidateRatings(domain.Ratings{"quality": 6, "vibes": 3})
	assert.Equal(t, "Rating must be between 1 and 5", errs["ratings.quality"])
	assert.Equal(t, "Unknown rating category", errs["ratings.vibes"])
}

func TestNonNumericPercents(t *testing.T) {
	body := []byte(`{"flipAtPercent":"35%","handoverAtPercent":"seventy","installments":[{"percent":10},{"percent":"ten"}]}`)
	errs := NonNumericPercents(body)
	assert.Len(t, errs, 2)
	assert.Contains(t, errs, "handoverAtPercent")
	assert.Contains(t, errs, "installments[1].percent")

	assert.Contains(t, NonNumericPercents([]byte(`{`)), "body")
}

func TestFieldErrors_Error(t *testing.T) {
	errs := FieldErrors{"b": "second", "a": "first"}
	assert.Equal(t, "validation failed: a: first; b: second", errs.Error())
	merged := FieldErrors{"a": "kept"}.Merge(errs)
	assert.Equal(t, "kept", merged["a"])
	assert.Equal(t, "second", merged["b"])
}

func TestCredentials(t *testing.T) {
	assert.True(t, IsValidEmail("agent@liyantis.com"))
	assert.False(t, IsValidEmail("agent@"))
	assert.True(t, IsValidPassword("s3cret!pass"))
	assert.False(t, IsValidPassword("password"))
	assert.True(t, IsValidName("Mary-Jane O'Neil"))
	assert.False(t, IsValidName("R2D2"))
}
