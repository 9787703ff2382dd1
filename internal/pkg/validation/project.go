package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"liyantis-backend/internal/domain"
)

// FieldErrors maps a field path (e.g. "installments[2].percent") to a message.
// It never blocks saving; callers decide whether to let the user move on.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (f FieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Merge copies other into f, keeping messages already present.
func (f FieldErrors) Merge(other FieldErrors) FieldErrors {
	for k, v := range other {
		f.add(k, v)
	}
	return f
}

// Err returns f as an error, or nil when there is nothing to report.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

const percentTolerance = 1e-9

func badNumber(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}

// ValidatePropertyDetails checks the first wizard step.
func ValidatePropertyDetails(p domain.Project) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(p.ProjectName) == "" {
		errs.add("projectName", "Project name is required")
	}
	if strings.TrimSpace(p.Developer) == "" {
		errs.add("developer", "Developer is required")
	}
	if strings.TrimSpace(p.Type) == "" {
		errs.add("type", "Property type is required")
	}
	if p.Status != "" && !p.Status.Valid() {
		errs.add("status", "Status must be one of Off-Plan, Off-Resale, Secondary, Resale")
	}
	if p.Currency != "" && !IsValidCurrency(p.Currency) {
		errs.add("currency", "Currency must be a 3 letter code")
	}
	if p.Bedrooms < 0 {
		errs.add("bedrooms", "Bedrooms cannot be negative")
	}
	if badNumber(p.Price) || p.Price <= 0 {
		errs.add("price", "Price must be greater than zero")
	}
	if badNumber(p.AreaSqFt) || p.AreaSqFt <= 0 {
		errs.add("areaSqFt", "Area (sq ft) must be greater than zero")
	}
	if badNumber(p.AreaSqM) || p.AreaSqM <= 0 {
		errs.add("areaSqM", "Area (sq m) must be greater than zero")
	}
	if p.DLDPercent != nil && (badNumber(*p.DLDPercent) || !inPercentRange(*p.DLDPercent)) {
		errs.add("dldPercent", "DLD percent must be between 0 and 100")
	}
	if badNumber(p.ServiceChargePerSqFt) || p.ServiceChargePerSqFt < 0 {
		errs.add("serviceChargePerSqFt", "Service charge cannot be negative")
	}
	return errs
}

// ValidatePaymentPlan checks the second wizard step. Installment percents are
// cumulative: a complete plan never goes down and ends at 100. A flip threshold
// above the handover threshold and an incomplete plan are reported, never corrected.
func ValidatePaymentPlan(plan domain.PaymentPlan) FieldErrors {
	errs := FieldErrors{}
	targets := []struct {
		field string
		value domain.Percent
	}{
		{"duringConstructionPercent", plan.DuringConstructionPercent},
		{"onHandoverPercent", plan.OnHandoverPercent},
		{"postHandoverPercent", plan.PostHandoverPercent},
		{"flipAtPercent", plan.FlipAtPercent},
		{"handoverAtPercent", plan.HandoverAtPercent},
	}
	for _, t := range targets {
		if !inPercentRange(float64(t.value)) {
			errs.add(t.field, "Must be between 0 and 100")
		}
	}
	if plan.DownPaymentPercent != nil && !inPercentRange(float64(*plan.DownPaymentPercent)) {
		errs.add("downPaymentPercent", "Must be between 0 and 100")
	}
	if plan.FlipAtPercent.Float() > plan.HandoverAtPercent.Float() {
		errs.add("flipAtPercent", "Flip at must not exceed handover at")
	}

	for i, in := range plan.Installments {
		field := fmt.Sprintf("installments[%d]", i)
		if in.Ordinal != i+1 {
			errs.add(field+".ordinal", fmt.Sprintf("Expected position %d", i+1))
		}
		if !in.Stage.Valid() {
			errs.add(field+".stage", "Unknown stage")
		} else if (i == 0) != (in.Stage == domain.StageDownPayment) {
			errs.add(field+".stage", "Only the first installment is the down payment")
		}
		if strings.TrimSpace(in.Date) == "" {
			errs.add(field+".date", "Date is required")
		}
		if !inPercentRange(float64(in.Percent)) {
			errs.add(field+".percent", "Must be between 0 and 100")
		} else if i > 0 && in.Percent.Float() < plan.Installments[i-1].Percent.Float() {
			errs.add(field+".percent", "Must not be lower than the previous installment")
		}
	}

	if n := len(plan.Installments); n > 0 {
		last := plan.Installments[n-1].Percent.Float()
		if math.Abs(last-100) > percentTolerance {
			errs.add("installments", "Last installment must reach 100% (currently "+strconv.FormatFloat(last, 'f', -1, 64)+"%)")
		}
	}
	return errs
}

// ValidateProjections checks the third wizard step.
func ValidateProjections(p domain.Projections) FieldErrors {
	errs := FieldErrors{}
	growth := func(field string, v domain.Percent) {
		if float64(v) < -100 || float64(v) > 100 {
			errs.add(field, "Must be between -100 and 100")
		}
	}
	growth("yoyGrowthBeforeHandover", p.YoYGrowthBeforeHandover)
	growth("yoyGrowthAfterHandover", p.YoYGrowthAfterHandover)
	if !inPercentRange(float64(p.RentalYieldPercent)) {
		errs.add("rentalYieldPercent", "Must be between 0 and 100")
	}
	if c := float64(p.ExitStrategy.ConservativePercent); c < -100 || c > 0 {
		errs.add("exitStrategy.conservativePercent", "Must be between -100 and 0")
	}
	if o := float64(p.ExitStrategy.OptimisticPercent); o < 0 || o > 1000 {
		errs.add("exitStrategy.optimisticPercent", "Must be between 0 and 1000")
	}
	return errs
}

// ValidateRatings checks the last wizard step. Categories may be missing; present ones score 1..5.
func ValidateRatings(r domain.Ratings) FieldErrors {
	errs := FieldErrors{}
	known := make(map[string]bool, len(domain.RatingCategories))
	for _, k := range domain.RatingCategories {
		known[k] = true
	}
	for k, v := range r {
		field := "ratings." + k
		if !known[k] {
			errs.add(field, "Unknown rating category")
			continue
		}
		if v < 1 || v > 5 {
			errs.add(field, "Rating must be between 1 and 5")
		}
	}
	return errs
}

// NonNumericPercents reports percent fields in a raw payment plan body that are
// present but not numbers. Those fields decode to 0 and would otherwise go unnoticed.
func NonNumericPercents(body []byte) FieldErrors {
	errs := FieldErrors{}
	var raw struct {
		DuringConstructionPercent json.RawMessage   `json:"duringConstructionPercent"`
		OnHandoverPercent         json.RawMessage   `json:"onHandoverPercent"`
		PostHandoverPercent       json.RawMessage   `json:"postHandoverPercent"`
		FlipAtPercent             json.RawMessage   `json:"flipAtPercent"`
		HandoverAtPercent         json.RawMessage   `json:"handoverAtPercent"`
		DownPaymentPercent        json.RawMessage   `json:"downPaymentPercent"`
		Installments              []json.RawMessage `json:"installments"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		errs.add("body", "Invalid JSON")
		return errs
	}
	check := func(field string, v json.RawMessage) {
		if len(v) > 0 && string(v) != "null" && !domain.IsNumeric(v) {
			errs.add(field, "Must be a number")
		}
	}
	check("duringConstructionPercent", raw.DuringConstructionPercent)
	check("onHandoverPercent", raw.OnHandoverPercent)
	check("postHandoverPercent", raw.PostHandoverPercent)
	check("flipAtPercent", raw.FlipAtPercent)
	check("handoverAtPercent", raw.HandoverAtPercent)
	check("downPaymentPercent", raw.DownPaymentPercent)
	for i, item := range raw.Installments {
		var in struct {
			Percent json.RawMessage `json:"percent"`
		}
		if err := json.Unmarshal(item, &in); err != nil {
			errs.add(fmt.Sprintf("installments[%d]", i), "Invalid installment")
			continue
		}
		check(fmt.Sprintf("installments[%d].percent", i), in.Percent)
	}
	return errs
}
