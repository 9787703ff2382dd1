// Package reports renders the investor report of a project as PDF or HTML and
// shares it through object storage.
package reports

import (
	"fmt"
	"strconv"
	"time"

	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Line is one labelled amount of the cost breakdown.
type Line struct {
	Label string
	Value string
}

// ExitRow is one horizon of the exit table.
type ExitRow struct {
	Horizon string
	Bands   domain.StrategyBands
}

// TimelineRow is one installment with its report markers.
type TimelineRow struct {
	Ordinal   int
	Date      string
	Stage     string
	Percent   string
	Amount    string
	FlipReady bool
	Handover  bool
	Last      bool
}

// Report is everything a rendered report shows, already formatted.
type Report struct {
	ProjectName  string
	Developer    string
	Location     string
	Type         string
	Status       string
	Bedrooms     int
	Currency     string
	PriceDisplay string
	Area         string
	PaymentPlan  string
	FlipAt       string
	HandoverAt   string
	Rating       string
	Breakdown    []Line
	Exit         []ExitRow
	ExitDerived  bool
	Timeline     []TimelineRow
	GeneratedAt  time.Time
}

// Build assembles the report of p from its analysis.
func Build(p domain.Project, a finance.Analysis, now time.Time) Report {
	cur := a.Currency
	fin := a.Financials
	r := Report{
		ProjectName:  p.ProjectName,
		Developer:    p.Developer,
		Location:     p.Location,
		Type:         p.Type,
		Status:       string(p.Status),
		Bedrooms:     p.Bedrooms,
		Currency:     cur,
		PriceDisplay: finance.FormatValue(cur, fin.Price),
		Area:         printer.Sprintf("%.2f sq ft / %.2f sq m", p.AreaSqFt, p.AreaSqM),
		PaymentPlan:  a.PaymentPlanSummary,
		FlipAt:       percent(p.PaymentPlan.FlipAtPercent.Float()),
		HandoverAt:   percent(p.PaymentPlan.HandoverAtPercent.Float()),
		Rating:       a.Rating + " / 10",
		ExitDerived:  a.ExitStrategiesDerived,
		GeneratedAt:  now,
	}

	r.Breakdown = []Line{
		{"Purchase price", money(cur, fin.Price)},
		{"Price per sq ft", money(cur, decimal.NewFromInt(fin.PricePerSqft))},
		{fmt.Sprintf("DLD fee (%s%%)", fin.DLDPercent.String()), money(cur, decimal.NewFromInt(fin.DLDFeeAmount))},
		{"Service charge (annual)", money(cur, fin.TotalServiceCharge)},
		{"Legal fee", money(cur, fin.LegalFee)},
		{"Agent commission", money(cur, fin.AgentCommission)},
		{"Net acquisition cost", money(cur, fin.NetAcquisitionCost)},
	}

	if !a.ExitStrategies.IsEmpty() {
		r.Exit = []ExitRow{
			{"Short term (flip)", a.ExitStrategies.STP},
			{"Mid term", a.ExitStrategies.MTP},
			{"Long term", a.ExitStrategies.LTP},
		}
	}

	flipAt := p.PaymentPlan.FlipAtPercent.Float()
	for i, pt := range a.Timeline {
		r.Timeline = append(r.Timeline, TimelineRow{
			Ordinal:   pt.Ordinal,
			Date:      pt.DisplayDate,
			Stage:     string(pt.Stage),
			Percent:   percent(pt.CumulativePercent),
			Amount:    money(cur, decimal.NewFromInt(pt.CumulativeAmount)),
			FlipReady: pt.CumulativePercent >= flipAt,
			Handover:  i == a.HandoverIndex,
			Last:      i == len(a.Timeline)-1,
		})
	}
	return r
}

// Markers lists the labels shown next to a timeline row.
func (t TimelineRow) Markers() []string {
	var out []string
	if t.FlipReady {
		out = append(out, "Flip ready")
	}
	if t.Handover {
		out = append(out, "Handover")
	}
	if t.Last {
		out = append(out, "Final")
	}
	return out
}

func money(cur string, d decimal.Decimal) string {
	return cur + " " + printer.Sprintf("%d", d.Round(0).IntPart())
}

func percent(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "%"
}
