package reports

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 15.0
	rowHeight  = 7.0
)

// PDF writes the report as an A4 document.
func (r Report) PDF(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(r.ProjectName, true)
	pdf.SetAuthor("Liyantis", false)
	pdf.SetCreationDate(r.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(15, 61, 62)
	pdf.CellFormat(0, 10, tr(r.ProjectName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(107, 114, 128)
	sub := r.Developer
	if r.Location != "" {
		sub += " - " + r.Location
	}
	pdf.CellFormat(0, 6, tr(sub), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	heading := func(title string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(15, 61, 62)
		pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(31, 41, 55)
	}
	pair := func(label, value string) {
		pdf.CellFormat(70, rowHeight, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, rowHeight, tr(value), "", 1, "R", false, 0, "")
	}

	heading("Property")
	pair("Type", r.Type)
	pair("Bedrooms", strconv.Itoa(r.Bedrooms))
	pair("Status", r.Status)
	pair("Price", r.PriceDisplay)
	pair("Area", r.Area)
	pair("Payment plan", r.PaymentPlan)
	pair("Flip at / handover at", r.FlipAt+" / "+r.HandoverAt)
	pair("Rating", r.Rating)

	heading("Cost breakdown")
	for i, l := range r.Breakdown {
		if i == len(r.Breakdown)-1 {
			pdf.SetFont("Helvetica", "B", 10)
		}
		pair(l.Label, l.Value)
	}
	pdf.SetFont("Helvetica", "", 10)

	if len(r.Exit) > 0 {
		heading("Exit strategies")
		cols := []float64{45, 45, 45, 45}
		pdf.SetFillColor(243, 244, 246)
		pdf.SetFont("Helvetica", "B", 10)
		for i, h := range []string{"Horizon", "Conservative", "Moderate", "Optimistic"} {
			pdf.CellFormat(cols[i], rowHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, e := range r.Exit {
			pdf.CellFormat(cols[0], rowHeight, tr(e.Horizon), "1", 0, "L", false, 0, "")
			for i, b := range []struct{ pct, val string }{
				{e.Bands.Conservative.Percent, e.Bands.Conservative.Val},
				{e.Bands.Moderate.Percent, e.Bands.Moderate.Val},
				{e.Bands.Optimistic.Percent, e.Bands.Optimistic.Val},
			} {
				pdf.CellFormat(cols[i+1], rowHeight, tr(b.pct+"  "+b.val), "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
		if r.ExitDerived {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.CellFormat(0, 6, "Indicative figures derived from the growth and yield assumptions.", "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
		}
	}

	if len(r.Timeline) > 0 {
		heading("Payment timeline")
		cols := []float64{10, 25, 45, 20, 40, 40}
		pdf.SetFont("Helvetica", "B", 9)
		for i, h := range []string{"#", "Date", "Stage", "Paid", "Amount", ""} {
			pdf.CellFormat(cols[i], rowHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, t := range r.Timeline {
			fill := t.FlipReady
			if fill {
				pdf.SetFillColor(250, 243, 224)
			}
			pdf.CellFormat(cols[0], rowHeight, strconv.Itoa(t.Ordinal), "1", 0, "C", fill, 0, "")
			pdf.CellFormat(cols[1], rowHeight, tr(t.Date), "1", 0, "C", fill, 0, "")
			pdf.CellFormat(cols[2], rowHeight, tr(t.Stage), "1", 0, "L", fill, 0, "")
			pdf.CellFormat(cols[3], rowHeight, tr(t.Percent), "1", 0, "R", fill, 0, "")
			pdf.CellFormat(cols[4], rowHeight, tr(t.Amount), "1", 0, "R", fill, 0, "")
			pdf.CellFormat(cols[5], rowHeight, tr(strings.Join(t.Markers(), ", ")), "1", 0, "L", fill, 0, "")
			pdf.Ln(-1)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(0, 5, "Generated "+r.GeneratedAt.UTC().Format("2 Jan 2006 15:04 MST"), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
