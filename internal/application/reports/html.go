package reports

import (
	"bytes"
	"fmt"
	"strings"

	"liyantis-backend/internal/application/emails"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

func esc(s string) string {
	return strings.ReplaceAll(emails.EscapeMarkdownText(s), "|", `\|`)
}

// Markdown writes the report as GitHub-flavoured Markdown.
func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", esc(r.ProjectName))
	fmt.Fprintf(&b, "**%s** · %s\n\n", esc(r.Developer), esc(r.Location))

	b.WriteString("## Property\n\n| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Type | %s |\n", esc(r.Type))
	fmt.Fprintf(&b, "| Bedrooms | %d |\n", r.Bedrooms)
	fmt.Fprintf(&b, "| Status | %s |\n", esc(r.Status))
	fmt.Fprintf(&b, "| Price | %s |\n", esc(r.PriceDisplay))
	fmt.Fprintf(&b, "| Area | %s |\n", esc(r.Area))
	fmt.Fprintf(&b, "| Payment plan | %s |\n", esc(r.PaymentPlan))
	fmt.Fprintf(&b, "| Flip at / handover at | %s / %s |\n", esc(r.FlipAt), esc(r.HandoverAt))
	fmt.Fprintf(&b, "| Rating | %s |\n\n", esc(r.Rating))

	b.WriteString("## Cost breakdown\n\n| Item | Amount |\n|---|---:|\n")
	for _, l := range r.Breakdown {
		fmt.Fprintf(&b, "| %s | %s |\n", esc(l.Label), esc(l.Value))
	}
	b.WriteString("\n")

	if len(r.Exit) > 0 {
		b.WriteString("## Exit strategies\n\n")
		if r.ExitDerived {
			b.WriteString("_Indicative figures derived from the growth and yield assumptions._\n\n")
		}
		b.WriteString("| Horizon | Conservative | Moderate | Optimistic |\n|---|---|---|---|\n")
		for _, e := range r.Exit {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", esc(e.Horizon),
				band(e.Bands.Conservative.Percent, e.Bands.Conservative.Val),
				band(e.Bands.Moderate.Percent, e.Bands.Moderate.Val),
				band(e.Bands.Optimistic.Percent, e.Bands.Optimistic.Val))
		}
		b.WriteString("\n")
	}

	if len(r.Timeline) > 0 {
		b.WriteString("## Payment timeline\n\n| # | Date | Stage | Paid | Amount | |\n|---|---|---|---:|---:|---|\n")
		for _, t := range r.Timeline {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n", t.Ordinal, esc(t.Date), esc(t.Stage),
				esc(t.Percent), esc(t.Amount), strings.Join(t.Markers(), ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Generated %s\n", r.GeneratedAt.UTC().Format("2 Jan 2006 15:04 MST"))
	return b.String()
}

func band(pct, val string) string {
	if pct == "" && val == "" {
		return "-"
	}
	return esc(pct) + " (" + esc(val) + ")"
}

// HTML renders the report inside the branded layout.
func (r Report) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &buf); err != nil {
		return nil, err
	}
	return []byte(emails.EmailLayout(buf.String())), nil
}
