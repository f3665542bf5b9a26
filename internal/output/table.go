package output

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-busfactor/internal/domain"
)

// tablePrinter buffers results and renders them as one table on Flush.
type tablePrinter struct {
	w       io.Writer
	results []domain.BusFactor
}

func (p *tablePrinter) Print(result domain.BusFactor) error {
	p.results = append(p.results, result)
	return nil
}

func (p *tablePrinter) Flush() error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Project", "User", "Percentage"})

	ratios := make(stats.Float64Data, 0, len(p.results))
	for _, r := range p.results {
		t.AppendRow(table.Row{r.Repository, r.Contributor, fmt.Sprintf("%.2f", r.Ratio)})
		ratios = append(ratios, r.Ratio)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d found", len(p.results)), "", summary(ratios)})

	_, err := fmt.Fprintln(p.w, t.Render())
	return err
}

// summary describes the ratio distribution of a result set.
func summary(ratios stats.Float64Data) string {
	if len(ratios) == 0 {
		return "-"
	}
	mean, err := ratios.Mean()
	if err != nil {
		return "-"
	}
	median, err := ratios.Median()
	if err != nil {
		return "-"
	}
	return fmt.Sprintf("mean %.2f / median %.2f", mean, median)
}

// Budget is a named rate budget as shown by the limits command.
type Budget struct {
	Resource          string `json:"resource" yaml:"resource"`
	domain.RateBudget `yaml:",inline"`
}

// PrintBudgets writes budgets in the requested format.
func PrintBudgets(w io.Writer, format Format, budgets []Budget) error {
	switch format {
	case FormatJSON:
		enc := newIndentedJSON(w)
		return enc.Encode(budgets)
	case FormatYAML:
		return encodeYAML(w, budgets)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Resource", "Limit", "Remaining", "Resets"})
	for _, b := range budgets {
		t.AppendRow(table.Row{b.Resource, count(b.Limit), count(b.Remaining), resetLabel(b.ResetAt)})
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func count(n int) string {
	if n >= math.MaxInt32 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", n)
}

func resetLabel(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return at.Local().Format(time.DateTime)
}
