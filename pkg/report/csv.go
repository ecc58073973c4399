package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mvracar/augur/pkg/eval"
)

// WriteAccuracyCSV renders the accuracy comparison as a table keyed by
// model with one column per metric. Families whose accuracy stage did not
// complete are omitted; a later cross-validation failure does not drop the
// row.
func (c *Comparison) WriteAccuracyCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"model"}
	for _, m := range eval.Metrics {
		header = append(header, string(m))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("accuracy csv: %w", err)
	}

	for _, r := range c.Results {
		if r.Accuracy == nil {
			continue
		}
		row := []string{r.Spec}
		for _, m := range eval.Metrics {
			row = append(row, formatValue(r.Accuracy.Get(m)))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("accuracy csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCVCSV renders the cross-validation results as a table keyed by model
// with the aggregate MSE and origin counts.
func (c *Comparison) WriteCVCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"model", "MSE", "origins", "skipped"}); err != nil {
		return fmt.Errorf("cv csv: %w", err)
	}
	for _, r := range c.Results {
		if r.CV == nil {
			continue
		}
		row := []string{
			r.Spec,
			formatValue(r.CV.MSE()),
			strconv.Itoa(r.CV.Origins),
			strconv.Itoa(r.CV.Skipped),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("cv csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteForecastCSV renders the point forecasts and interval bounds of the
// successful families, one row per horizon step.
func (c *Comparison) WriteForecastCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"model", "step", "point"}
	wrote := false
	for _, r := range c.Results {
		if r.Forecast == nil {
			continue
		}
		if !wrote {
			for _, b := range r.Forecast.Bands {
				level := strconv.FormatFloat(b.Level, 'f', -1, 64)
				header = append(header, "lo"+level, "hi"+level)
			}
			if err := cw.Write(header); err != nil {
				return fmt.Errorf("forecast csv: %w", err)
			}
			wrote = true
		}
		for i, p := range r.Forecast.Points {
			row := []string{r.Spec, strconv.Itoa(i + 1), formatValue(p)}
			for _, b := range r.Forecast.Bands {
				row = append(row, formatValue(b.Lower[i]), formatValue(b.Upper[i]))
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("forecast csv: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
