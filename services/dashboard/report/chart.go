// Package report renders the dashboard's filtered metrics as a chart image
// and as a spreadsheet.
package report

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/metrics"
)

// ErrEmptyChart is returned when there is no built area to draw.
var ErrEmptyChart = eris.New("report: nothing to chart")

// RenderStackedChart draws built area per category as stacked bars, one
// segment per ownership value, and writes a PNG to w.
func RenderStackedChart(w io.Writer, v metrics.StackedView) error {
	if len(v.Categories) == 0 || v.Total() <= 0 {
		return ErrEmptyChart
	}

	bars := make([]chart.StackedBar, 0, len(v.Categories))
	for i, category := range v.Categories {
		values := make([]chart.Value, 0, len(v.Series))
		for _, s := range v.Series {
			values = append(values, chart.Value{
				Label: s.Name,
				Value: s.Values[i],
				Style: chart.Style{
					FillColor:   hexColor(s.Color),
					StrokeColor: hexColor(s.Color),
				},
			})
		}
		bars = append(bars, chart.StackedBar{Name: category, Values: values})
	}

	sbc := chart.StackedBarChart{
		Title:      "Área construida por categoría y propiedad (m²)",
		Width:      1024,
		Height:     512,
		BarSpacing: 40,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}

	if err := sbc.Render(chart.PNG, w); err != nil {
		return eris.Wrap(err, "report: render stacked chart")
	}
	return nil
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
