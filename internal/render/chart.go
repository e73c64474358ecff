// Package render turns solver results into user-facing artifacts: a
// PNG chart of the solved series and display text for the symbolic
// solution.
package render

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ashureev/solvebot/internal/domain"
)

// componentNames labels the solution components of a reduced system:
// y itself, then the substitution variables for higher orders.
var componentNames = []string{"y", "z", "w", "u"}

// VariableName returns the display name of the ith solution
// component.
func VariableName(i int) string {
	if i < len(componentNames) {
		return componentNames[i]
	}
	return fmt.Sprintf("y%d", i)
}

// Chart renders the solved series as a PNG line chart, one line per
// component.
func Chart(xValues []float64, yValues domain.YSeries, order int) ([]byte, error) {
	if len(xValues) == 0 || len(yValues) == 0 {
		return nil, fmt.Errorf("empty series")
	}
	if len(xValues) != len(yValues) {
		return nil, fmt.Errorf("series length mismatch: %d x values, %d y rows", len(xValues), len(yValues))
	}

	p := plot.New()
	p.X.Label.Text = "x"
	p.Add(plotter.NewGrid())

	components := len(yValues[0])
	if order < components {
		components = order
	}
	if components < 1 {
		components = 1
	}

	for c := 0; c < components; c++ {
		pts := make(plotter.XYs, len(xValues))
		for i, x := range xValues {
			if c >= len(yValues[i]) {
				return nil, fmt.Errorf("row %d has %d components, want %d", i, len(yValues[i]), components)
			}
			pts[i].X = x
			pts[i].Y = yValues[i][c]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("build line %d: %w", c, err)
		}
		line.Color = plotutil.Color(c)
		p.Add(line)
		p.Legend.Add(VariableName(c), line)
	}

	var buf bytes.Buffer
	writer, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
