// Package plot renders the diagnostic charts of the model comparison: the
// out-of-bag error trajectory of the native forests and the variable
// importances of the best one.
package plot

import (
	"image/color"
	"sort"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

var palette = []color.RGBA{
	{R: 214, G: 39, B: 40, A: 255},
	{R: 31, G: 119, B: 180, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
}

// OOBCurves draws one line per named error curve, with a legend, and saves
// the chart to path. Curves are drawn in name order so the output is stable.
func OOBCurves(curves map[string][]float64, title, path string) error {
	if len(curves) == 0 {
		return errors.NewValueError("OOBCurves", "no curves to plot")
	}

	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = "trees"
	p.Y.Label.Text = "OOB error"
	p.Legend.Top = true

	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		curve := curves[name]
		if len(curve) == 0 {
			return errors.NewValueError("OOBCurves", "empty curve: "+name)
		}

		pts := make(plotter.XYs, len(curve))
		for j, e := range curve {
			pts[j].X = float64(j + 1)
			pts[j].Y = e
		}

		l, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrap(err, "banklearn: building OOB line")
		}
		l.Color = palette[i%len(palette)]
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(name, l)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "banklearn: saving OOB plot")
	}
	return nil
}

// ImportanceBars draws a bar per variable, ordered by decreasing importance,
// and saves the chart to path. names and importances must align.
func ImportanceBars(names []string, importances []float64, title, path string) error {
	if len(names) == 0 || len(names) != len(importances) {
		return errors.NewValueError("ImportanceBars", "names and importances must align and be non-empty")
	}

	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return importances[order[a]] > importances[order[b]]
	})

	values := make(plotter.Values, len(order))
	labels := make([]string, len(order))
	for i, idx := range order {
		values[i] = importances[idx]
		labels[i] = names[idx]
	}

	p := gplot.New()
	p.Title.Text = title
	p.Y.Label.Text = "importance"

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return errors.Wrap(err, "banklearn: building importance bars")
	}
	bars.Color = palette[1]
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.9
	p.X.Tick.Label.YAlign = -0.4
	p.X.Tick.Label.XAlign = -0.9

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "banklearn: saving importance plot")
	}
	return nil
}
