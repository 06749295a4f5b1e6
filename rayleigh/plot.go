package main

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// plotResiduals writes the residual history as a log-scale line plot.
func plotResiduals(history []float64, fn string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "residual history"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "residual"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{}

	pts := make(plotter.XYs, len(history))
	for i, r := range history {
		// a log scale cannot represent an exact zero
		if r < 1e-17 {
			r = 1e-17
		}
		pts[i].X = float64(i)
		pts[i].Y = r
	}

	err = plotutil.AddLinePoints(p, "residual", pts)
	if err != nil {
		return err
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, fn)
}
