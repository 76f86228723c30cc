// plot_bins plots the discretized bin rates for a sweep of gamma
// shape values.
package main

import (
	"flag"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/Davydov/smodel/dist"
)

func main() {
	from := flag.Float64("from", 0.1, "first alpha")
	to := flag.Float64("to", 2, "last alpha")
	step := flag.Float64("step", 0.5, "alpha step")
	k := flag.Int("k", 4, "number of bins")
	useMedian := flag.Bool("median", false, "Use median instead of mean")
	out := flag.String("out", "bins.png", "output file")
	flag.Parse()

	p, err := plot.New()
	if err != nil {
		panic(err)
	}
	p.X.Label.Text = "bin"
	p.Y.Label.Text = "rate"

	var lines []interface{}
	for alpha := *from; alpha <= *to; alpha += *step {
		r := dist.DiscreteGamma(alpha, alpha, *k, *useMedian, nil, nil)
		fmt.Println(alpha, r)
		pts := make(plotter.XYs, *k)
		for i, v := range r {
			pts[i].X = float64(i)
			pts[i].Y = v
		}
		lines = append(lines, fmt.Sprintf("alpha=%.2f", alpha), pts)
	}

	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		panic(err)
	}

	if err := p.Save(4*vg.Inch, 4*vg.Inch, *out); err != nil {
		panic(err)
	}
}
