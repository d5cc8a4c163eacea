package report

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/i474232898/weather-pulse/internal/weather"
)

const sectors = 16

var compass = [sectors]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// sector maps a meteorological direction in degrees to one of the 16 compass
// points. Sector 0 is centred on north and spans [-11.25, 11.25).
func sector(deg float64) int {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return int(math.Floor((d+11.25)/22.5)) % sectors
}

// rose is a polar histogram of wind directions. It implements plot.Plotter
// and plot.DataRanger.
type rose struct {
	counts [sectors]int
	total  int
	peak   int
}

func newRose(records []weather.Record) rose {
	var r rose
	for _, rec := range records {
		if math.IsNaN(rec.WindDirection) || math.IsNaN(rec.WindSpeed) {
			continue
		}
		r.counts[sector(rec.WindDirection)]++
		r.total++
	}
	for _, n := range r.counts {
		if n > r.peak {
			r.peak = n
		}
	}
	return r
}

func (r rose) DataRange() (xmin, xmax, ymin, ymax float64) {
	m := float64(r.peak) * 1.2
	if m == 0 {
		m = 1
	}
	return -m, m, -m, m
}

func (r rose) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	at := func(radius, rad float64) vg.Point {
		// 0 rad is north, angles grow clockwise.
		return vg.Point{X: trX(radius * math.Sin(rad)), Y: trY(radius * math.Cos(rad))}
	}

	for _, ring := range []float64{0.25, 0.5, 0.75, 1} {
		radius := ring * float64(r.peak)
		pts := make([]vg.Point, 0, 73)
		for s := 0; s <= 72; s++ {
			pts = append(pts, at(radius, float64(s)*2*math.Pi/72))
		}
		c.StrokeLines(plotter.DefaultGridLineStyle, c.ClipLinesXY(pts)...)
	}

	colors := palette.Heat(r.peak+1, 1).Colors()
	width := 2 * math.Pi / sectors
	for i, n := range r.counts {
		if n == 0 {
			continue
		}
		center := float64(i) * width
		pts := []vg.Point{at(0, 0)}
		for s := 0; s <= 8; s++ {
			pts = append(pts, at(float64(n), center-width/2+width*float64(s)/8))
		}
		c.FillPolygon(colors[n], c.ClipPolygonXY(pts))
	}

	sty := plt.X.Tick.Label
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter
	for i, name := range compass {
		c.FillText(sty, at(float64(r.peak)*1.1, float64(i)*width), name)
	}
}
