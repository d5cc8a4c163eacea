package report

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/i474232898/weather-pulse/internal/weather"
)

const maxDateLabels = 12

// latestPerCity picks the newest record of each city, preferring current
// observations when there are any, sorted by ascending temperature.
func latestPerCity(records []weather.Record) []weather.Record {
	current, _ := weather.SplitByKind(records)
	if len(current) == 0 {
		current = records
	}

	var order []string
	latest := make(map[string]weather.Record)
	for _, r := range current {
		prev, ok := latest[r.City]
		if !ok {
			order = append(order, r.City)
		}
		if !ok || !r.Timestamp.Before(prev.Timestamp) {
			latest[r.City] = r
		}
	}

	out := make([]weather.Record, 0, len(order))
	for _, city := range order {
		out = append(out, latest[city])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Temperature < out[j].Temperature })
	return out
}

func temperatureComparison(records []weather.Record, _ Options) (*plot.Plot, error) {
	latest := latestPerCity(records)
	if len(latest) == 0 {
		return nil, errNoInput
	}

	names := make([]string, len(latest))
	values := make(plotter.Values, len(latest))
	labels := plotter.XYLabels{XYs: make(plotter.XYs, len(latest)), Labels: make([]string, len(latest))}
	for i, r := range latest {
		names[i] = r.City
		values[i] = r.Temperature
		labels.XYs[i] = plotter.XY{X: r.Temperature + 0.3, Y: float64(i)}
		labels.Labels[i] = fmt.Sprintf("%.1f°C", r.Temperature)
	}

	p := plot.New()
	p.Title.Text = "Current Temperature Across Cities"
	p.X.Label.Text = "Temperature (°C)"
	p.Y.Label.Text = "City"

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(0)

	text, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}
	for i := range text.TextStyle {
		text.TextStyle[i].YAlign = draw.YCenter
	}

	p.Add(plotter.NewGrid(), bars, text)
	p.NominalY(names...)
	return p, nil
}

func temperatureTrends(records []weather.Record, opts Options) (*plot.Plot, error) {
	cities := opts.TrendCities
	if len(cities) == 0 {
		cities = firstCities(records, 5)
	}

	byCity := make(map[string][]weather.Record)
	for _, r := range records {
		byCity[r.City] = append(byCity[r.City], r)
	}

	p := plot.New()
	p.Title.Text = "Temperature Trends Across Major Cities"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Temperature (°C)"
	p.X.Tick.Marker = plot.TimeTicks{Format: weather.HistoricalLayout}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.Add(plotter.NewGrid())

	drawn := 0
	for _, city := range cities {
		rows := byCity[city]
		if len(rows) == 0 {
			continue
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })

		xys := make(plotter.XYs, len(rows))
		for i, r := range rows {
			xys[i] = plotter.XY{X: float64(r.Timestamp.Unix()), Y: r.Temperature}
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", city, err)
		}
		line.Color = plotutil.Color(drawn)
		points.Color = plotutil.Color(drawn)
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(2)

		p.Add(line, points)
		p.Legend.Add(city, line, points)
		drawn++
	}
	if drawn == 0 {
		return nil, errNoInput
	}
	p.Legend.Top = true
	return p, nil
}

func humidityComparison(records []weather.Record, _ Options) (*plot.Plot, error) {
	var cities []string
	byCity := make(map[string]plotter.Values)
	for _, r := range records {
		if r.Humidity == nil {
			continue
		}
		if _, ok := byCity[r.City]; !ok {
			cities = append(cities, r.City)
		}
		byCity[r.City] = append(byCity[r.City], *r.Humidity)
	}
	if len(cities) == 0 {
		return nil, errNoInput
	}

	p := plot.New()
	p.Title.Text = "Humidity Distribution Across Cities"
	p.X.Label.Text = "City"
	p.Y.Label.Text = "Humidity (%)"
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())

	for i, city := range cities {
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), byCity[city])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", city, err)
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
	}
	p.NominalX(cities...)
	return p, nil
}

// heatGrid is the city by date pivot of mean historical temperatures. Rows are
// stored coldest first so the hottest city is drawn at the top.
type heatGrid struct {
	cities   []string
	dates    []string
	z        [][]float64 // z[row][col], NaN where a city has no value for a date
	min, max float64
}

func (g heatGrid) Dims() (c, r int)   { return len(g.dates), len(g.cities) }
func (g heatGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g heatGrid) X(c int) float64    { return float64(c) }
func (g heatGrid) Y(r int) float64    { return float64(r) }
func (g heatGrid) Min() float64       { return g.min }
func (g heatGrid) Max() float64       { return g.max }

// pivotHistorical averages historical temperatures per city and date. Cities
// come back sorted by their mean, hottest first; dates ascending.
func pivotHistorical(records []weather.Record) (cities, dates []string, cells map[string]map[string]float64) {
	type acc struct {
		sum float64
		n   int
	}
	sums := make(map[string]map[string]*acc)
	seenDate := make(map[string]bool)
	for _, r := range records {
		if r.Kind != weather.KindHistorical {
			continue
		}
		d := r.Timestamp.Format(weather.HistoricalLayout)
		if sums[r.City] == nil {
			sums[r.City] = make(map[string]*acc)
			cities = append(cities, r.City)
		}
		if sums[r.City][d] == nil {
			sums[r.City][d] = &acc{}
		}
		sums[r.City][d].sum += r.Temperature
		sums[r.City][d].n++
		if !seenDate[d] {
			seenDate[d] = true
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	cells = make(map[string]map[string]float64, len(cities))
	means := make(map[string]float64, len(cities))
	for city, byDate := range sums {
		cells[city] = make(map[string]float64, len(byDate))
		var total float64
		for d, a := range byDate {
			v := a.sum / float64(a.n)
			cells[city][d] = v
			total += v
		}
		means[city] = total / float64(len(byDate))
	}
	sort.SliceStable(cities, func(i, j int) bool { return means[cities[i]] > means[cities[j]] })
	return cities, dates, cells
}

func temperatureHeatmap(records []weather.Record, _ Options) (*plot.Plot, error) {
	cities, dates, cells := pivotHistorical(records)
	if len(cities) == 0 {
		return nil, errNoInput
	}

	g := heatGrid{dates: dates, min: math.Inf(1), max: math.Inf(-1)}
	for i := len(cities) - 1; i >= 0; i-- {
		city := cities[i]
		row := make([]float64, len(dates))
		for c, d := range dates {
			v, ok := cells[city][d]
			if !ok {
				row[c] = math.NaN()
				continue
			}
			row[c] = v
			g.min = math.Min(g.min, v)
			g.max = math.Max(g.max, v)
		}
		g.cities = append(g.cities, city)
		g.z = append(g.z, row)
	}
	if g.max <= g.min {
		g.max = g.min + 1
	}

	heat := plotter.NewHeatMap(g, palette.Heat(12, 1))
	heat.NaN = color.Transparent

	p := plot.New()
	p.Title.Text = "Temperature Heatmap Across Cities Over Time"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "City"
	p.Add(heat)
	p.NominalY(g.cities...)
	p.X.Tick.Marker = sparseTicks(dates, maxDateLabels)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	return p, nil
}

// sparseTicks labels at most limit of the nominal positions.
func sparseTicks(labels []string, limit int) plot.ConstantTicks {
	step := 1
	if len(labels) > limit {
		step = (len(labels) + limit - 1) / limit
	}
	ticks := make(plot.ConstantTicks, len(labels))
	for i, l := range labels {
		ticks[i] = plot.Tick{Value: float64(i)}
		if i%step == 0 {
			ticks[i].Label = l
		}
	}
	return ticks
}

func windRose(records []weather.Record, _ Options) (*plot.Plot, error) {
	rose := newRose(records)
	if rose.total == 0 {
		return nil, errNoInput
	}

	p := plot.New()
	p.Title.Text = "Wind Direction Distribution"
	p.HideAxes()
	p.Add(rose)
	return p, nil
}

func firstCities(records []weather.Record, n int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if seen[r.City] {
			continue
		}
		seen[r.City] = true
		out = append(out, r.City)
		if len(out) == n {
			break
		}
	}
	return out
}
