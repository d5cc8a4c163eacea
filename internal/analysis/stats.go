package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/weather-pulse/internal/weather"
)

var (
	// ErrNoData is returned when a city has no rows in the table.
	ErrNoData = errors.New("no data for city")
	// ErrNoOverlap is returned when two cities share no calendar day.
	ErrNoOverlap = errors.New("no overlapping dates")
)

const (
	colCity          = "city"
	colTimestamp     = "timestamp"
	colDate          = "date"
	colSeason        = "season"
	colTemperature   = "temperature"
	colHumidity      = "humidity"
	colWindSpeed     = "wind_speed"
	colPrecipitation = "precipitation"
)

// Seasons in reporting order (Northern Hemisphere).
var Seasons = []string{"Winter", "Spring", "Summer", "Autumn"}

// Season maps a month to its meteorological season.
func Season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Autumn"
	}
}

// CityStats summarises every record of one city.
type CityStats struct {
	City           string    `json:"city"`
	AvgTemperature float64   `json:"avg_temperature"`
	MinTemperature float64   `json:"min_temperature"`
	MaxTemperature float64   `json:"max_temperature"`
	AvgHumidity    *float64  `json:"avg_humidity"`
	AvgWindSpeed   float64   `json:"avg_wind_speed"`
	DataStart      time.Time `json:"data_start_date"`
	DataEnd        time.Time `json:"data_end_date"`
	TotalRecords   int       `json:"total_records"`
}

// Comparison contrasts two cities over the calendar days both have data for.
// Differences are city1 minus city2.
type Comparison struct {
	City1            string   `json:"city1"`
	City2            string   `json:"city2"`
	AvgTempDiff      float64  `json:"avg_temp_diff"`
	AvgHumidityDiff  *float64 `json:"avg_humidity_diff"`
	AvgWindDiff      float64  `json:"avg_wind_diff"`
	Correlation      *float64 `json:"correlation"`
	CommonDatesCount int      `json:"common_dates_count"`
}

// SeasonalPattern holds per-season means for one city.
type SeasonalPattern struct {
	City          string   `json:"city"`
	Season        string   `json:"season"`
	Temperature   float64  `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	WindSpeed     float64  `json:"wind_speed"`
	Precipitation *float64 `json:"precipitation"`
	Records       int      `json:"records"`
}

// Frame converts records into a dataframe. Absent optional values become NaN.
func Frame(records []weather.Record) dataframe.DataFrame {
	n := len(records)
	var (
		cities     = make([]string, n)
		timestamps = make([]string, n)
		dates      = make([]string, n)
		seasons    = make([]string, n)
		temps      = make([]float64, n)
		humidity   = make([]float64, n)
		wind       = make([]float64, n)
		precip     = make([]float64, n)
	)
	for i, r := range records {
		cities[i] = r.City
		timestamps[i] = r.Timestamp.Format(weather.CurrentLayout)
		dates[i] = r.Timestamp.Format(weather.HistoricalLayout)
		seasons[i] = Season(r.Timestamp.Month())
		temps[i] = r.Temperature
		humidity[i] = orNaN(r.Humidity)
		wind[i] = r.WindSpeed
		precip[i] = orNaN(r.Precipitation)
	}
	return dataframe.New(
		series.New(cities, series.String, colCity),
		series.New(timestamps, series.String, colTimestamp),
		series.New(dates, series.String, colDate),
		series.New(seasons, series.String, colSeason),
		series.New(temps, series.Float, colTemperature),
		series.New(humidity, series.Float, colHumidity),
		series.New(wind, series.Float, colWindSpeed),
		series.New(precip, series.Float, colPrecipitation),
	)
}

func filterEq(df dataframe.DataFrame, col string, value any) dataframe.DataFrame {
	return df.Filter(dataframe.F{Colname: col, Comparator: series.Eq, Comparando: value})
}

// filterCity keeps the rows of one city. It compares element text because
// gota reads the string "NaN" as a missing value, which series.Eq never matches.
func filterCity(df dataframe.DataFrame, city string) dataframe.DataFrame {
	return df.Filter(dataframe.F{
		Colname:    colCity,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool { return el.String() == city },
	})
}

// resolveCity returns the stored spelling of a city, ignoring case and
// surrounding spaces.
func resolveCity(records []weather.Record, city string) (string, bool) {
	want := strings.TrimSpace(city)
	for _, r := range records {
		if r.City == want {
			return r.City, true
		}
	}
	for _, r := range records {
		if strings.EqualFold(strings.TrimSpace(r.City), want) {
			return r.City, true
		}
	}
	return "", false
}

func cityFrame(records []weather.Record, city string) (dataframe.DataFrame, string, error) {
	name, ok := resolveCity(records, city)
	if !ok {
		return dataframe.DataFrame{}, city, fmt.Errorf("%s: %w", city, ErrNoData)
	}
	df := filterCity(Frame(records), name)
	if df.Err != nil {
		return df, name, fmt.Errorf("filter %s: %w", name, df.Err)
	}
	if df.Nrow() == 0 {
		return df, name, fmt.Errorf("%s: %w", name, ErrNoData)
	}
	return df, name, nil
}

// StatsForCity computes the summary of one city.
func StatsForCity(records []weather.Record, city string) (CityStats, error) {
	df, city, err := cityFrame(records, city)
	if err != nil {
		return CityStats{}, err
	}

	temps := df.Col(colTemperature)
	stamps := df.Col(colTimestamp).Records()
	sort.Strings(stamps)
	start, _ := weather.ParseTimestamp(stamps[0])
	end, _ := weather.ParseTimestamp(stamps[len(stamps)-1])

	return CityStats{
		City:           city,
		AvgTemperature: temps.Mean(),
		MinTemperature: temps.Min(),
		MaxTemperature: temps.Max(),
		AvgHumidity:    nanMean(df.Col(colHumidity)),
		AvgWindSpeed:   df.Col(colWindSpeed).Mean(),
		DataStart:      start,
		DataEnd:        end,
		TotalRecords:   df.Nrow(),
	}, nil
}

// CompareCities contrasts two cities over their common calendar days. The
// correlation pairs daily mean temperatures and is nil when fewer than two
// days overlap or either series is constant.
func CompareCities(records []weather.Record, city1, city2 string) (Comparison, error) {
	df1, city1, err := cityFrame(records, city1)
	if err != nil {
		return Comparison{}, err
	}
	df2, city2, err := cityFrame(records, city2)
	if err != nil {
		return Comparison{}, err
	}

	common := intersect(df1.Col(colDate).Records(), df2.Col(colDate).Records())
	if len(common) == 0 {
		return Comparison{}, fmt.Errorf("%s and %s: %w", city1, city2, ErrNoOverlap)
	}

	in := dataframe.F{Colname: colDate, Comparator: series.In, Comparando: common}
	df1, df2 = df1.Filter(in), df2.Filter(in)

	cmp := Comparison{
		City1:            city1,
		City2:            city2,
		AvgTempDiff:      df1.Col(colTemperature).Mean() - df2.Col(colTemperature).Mean(),
		AvgWindDiff:      df1.Col(colWindSpeed).Mean() - df2.Col(colWindSpeed).Mean(),
		CommonDatesCount: len(common),
	}
	if h1, h2 := nanMean(df1.Col(colHumidity)), nanMean(df2.Col(colHumidity)); h1 != nil && h2 != nil {
		cmp.AvgHumidityDiff = weather.Float(*h1 - *h2)
	}

	x, y := dailyMeans(df1, common), dailyMeans(df2, common)
	if len(common) >= 2 {
		if r := stat.Correlation(x, y, nil); !math.IsNaN(r) && !math.IsInf(r, 0) {
			cmp.Correlation = weather.Float(r)
		}
	}
	return cmp, nil
}

// SeasonalPatterns returns per-city, per-season means. An empty city selects
// every city, listed in order of first appearance.
func SeasonalPatterns(records []weather.Record, city string) ([]SeasonalPattern, error) {
	var cities []string
	if city != "" {
		_, name, err := cityFrame(records, city)
		if err != nil {
			return nil, err
		}
		cities = []string{name}
	} else {
		if len(records) == 0 {
			return nil, ErrNoData
		}
		cities, _ = groupByCity(records)
	}

	df := Frame(records)
	var out []SeasonalPattern
	for _, c := range cities {
		byCity := filterCity(df, c)
		for _, season := range Seasons {
			group := filterEq(byCity, colSeason, season)
			if group.Nrow() == 0 {
				continue
			}
			out = append(out, SeasonalPattern{
				City:          c,
				Season:        season,
				Temperature:   group.Col(colTemperature).Mean(),
				Humidity:      nanMean(group.Col(colHumidity)),
				WindSpeed:     group.Col(colWindSpeed).Mean(),
				Precipitation: nanMean(group.Col(colPrecipitation)),
				Records:       group.Nrow(),
			})
		}
	}
	return out, nil
}

func dailyMeans(df dataframe.DataFrame, days []string) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = filterEq(df, colDate, d).Col(colTemperature).Mean()
	}
	return out
}

// nanMean averages the non-NaN values of s, nil when there are none.
func nanMean(s series.Series) *float64 {
	var sum float64
	var n int
	for _, v := range s.Float() {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return nil
	}
	return weather.Float(sum / float64(n))
}

func intersect(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range a {
		if inB[v] && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
