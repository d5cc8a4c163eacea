package httpapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-pulse/internal/analysis"
	"github.com/i474232898/weather-pulse/internal/weather"
)

var validate = validator.New()

// Reader is the read side of the weather service used by the handlers.
type Reader interface {
	Records() []weather.Record
	Cities() []string
	GetLatest(city string) (weather.Record, error)
	GetRange(city string, from, to time.Time) ([]weather.Record, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, reader Reader, anomalies analysis.Options) {
	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cities := reader.Cities()
		return c.JSON(fiber.Map{
			"cities": cities,
			"count":  len(cities),
		})
	})

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		record, err := reader.GetLatest(q.City)
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(record)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := reader.GetRange(req.City.City, req.From, req.To)
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}
		if records == nil {
			records = []weather.Record{}
		}

		return c.JSON(fiber.Map{
			"city":    req.City.City,
			"from":    optionalTime(req.From),
			"to":      optionalTime(req.To),
			"count":   len(records),
			"records": records,
		})
	})

	v1.Get("/stats", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		stats, err := analysis.StatsForCity(reader.Records(), q.City)
		if err != nil {
			return analysisError(err)
		}
		return c.JSON(stats)
	})

	v1.Get("/anomalies", func(c *fiber.Ctx) error {
		q := anomalyQuery{Threshold: anomalies.Threshold}
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "threshold must be a number")
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		opts := anomalies
		opts.Threshold = q.Threshold
		found := analysis.DetectAnomalies(reader.Records(), opts)
		if found == nil {
			found = []analysis.Anomaly{}
		}

		return c.JSON(fiber.Map{
			"threshold":   opts.Threshold,
			"min_samples": opts.MinSamples,
			"count":       len(found),
			"anomalies":   found,
		})
	})

	v1.Get("/compare", func(c *fiber.Ctx) error {
		var q compareQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if strings.EqualFold(strings.TrimSpace(q.City1), strings.TrimSpace(q.City2)) {
			return fiber.NewError(fiber.StatusBadRequest, "city1 and city2 must differ")
		}

		cmp, err := analysis.CompareCities(reader.Records(), q.City1, q.City2)
		if err != nil {
			return analysisError(err)
		}
		return c.JSON(cmp)
	})

	v1.Get("/seasonal", func(c *fiber.Ctx) error {
		patterns, err := analysis.SeasonalPatterns(reader.Records(), c.Query("city"))
		if err != nil {
			return analysisError(err)
		}
		return c.JSON(fiber.Map{
			"patterns": patterns,
		})
	})
}

func analysisError(err error) error {
	switch {
	case errors.Is(err, analysis.ErrNoData):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrNoOverlap):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to analyse weather data")
	}
}

// cityQuery holds the query parameter identifying a city.
type cityQuery struct {
	City string `query:"city" validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{City: c.Query("city")}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

type anomalyQuery struct {
	Threshold float64 `query:"threshold" validate:"gte=0"`
}

type compareQuery struct {
	City1 string `query:"city1" validate:"required"`
	City2 string `query:"city2" validate:"required,nefield=City1"`
}

// historyQuery holds query parameters for the history endpoint. Both bounds
// are optional and inclusive.
type historyQuery struct {
	City cityQuery
	From time.Time
	To   time.Time `validate:"omitempty,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseCityQuery(c)
	if err != nil {
		return err
	}
	h.City = q

	if s := c.Query("from"); s != "" {
		if h.From, _, err = parseTime(s); err != nil {
			return err
		}
	}
	if s := c.Query("to"); s != "" {
		var dateOnly bool
		if h.To, dateOnly, err = parseTime(s); err != nil {
			return err
		}
		if dateOnly {
			// A bare date includes the whole day.
			h.To = h.To.AddDate(0, 0, 1).Add(-time.Second)
		}
	}
	return nil
}

// parseTime accepts RFC3339, YYYY-MM-DD or Unix seconds and returns a naive
// wall-clock time comparable with stored timestamps, reporting whether the
// input was a bare date. RFC3339 keeps the wall clock as written and drops the
// offset. Unix seconds are read in the server's local zone, the zone the
// collector stamps observations in.
func parseTime(s string) (time.Time, bool, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return weather.Naive(ts), false, nil
	}
	if ts, err := time.Parse(weather.HistoricalLayout, s); err == nil {
		return ts, true, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return weather.Naive(time.Unix(unix, 0)), false, nil
	}
	return time.Time{}, false, errors.New("invalid time format; use RFC3339, YYYY-MM-DD or unix seconds")
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
