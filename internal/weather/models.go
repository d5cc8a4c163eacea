package weather

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Condition mirrors the OpenWeather "main" weather groups.
type Condition string

const (
	ConditionUnknown      Condition = ""
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionRain         Condition = "Rain"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionSnow         Condition = "Snow"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionMist         Condition = "Mist"
	ConditionHaze         Condition = "Haze"
)

// Kind tells whether a record is a live observation or a daily archive aggregate.
type Kind string

const (
	KindCurrent    Kind = "current"
	KindHistorical Kind = "historical"
)

// Timestamp layouts used in the master table. Historical records are daily.
const (
	CurrentLayout    = "2006-01-02 15:04:05"
	HistoricalLayout = "2006-01-02"
)

var (
	// ErrUnavailable covers transport failures, timeouts and open circuits.
	ErrUnavailable = errors.New("weather source unavailable")
	// ErrBadStatus is returned when a source answers with a non-success status.
	ErrBadStatus = errors.New("weather source returned an error status")
	// ErrMalformed is returned when a response body cannot be decoded.
	ErrMalformed = errors.New("malformed weather response")
	// ErrLocationNotFound is returned when geocoding yields no match.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNotFound is returned when no data is available for a given city.
	ErrNotFound = errors.New("no weather data for city")
)

// Location represents a logical place for which we track weather.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Key returns a canonical string key for indexing this location in caches.
func (l Location) Key() string {
	return strings.ToLower(l.City) + ":" + strings.ToLower(l.Country)
}

// Query renders the "city,country" form understood by OpenWeather and WeatherAPI.
func (l Location) Query() string {
	if l.Country == "" {
		return l.City
	}
	return fmt.Sprintf("%s,%s", l.City, l.Country)
}

// Coordinates is a resolved geographic position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Record is one row of the master table.
type Record struct {
	City      string    `json:"city"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"data_type"`

	Temperature    float64  `json:"temperature"`
	FeelsLike      float64  `json:"feels_like"`
	TemperatureMax *float64 `json:"temperature_max,omitempty"`
	TemperatureMin *float64 `json:"temperature_min,omitempty"`

	Humidity *float64 `json:"humidity,omitempty"`
	Pressure *float64 `json:"pressure,omitempty"`

	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`

	Precipitation      *float64 `json:"precipitation,omitempty"`
	Evapotranspiration *float64 `json:"evapotranspiration,omitempty"`
	Clouds             *float64 `json:"clouds,omitempty"`
	VisibilityKm       *float64 `json:"visibility,omitempty"`

	Condition   Condition `json:"weather_condition,omitempty"`
	Description string    `json:"weather_description,omitempty"`
}

// TimestampString renders the timestamp in the layout matching the record kind.
func (r Record) TimestampString() string {
	if r.Kind == KindHistorical {
		return r.Timestamp.Format(HistoricalLayout)
	}
	return r.Timestamp.Format(CurrentLayout)
}

// Key is the de-duplication key of the master table.
func (r Record) Key() string {
	return r.City + "|" + r.TimestampString()
}

// Date returns the calendar day of the record.
func (r Record) Date() time.Time {
	return time.Date(r.Timestamp.Year(), r.Timestamp.Month(), r.Timestamp.Day(), 0, 0, 0, 0, time.UTC)
}

// Naive drops the zone of t, keeping its wall clock, and truncates to seconds.
// Timestamps in the master table are naive wall-clock values held in UTC.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// ParseTimestamp accepts both master table layouts and RFC3339.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{CurrentLayout, HistoricalLayout, "2006-01-02T15:04:05", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return Naive(ts), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// Float returns a pointer to v for the optional record fields.
func Float(v float64) *float64 {
	return &v
}
