package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-pulse/internal/common"
)

// DefaultCities is the tracked city list when WEATHER_CITIES is unset.
var DefaultCities = []string{
	"Mumbai", "Delhi", "Bangalore", "Hyderabad", "Chennai",
	"Kolkata", "Guwahati", "Pune", "Jaipur", "Agra",
	"Ahmedabad", "Nagpur", "Indore", "Bhubaneswar", "Panaji",
	"Visakhapatnam", "Patna", "Vadodara", "Shimla", "Amritsar",
}

// DefaultTrendCities are drawn on the temperature trend chart.
var DefaultTrendCities = []string{"Mumbai", "Delhi", "Bangalore", "Hyderabad", "Chennai"}

type AppConfig struct {
	DataDir     string `validate:"required"`
	DatasetName string `validate:"required"`

	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GoogleAPIKey      string

	// CurrentProvider selects the live conditions source.
	CurrentProvider string `validate:"oneof=openweather weatherapi"`
	// Geocoder selects the coordinate lookup backend used before archive queries.
	Geocoder         string `validate:"oneof=openweather google"`
	GeocodeCacheSize int    `validate:"gte=1"`

	Cities      []string `validate:"min=1,dive,required"`
	Country     string
	TrendCities []string

	HistoryDays  int           `validate:"gte=1,lte=365"`
	RequestDelay time.Duration `validate:"gte=0"`
	HTTPTimeout  time.Duration `validate:"gt=0"`
	MaxRetries   int           `validate:"gte=0,lte=10"`

	AnomalyThreshold  float64 `validate:"gt=0"`
	AnomalyMinSamples int     `validate:"gte=2"`

	// ScheduleTimes are daily wall-clock run times, e.g. 06:00 and 18:00.
	ScheduleTimes []string `validate:"min=1,dive,datetime=15:04"`

	// ET0AsHumidity copies archive evapotranspiration into the humidity column.
	ET0AsHumidity bool
	SnapshotGzip  bool
	SQLitePath    string

	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
// Callers load .env files beforehand.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		DataDir:           getenvDefault("DATA_DIR", "indian_weather_data"),
		DatasetName:       getenvDefault("DATASET_NAME", "IndianWeatherPulse"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHERAPI_API_KEY"),
		GoogleAPIKey:      os.Getenv("GOOGLE_GEOCODING_API_KEY"),
		CurrentProvider:   strings.ToLower(getenvDefault("CURRENT_PROVIDER", "openweather")),
		Geocoder:          strings.ToLower(getenvDefault("GEOCODER", "openweather")),
		Country:           getenvDefault("WEATHER_COUNTRY", "in"),
		Cities:            getenvList("WEATHER_CITIES", ",", DefaultCities),
		TrendCities:       getenvList("TREND_CITIES", ",", DefaultTrendCities),
		ScheduleTimes:     getenvList("SCHEDULE_TIMES", ";", []string{"06:00", "18:00"}),
		SQLitePath:        os.Getenv("SQLITE_PATH"),
		Port:              getenvDefault("PORT", "8080"),
		LogLevel:          strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getenvDefault("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.GeocodeCacheSize, err = getenvInt("GEOCODE_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.HistoryDays, err = getenvInt("HISTORY_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getenvInt("HTTP_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.AnomalyMinSamples, err = getenvInt("ANOMALY_MIN_SAMPLES", 5); err != nil {
		return nil, err
	}
	if cfg.RequestDelay, err = getenvDuration("REQUEST_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.AnomalyThreshold, err = getenvFloat("ANOMALY_THRESHOLD", 2.0); err != nil {
		return nil, err
	}
	if cfg.ET0AsHumidity, err = getenvBool("ET0_AS_HUMIDITY", false); err != nil {
		return nil, err
	}
	if cfg.SnapshotGzip, err = getenvBool("SNAPSHOT_GZIP", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field requirements.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: %q fails %q", envName(verrs[0].StructField()), fmt.Sprint(verrs[0].Value()), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Geocoder == "google" && c.GoogleAPIKey == "" {
		return errors.New("invalid GOOGLE_GEOCODING_API_KEY: required when GEOCODER=google")
	}
	return nil
}

var envNames = map[string]string{
	"DataDir":           "DATA_DIR",
	"DatasetName":       "DATASET_NAME",
	"CurrentProvider":   "CURRENT_PROVIDER",
	"Geocoder":          "GEOCODER",
	"GeocodeCacheSize":  "GEOCODE_CACHE_SIZE",
	"Cities":            "WEATHER_CITIES",
	"HistoryDays":       "HISTORY_DAYS",
	"RequestDelay":      "REQUEST_DELAY",
	"HTTPTimeout":       "HTTP_TIMEOUT",
	"MaxRetries":        "HTTP_MAX_RETRIES",
	"AnomalyThreshold":  "ANOMALY_THRESHOLD",
	"AnomalyMinSamples": "ANOMALY_MIN_SAMPLES",
	"ScheduleTimes":     "SCHEDULE_TIMES",
	"Port":              "PORT",
	"LogLevel":          "LOG_LEVEL",
	"LogFormat":         "LOG_FORMAT",
}

func envName(field string) string {
	// dive errors report "ScheduleTimes[0]"
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	if name, ok := envNames[field]; ok {
		return name
	}
	return field
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvList(key, sep string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), def...)
	}
	return common.SplitList(v, sep)
}
