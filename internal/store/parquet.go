package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/i474232898/weather-pulse/internal/weather"
)

// parquetRow matches the Parquet schema of an exported table.
type parquetRow struct {
	City               string   `parquet:"city"`
	Timestamp          string   `parquet:"timestamp"`
	DataType           string   `parquet:"data_type"`
	Temperature        float64  `parquet:"temperature"`
	FeelsLike          float64  `parquet:"feels_like"`
	TemperatureMax     *float64 `parquet:"temperature_max"`
	TemperatureMin     *float64 `parquet:"temperature_min"`
	Humidity           *float64 `parquet:"humidity"`
	Pressure           *float64 `parquet:"pressure"`
	WindSpeed          float64  `parquet:"wind_speed"`
	WindDirection      float64  `parquet:"wind_direction"`
	Precipitation      *float64 `parquet:"precipitation"`
	Evapotranspiration *float64 `parquet:"evapotranspiration"`
	Clouds             *float64 `parquet:"clouds"`
	Visibility         *float64 `parquet:"visibility"`
	WeatherCondition   string   `parquet:"weather_condition"`
	WeatherDescription string   `parquet:"weather_description"`
}

// ExportParquet writes records to a Parquet file at path.
func ExportParquet(path string, records []weather.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	rows := make([]parquetRow, len(records))
	for i, r := range records {
		rows[i] = parquetRow{
			City:               r.City,
			Timestamp:          r.TimestampString(),
			DataType:           string(r.Kind),
			Temperature:        r.Temperature,
			FeelsLike:          r.FeelsLike,
			TemperatureMax:     r.TemperatureMax,
			TemperatureMin:     r.TemperatureMin,
			Humidity:           r.Humidity,
			Pressure:           r.Pressure,
			WindSpeed:          r.WindSpeed,
			WindDirection:      r.WindDirection,
			Precipitation:      r.Precipitation,
			Evapotranspiration: r.Evapotranspiration,
			Clouds:             r.Clouds,
			Visibility:         r.VisibilityKm,
			WeatherCondition:   string(r.Condition),
			WeatherDescription: r.Description,
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

// ReadParquet loads a file written by ExportParquet.
func ReadParquet(path string) ([]weather.Record, error) {
	rows, err := parquet.ReadFile[parquetRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}

	records := make([]weather.Record, 0, len(rows))
	for _, row := range rows {
		ts, err := weather.ParseTimestamp(row.Timestamp)
		if err != nil {
			return nil, err
		}
		records = append(records, weather.Record{
			City:               row.City,
			Timestamp:          ts,
			Kind:               weather.Kind(row.DataType),
			Temperature:        row.Temperature,
			FeelsLike:          row.FeelsLike,
			TemperatureMax:     row.TemperatureMax,
			TemperatureMin:     row.TemperatureMin,
			Humidity:           row.Humidity,
			Pressure:           row.Pressure,
			WindSpeed:          row.WindSpeed,
			WindDirection:      row.WindDirection,
			Precipitation:      row.Precipitation,
			Evapotranspiration: row.Evapotranspiration,
			Clouds:             row.Clouds,
			VisibilityKm:       row.Visibility,
			Condition:          weather.Condition(row.WeatherCondition),
			Description:        row.WeatherDescription,
		})
	}
	return records, nil
}
