package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-pulse/internal/weather"
)

// SQLiteMirror keeps a queryable copy of the master table keyed by (city, timestamp).
type SQLiteMirror struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteMirror, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	m := &SQLiteMirror{db: db}
	if err := m.init(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *SQLiteMirror) init() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS weather (
			city                TEXT NOT NULL,
			timestamp           TEXT NOT NULL,
			data_type           TEXT NOT NULL,
			temperature         REAL NOT NULL,
			feels_like          REAL NOT NULL,
			temperature_max     REAL,
			temperature_min     REAL,
			humidity            REAL,
			pressure            REAL,
			wind_speed          REAL NOT NULL,
			wind_direction      REAL NOT NULL,
			precipitation       REAL,
			evapotranspiration  REAL,
			clouds              REAL,
			visibility          REAL,
			weather_condition   TEXT NOT NULL DEFAULT '',
			weather_description TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (city, timestamp)
		);
		CREATE INDEX IF NOT EXISTS idx_weather_city ON weather(city);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (m *SQLiteMirror) Close() error {
	return m.db.Close()
}

// Upsert writes records, replacing rows with the same city and timestamp.
func (m *SQLiteMirror) Upsert(ctx context.Context, records []weather.Record) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO weather (city, timestamp, data_type, temperature, feels_like,
			temperature_max, temperature_min, humidity, pressure, wind_speed, wind_direction,
			precipitation, evapotranspiration, clouds, visibility, weather_condition, weather_description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city, timestamp) DO UPDATE SET
			data_type = excluded.data_type,
			temperature = excluded.temperature,
			feels_like = excluded.feels_like,
			temperature_max = excluded.temperature_max,
			temperature_min = excluded.temperature_min,
			humidity = excluded.humidity,
			pressure = excluded.pressure,
			wind_speed = excluded.wind_speed,
			wind_direction = excluded.wind_direction,
			precipitation = excluded.precipitation,
			evapotranspiration = excluded.evapotranspiration,
			clouds = excluded.clouds,
			visibility = excluded.visibility,
			weather_condition = excluded.weather_condition,
			weather_description = excluded.weather_description
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.City, r.TimestampString(), string(r.Kind), r.Temperature, r.FeelsLike,
			nullable(r.TemperatureMax), nullable(r.TemperatureMin), nullable(r.Humidity), nullable(r.Pressure),
			r.WindSpeed, r.WindDirection,
			nullable(r.Precipitation), nullable(r.Evapotranspiration), nullable(r.Clouds), nullable(r.VisibilityKm),
			string(r.Condition), r.Description,
		)
		if err != nil {
			return fmt.Errorf("upserting %s: %w", r.Key(), err)
		}
	}

	return tx.Commit()
}

// Count returns the number of mirrored rows.
func (m *SQLiteMirror) Count(ctx context.Context) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM weather").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Records returns the rows of one city ordered by timestamp, or every row when city is empty.
func (m *SQLiteMirror) Records(ctx context.Context, city string) ([]weather.Record, error) {
	query := `SELECT city, timestamp, data_type, temperature, feels_like,
		temperature_max, temperature_min, humidity, pressure, wind_speed, wind_direction,
		precipitation, evapotranspiration, clouds, visibility, weather_condition, weather_description
		FROM weather`
	var args []any
	if city != "" {
		query += " WHERE city = ?"
		args = append(args, city)
	}
	query += " ORDER BY city, timestamp"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []weather.Record
	for rows.Next() {
		var (
			r                                     weather.Record
			ts, kind, condition                   string
			tmax, tmin, hum, pres, prec, et0, cld sql.NullFloat64
			vis                                   sql.NullFloat64
		)
		if err := rows.Scan(&r.City, &ts, &kind, &r.Temperature, &r.FeelsLike,
			&tmax, &tmin, &hum, &pres, &r.WindSpeed, &r.WindDirection,
			&prec, &et0, &cld, &vis, &condition, &r.Description); err != nil {
			return nil, err
		}
		if r.Timestamp, err = weather.ParseTimestamp(ts); err != nil {
			return nil, err
		}
		r.Kind = weather.Kind(kind)
		r.Condition = weather.Condition(condition)
		r.TemperatureMax = fromNull(tmax)
		r.TemperatureMin = fromNull(tmin)
		r.Humidity = fromNull(hum)
		r.Pressure = fromNull(pres)
		r.Precipitation = fromNull(prec)
		r.Evapotranspiration = fromNull(et0)
		r.Clouds = fromNull(cld)
		r.VisibilityKm = fromNull(vis)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return weather.Float(v.Float64)
}
