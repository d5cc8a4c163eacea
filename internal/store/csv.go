package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/pgzip"

	"github.com/i474232898/weather-pulse/internal/weather"
)

// Columns is the fixed column order of master and snapshot files.
var Columns = []string{
	"city", "timestamp", "data_type",
	"temperature", "feels_like", "temperature_max", "temperature_min",
	"humidity", "pressure", "wind_speed", "wind_direction",
	"precipitation", "evapotranspiration", "clouds", "visibility",
	"weather_condition", "weather_description",
}

// CSVStore keeps the master table and per-run snapshots as CSV files in one directory.
type CSVStore struct {
	dir           string
	dataset       string
	gzipSnapshots bool
}

func NewCSVStore(dir, dataset string, gzipSnapshots bool) *CSVStore {
	return &CSVStore{dir: dir, dataset: dataset, gzipSnapshots: gzipSnapshots}
}

// MasterPath is the location of the cumulative table.
func (s *CSVStore) MasterPath() string {
	return filepath.Join(s.dir, s.dataset+"_Master.csv")
}

// SnapshotPath is the location of the snapshot written at the given time.
func (s *CSVStore) SnapshotPath(at time.Time) string {
	name := fmt.Sprintf("%s_%s.csv", s.dataset, at.Format("20060102_150405"))
	if s.gzipSnapshots {
		name += ".gz"
	}
	return filepath.Join(s.dir, name)
}

// Load reads the master table. A missing file is an empty table.
func (s *CSVStore) Load() ([]weather.Record, error) {
	f, err := os.Open(s.MasterPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open master: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.MasterPath(), err)
	}
	return records, nil
}

// Save rewrites the master table in full. The new content is written to a
// temporary file and renamed over the old one.
func (s *CSVStore) Save(records []weather.Record) error {
	return writeAtomic(s.MasterPath(), func(w io.Writer) error {
		return WriteCSV(w, records)
	})
}

// WriteSnapshot writes the records of one run and returns the file path.
func (s *CSVStore) WriteSnapshot(at time.Time, records []weather.Record) (string, error) {
	path := s.SnapshotPath(at)
	err := writeAtomic(path, func(w io.Writer) error {
		if !s.gzipSnapshots {
			return WriteCSV(w, records)
		}
		zw := pgzip.NewWriter(w)
		if err := WriteCSV(zw, records); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// ReadFile reads a master or snapshot file, transparently decompressing .gz files.
func ReadFile(path string) ([]weather.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	return ReadCSV(r)
}

func writeAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// WriteCSV writes the header and one row per record. Absent values are empty cells.
func WriteCSV(w io.Writer, records []weather.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.City,
			r.TimestampString(),
			string(r.Kind),
			formatFloat(r.Temperature),
			formatFloat(r.FeelsLike),
			formatOptional(r.TemperatureMax),
			formatOptional(r.TemperatureMin),
			formatOptional(r.Humidity),
			formatOptional(r.Pressure),
			formatFloat(r.WindSpeed),
			formatFloat(r.WindDirection),
			formatOptional(r.Precipitation),
			formatOptional(r.Evapotranspiration),
			formatOptional(r.Clouds),
			formatOptional(r.VisibilityKm),
			string(r.Condition),
			r.Description,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. Columns are matched by header
// name: unknown columns are ignored and missing optional ones load as absent.
// Rows without a data_type are classified by their timestamp layout.
func ReadCSV(r io.Reader) ([]weather.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"city", "timestamp", "temperature"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var records []weather.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(idx, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(idx map[string]int, row []string) (weather.Record, error) {
	cell := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rawTS := cell("timestamp")
	ts, err := weather.ParseTimestamp(rawTS)
	if err != nil {
		return weather.Record{}, err
	}

	rec := weather.Record{
		City:        cell("city"),
		Timestamp:   ts,
		Kind:        weather.Kind(cell("data_type")),
		Condition:   weather.Condition(cell("weather_condition")),
		Description: cell("weather_description"),
	}
	if rec.Kind == "" {
		rec.Kind = weather.KindCurrent
		if len(rawTS) == len(weather.HistoricalLayout) {
			rec.Kind = weather.KindHistorical
		}
	}

	required := []struct {
		name string
		dst  *float64
	}{
		{"temperature", &rec.Temperature},
		{"feels_like", &rec.FeelsLike},
		{"wind_speed", &rec.WindSpeed},
		{"wind_direction", &rec.WindDirection},
	}
	for _, f := range required {
		v, err := parseOptional(cell(f.name))
		if err != nil {
			return weather.Record{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if v == nil {
			if f.name == "temperature" {
				return weather.Record{}, errors.New("temperature is empty")
			}
			continue
		}
		*f.dst = *v
	}

	optional := []struct {
		name string
		dst  **float64
	}{
		{"temperature_max", &rec.TemperatureMax},
		{"temperature_min", &rec.TemperatureMin},
		{"humidity", &rec.Humidity},
		{"pressure", &rec.Pressure},
		{"precipitation", &rec.Precipitation},
		{"evapotranspiration", &rec.Evapotranspiration},
		{"clouds", &rec.Clouds},
		{"visibility", &rec.VisibilityKm},
	}
	for _, f := range optional {
		v, err := parseOptional(cell(f.name))
		if err != nil {
			return weather.Record{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return rec, nil
}

func parseOptional(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
