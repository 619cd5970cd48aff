package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchema []byte

// ErrInvalidSchema is returned when a schema document fails validation.
var ErrInvalidSchema = errors.New("invalid schema")

// Schema maps source databases and tables to the cleaning and transformation policies
// applied to them.
type Schema struct {
	Databases []Database `yaml:"databases"`
	Clean     Clean      `yaml:"clean"`
	Transform Transform  `yaml:"transform"`
}

// Database is one source SQLite file and the tables kept from it.
type Database struct {
	Name   string   `yaml:"name"`
	File   string   `yaml:"file"`
	Tables []string `yaml:"tables"`
}

// Key returns the snapshot key of a table in this database.
func (d Database) Key(table string) string {
	return d.Name + "_" + table
}

// DuplicatePair names two snapshots expected to be identical.
type DuplicatePair struct {
	Keep string `yaml:"keep"`
	Drop string `yaml:"drop"`
}

// TimeOffset describes the fixed offset check between monitoring sources.
type TimeOffset struct {
	Reference string        `yaml:"reference"`
	Others    []string      `yaml:"others"`
	Column    string        `yaml:"column"`
	Expected  time.Duration `yaml:"expected"`
}

// Clean holds the cleaning stage policies.
type Clean struct {
	Duplicates       []DuplicatePair     `yaml:"duplicates"`
	Cutoff           string              `yaml:"cutoff"`
	DayColumns       map[string]string   `yaml:"day_columns"`
	TimestampColumns map[string]string   `yaml:"timestamp_columns"`
	DatetimeFormat   string              `yaml:"datetime_format"`
	DatetimeColumns  map[string][]string `yaml:"datetime_columns"`
	DurationColumns  map[string][]string `yaml:"duration_columns"`
	DropColumns      map[string][]string `yaml:"drop_columns"`
	TimeOffset       TimeOffset          `yaml:"time_offset"`
	SortByDay        []string            `yaml:"sort_by_day"`
}

// CutoffTime parses the cutoff date.
func (c Clean) CutoffTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.Cutoff)
}

// Signal is one monitoring source merged on the minute grid.
type Signal struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// Monitoring configures the minute-level merge.
type Monitoring struct {
	Key                string            `yaml:"key"`
	Stress             Signal            `yaml:"stress"`
	HeartRate          Signal            `yaml:"heart_rate"`
	Respiration        Signal            `yaml:"respiration"`
	InterpolationLimit int               `yaml:"interpolation_limit"`
	OneDecimal         []string          `yaml:"one_decimal"`
	Output             []string          `yaml:"output"`
	Rename             map[string]string `yaml:"rename"`
}

// Signals returns the three monitoring signals in merge order.
func (m Monitoring) Signals() []Signal {
	return []Signal{m.Stress, m.HeartRate, m.Respiration}
}

// Activities configures activity tagging and the running rollup.
type Activities struct {
	Table         string            `yaml:"table"`
	ID            string            `yaml:"id"`
	Start         string            `yaml:"start"`
	Stop          string            `yaml:"stop"`
	Sport         string            `yaml:"sport"`
	Running       string            `yaml:"running"`
	RunningDrop   []string          `yaml:"running_drop"`
	ChildTables   map[string]string `yaml:"child_tables"`
	Calories      string            `yaml:"calories"`
	Distance      string            `yaml:"distance"`
	RoundSeconds  []string          `yaml:"round_seconds"`
	DailyReplaced []string          `yaml:"daily_replaced"`
}

// DailySource is one day-keyed table and the columns removed before merging.
type DailySource struct {
	Table string   `yaml:"table"`
	Drop  []string `yaml:"drop"`
}

// Sufficiency configures the removal of days with too little data.
type Sufficiency struct {
	Threshold     float64  `yaml:"threshold"`
	MinutesPerDay int      `yaml:"minutes_per_day"`
	Essential     []string `yaml:"essential"`
}

// Resample configures the weekly and monthly aggregation.
type Resample struct {
	SumColumns   []string `yaml:"sum_columns"`
	MinWeekDays  int      `yaml:"min_week_days"`
	MinMonthDays int      `yaml:"min_month_days"`
}

// Rounding lists the columns rounded for display.
type Rounding struct {
	OneDecimal []string `yaml:"one_decimal"`
	Integer    []string `yaml:"integer"`
	Seconds    []string `yaml:"seconds"`
}

// Daily configures the day-level merge.
type Daily struct {
	Key        string        `yaml:"key"`
	Sources    []DailySource `yaml:"sources"`
	Suffixes   [2]string     `yaml:"suffixes"`
	NightShift []string      `yaml:"night_shift"`
	SleepStart string        `yaml:"sleep_start"`
	SleepEnd   string        `yaml:"sleep_end"`
}

// Output lists final column orders and renames.
type Output struct {
	Days   []string          `yaml:"days"`
	Bucket []string          `yaml:"bucket"`
	Rename map[string]string `yaml:"rename"`
}

// Transform holds the transformation stage policies.
type Transform struct {
	Monitoring  Monitoring  `yaml:"monitoring"`
	Activities  Activities  `yaml:"activities"`
	Daily       Daily       `yaml:"daily"`
	Sufficiency Sufficiency `yaml:"sufficiency"`
	Resample    Resample    `yaml:"resample"`
	Rounding    Rounding    `yaml:"rounding"`
	Output      Output      `yaml:"output"`
}

// DefaultSchema returns the embedded schema.
func DefaultSchema() (*Schema, error) {
	return ParseSchema(defaultSchema)
}

// DefaultSchemaYAML returns the embedded schema document.
func DefaultSchemaYAML() []byte {
	out := make([]byte, len(defaultSchema))
	copy(out, defaultSchema)
	return out
}

// LoadSchema reads a schema file, falling back to the embedded one when path is empty.
func LoadSchema(path string) (*Schema, error) {
	if path == "" {
		return DefaultSchema()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and validates a schema document.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the fields every stage relies on.
func (s *Schema) Validate() error {
	if len(s.Databases) == 0 {
		return fmt.Errorf("%w: no databases", ErrInvalidSchema)
	}
	for _, db := range s.Databases {
		if db.Name == "" || db.File == "" {
			return fmt.Errorf("%w: database needs name and file", ErrInvalidSchema)
		}
	}
	if _, err := s.Clean.CutoffTime(); err != nil {
		return fmt.Errorf("%w: cutoff %q: %v", ErrInvalidSchema, s.Clean.Cutoff, err)
	}
	m := s.Transform.Monitoring
	for _, sig := range m.Signals() {
		if sig.Table == "" || sig.Column == "" {
			return fmt.Errorf("%w: monitoring signals need table and column", ErrInvalidSchema)
		}
	}
	if m.InterpolationLimit < 0 {
		return fmt.Errorf("%w: interpolation_limit must be >= 0", ErrInvalidSchema)
	}
	if len(s.Transform.Daily.Sources) == 0 {
		return fmt.Errorf("%w: no daily sources", ErrInvalidSchema)
	}
	suf := s.Transform.Sufficiency
	if suf.Threshold < 0 || suf.Threshold > 1 {
		return fmt.Errorf("%w: sufficiency threshold %v outside [0,1]", ErrInvalidSchema, suf.Threshold)
	}
	if suf.MinutesPerDay <= 0 {
		return fmt.Errorf("%w: minutes_per_day must be positive", ErrInvalidSchema)
	}
	r := s.Transform.Resample
	if r.MinWeekDays < 0 || r.MinWeekDays > 7 || r.MinMonthDays < 0 || r.MinMonthDays > 31 {
		return fmt.Errorf("%w: resample day thresholds out of range", ErrInvalidSchema)
	}
	return nil
}
