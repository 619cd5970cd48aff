package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// writeCSV writes a header row and one row per frame row. The first column is the
// row index; nulls are empty cells.
func writeCSV(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	cols := f.Series()

	header := make([]string, 0, len(cols)+1)
	header = append(header, "")
	for _, c := range cols {
		header = append(header, c.Name())
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(cols)+1)
	for i := 0; i < f.Len(); i++ {
		record[0] = strconv.Itoa(i)
		for j, c := range cols {
			record[j+1] = formatCell(c.At(i))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case time.Time:
		if x.Nanosecond() != 0 {
			return x.Format(csvTimeLayout + ".000000")
		}
		return x.Format(csvTimeLayout)
	case time.Duration:
		return formatDuration(x)
	}
	return fmt.Sprint(v)
}

// formatDuration renders a duration as [-]HH:MM:SS[.ffffff].
func formatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	us := (d % time.Second) / time.Microsecond
	if us != 0 {
		return fmt.Sprintf("%s%02d:%02d:%02d.%06d", sign, h, m, s, us)
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}
