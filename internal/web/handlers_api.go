package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/pipeline"
	"github.com/emiliopalmerini/garminetl/internal/util"
)

var apiTables = map[string]string{
	"days":   pipeline.TableDays,
	"weeks":  pipeline.TableWeeks,
	"months": pipeline.TableMonths,
}

type apiTable struct {
	Table   string           `json:"table"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func (s *Server) handleAPITable(w http.ResponseWriter, r *http.Request) {
	name, ok := apiTables[r.PathValue("table")]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown table %q", r.PathValue("table")), http.StatusNotFound)
		return
	}
	f, err := s.store.LoadTable(r.Context(), pipeline.StageProcessed, name)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	out := apiTable{Table: f.Name(), Columns: f.Names(), Rows: make([]map[string]any, f.Len())}
	for i := range out.Rows {
		row := f.Row(i)
		for k, v := range row {
			row[k] = jsonValue(v)
		}
		out.Rows[i] = row
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.log.WithError(err).Warn("failed to encode table")
	}
}

// jsonValue renders dates as YYYY-MM-DD, other times with seconds, durations as seconds.
func jsonValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		if x.Equal(frame.TruncateDay(x)) {
			return util.FormatDateISO(x)
		}
		return x.Format("2006-01-02 15:04:05")
	case time.Duration:
		return util.CellFloat(x)
	}
	return v
}
