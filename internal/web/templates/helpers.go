package templates

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

func esc(s string) string {
	return templ.EscapeString(s)
}

// writer renders printf output, stopping at the first error.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *writer) text(s string) {
	w.printf("%s", esc(s))
}

func formatCoef(c float64) string {
	return strconv.FormatFloat(c, 'f', 1, 64)
}

func weeklyURL(start string, year int, coef float64) templ.SafeURL {
	q := url.Values{}
	q.Set("start", start)
	q.Set("year", strconv.Itoa(year))
	q.Set("coef", formatCoef(coef))
	return templ.SafeURL("/weekly?" + q.Encode())
}
