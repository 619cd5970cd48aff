package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

var nav = []struct{ href, label string }{
	{"/", "Home"},
	{"/weekly", "Weekly"},
	{"/yearly", "Yearly goals"},
	{"/trends", "Trends"},
}

// Layout wraps a page body with the document shell and navigation.
func Layout(title, active string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.printf(`<title>%s · garminetl</title>`, esc(title))
		w.printf(`<link rel="stylesheet" href="/static/style.css"></head><body><nav>`)
		for _, n := range nav {
			class := ""
			if n.href == active {
				class = ` class="active"`
			}
			w.printf(`<a href="%s"%s>%s</a>`, n.href, class, esc(n.label))
		}
		w.printf(`</nav><main><h1>%s</h1>`, esc(title))
		if w.err != nil {
			return w.err
		}
		if err := body.Render(ctx, out); err != nil {
			return err
		}
		w.printf(`</main></body></html>`)
		return w.err
	})
}
