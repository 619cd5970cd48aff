package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/pipeline"
	"github.com/emiliopalmerini/garminetl/internal/ports"
	"github.com/emiliopalmerini/garminetl/internal/web/templates"
)

var errBadRequest = errors.New("bad request")

// dataset is the processed output the pages are built from.
type dataset struct {
	days     *frame.Frame
	weeks    *frame.Frame
	months   *frame.Frame
	manifest *ports.Manifest
}

func (s *Server) loadDataset(ctx context.Context) (*dataset, error) {
	var ds dataset

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range []struct {
		name string
		dst  **frame.Frame
	}{
		{pipeline.TableDays, &ds.days},
		{pipeline.TableWeeks, &ds.weeks},
		{pipeline.TableMonths, &ds.months},
	} {
		g.Go(func() error {
			f, err := s.store.LoadTable(gctx, pipeline.StageProcessed, t.name)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", t.name, err)
			}
			*t.dst = f
			return nil
		})
	}

	// The manifest only decorates the home page.
	g.Go(func() error {
		m, err := s.store.Manifest(gctx, pipeline.StageProcessed)
		if err != nil {
			s.log.WithError(err).Debug("processed manifest unavailable")
			return nil
		}
		ds.manifest = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusServiceUnavailable {
		msg = "No processed data yet. Run the pipeline first (garminetl run)."
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("page failed")
	}
	w.WriteHeader(status)
	_ = templates.Error(templates.ErrorPage{Title: http.StatusText(status), Message: msg}).Render(r.Context(), w)
}
