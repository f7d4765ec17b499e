package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/viewmodel"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.rateLimiter.ActiveClients()},
	}
	status, code := "ready", http.StatusOK
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// screens resolves month and week start from the query and returns the
// computed screens.
func (s *Server) screens(w http.ResponseWriter, r *http.Request) (viewmodel.Screens, bool) {
	q := r.URL.Query()
	month, err := ParseMonthParam(q, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return viewmodel.Screens{}, false
	}
	weekStart, err := ParseWeekStartParam(q, s.weekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return viewmodel.Screens{}, false
	}
	screens, err := s.views.ScreensFor(r.Context(), month, weekStart)
	if err != nil {
		fail(w, r, err)
		return viewmodel.Screens{}, false
	}
	return screens, true
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	screens, ok := s.screens(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":      screens.Month,
		"week_start": screens.WeekStart.String(),
		"calendar":   screens.Calendar,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	screens, ok := s.screens(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":   screens.Month,
		"summary": screens.Graph,
	})
}

type categoryInfo struct {
	ID    core.Category `json:"id"`
	Name  string        `json:"name"`
	Color string        `json:"color"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.Categories()
	out := make([]categoryInfo, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryInfo{ID: c, Name: c.DisplayName(), Color: c.Color()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	c, err := core.ParseCategory(r.PathValue("category"))
	if err != nil {
		// a bad path segment is a malformed request, not a rejected entry
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	screens, ok := s.screens(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":    screens.Month,
		"category": screens.Category(c),
	})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.ledger.ListMonth(r.Context(), month)
	if err != nil {
		fail(w, r, err)
		return
	}

	rows := make([]core.EntryRow, 0, len(entries))
	var total core.DayTotal
	for _, e := range entries {
		rows = append(rows, core.RowOf(e))
		total.Add(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":   month,
		"entries": rows,
		"total":   total,
	})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := ParseEntryID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	e, err := s.ledger.GetEntry(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := p.EntryInput().Parse()
	if err != nil {
		fail(w, r, err)
		return
	}
	added, err := s.ledger.AddEntry(r.Context(), e)
	if err != nil {
		fail(w, r, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).LogEntryMutation(r.Context(), log.OpCreate, added)
	w.Header().Set("Location", "/api/entries/"+added.ID.String())
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := ParseEntryID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := p.EntryInput().Parse()
	if err != nil {
		fail(w, r, err)
		return
	}
	e.ID = id

	updated, err := s.ledger.UpdateEntry(r.Context(), e)
	if err != nil {
		fail(w, r, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).LogEntryMutation(r.Context(), log.OpUpdate, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := ParseEntryID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.ledger.DeleteEntry(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
