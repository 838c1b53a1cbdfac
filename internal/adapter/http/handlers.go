package http

import (
	"net/http"

	"github.com/couchcryptid/diabetes-care-api/internal/analysis"
	"github.com/couchcryptid/diabetes-care-api/internal/cache"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/render"
	"github.com/couchcryptid/diabetes-care-api/internal/report"
)

type rootBody struct {
	Name      string   `json:"name"`
	Docs      string   `json:"docs"`
	Endpoints []string `json:"endpoints"`
}

var endpoints = []string{
	"/indicators", "/time-periods", "/data", "/summary", "/rankings",
	"/correlation", "/map", "/chart", "/cache/clear", "/health",
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootBody{Name: "Diabetes Care API", Docs: "/", Endpoints: endpoints})
}

func (s *Server) handleIndicators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Indicators())
}

func (s *Server) handleTimePeriods(w http.ResponseWriter, r *http.Request) {
	id, areaType, verr := parseTimePeriods(r.URL.Query())
	if verr != nil {
		writeValidationError(w, verr)
		return
	}
	resp, err := s.reports.TimePeriods(r.Context(), id, areaType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	p, verr := parseData(r.URL.Query())
	if verr != nil {
		writeValidationError(w, verr)
		return
	}
	resp, err := s.reports.Data(r.Context(), p.query(), p.listOptions())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, verr := parseSelection(r.URL.Query())
	if verr != nil {
		writeValidationError(w, verr)
		return
	}
	resp, err := s.reports.Summary(r.Context(), p.query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	p, verr := parseRankings(r.URL.Query())
	if verr != nil {
		writeValidationError(w, verr)
		return
	}
	resp, err := s.reports.Rankings(r.Context(), p.query(), p.N, analysis.Order(p.Order))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	p, verr := parseSelection(r.URL.Query())
	if verr != nil {
		writeValidationError(w, verr)
		return
	}
	resp, err := s.reports.Correlation(r.Context(), p.query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	p, verr := parseMap(r.URL.Query())
	if verr != nil {
		writeValidationError(w, verr)
		return
	}
	img, err := s.reports.Map(r.Context(), report.MapRequest{
		IndicatorID: domain.IndicatorID(p.IndicatorID),
		TimePeriod:  p.TimePeriod,
		Scheme:      domain.ColorScheme(p.Cmap),
		Size:        p.size(),
		Title:       p.Title,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeImage(w, render.Format(p.Format), img.PNG)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	p, verr := parseChart(r.URL.Query())
	if verr != nil {
		writeValidationError(w, verr)
		return
	}
	img, err := s.reports.Chart(r.Context(), p.request())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeImage(w, render.Format(p.Format), img.PNG)
}

type messageBody struct {
	Message string `json:"message"`
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.cache.Clear()
	writeJSON(w, http.StatusOK, messageBody{Message: "Cache cleared"})
}

type healthBody struct {
	Status    string        `json:"status"`
	CacheSize int           `json:"cache_size"`
	Cache     []cache.Entry `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "ok", CacheSize: s.cache.Len(), Cache: s.cache.Entries()})
}
