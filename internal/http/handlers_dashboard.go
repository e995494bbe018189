package http

import "net/http"

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	userID := s.userID(r)
	ov, err := s.dashboard.Overview(r.Context(), userID, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	reg, err := s.dashboard.Registry(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toOverview(ov, reg)).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	shares, err := s.dashboard.Breakdown(r.Context(), s.userID(r), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toShares(shares)).Write(w)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p, err := ParseMonthParams(query, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	window, err := ParseWindow(query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	series, err := s.dashboard.Series(r.Context(), s.userID(r), p, window)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]totalsResponse, 0, len(series))
	for _, m := range series {
		out = append(out, toTotals(m))
	}
	NewJSONResponse().Body(out).Write(w)
}
