package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var typ core.TransactionType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		parsed, err := core.ParseTransactionType(v)
		if err != nil {
			s.writeError(w, r, &requestError{msg: "invalid type filter", err: err})
			return
		}
		typ = parsed
	}
	cats, err := s.dashboard.Categories(r.Context(), typ)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategory(c))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	added, err := s.ledger.AddCategory(r.Context(), core.Category{
		ID:    sanitizeInput(req.ID),
		Name:  sanitizeInput(req.Name),
		Type:  typ,
		Color: sanitizeInput(req.Color),
		Icon:  sanitizeInput(req.Icon),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toCategory(added)).Write(w)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lines, err := s.dashboard.Budgets(r.Context(), s.userID(r), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toBudgetLines(lines)).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := core.ParseMoney(req.Limit)
	if err != nil {
		s.writeError(w, r, core.ErrInvalidBudgetLimit)
		return
	}
	saved, err := s.ledger.SetBudget(r.Context(), core.Budget{
		UserID:     s.userID(r),
		CategoryID: sanitizeInput(req.CategoryID),
		Limit:      limit,
		Period:     core.Period{Year: req.Year, Month: time.Month(req.Month)},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toBudget(saved)).Write(w)
}
