package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseTransactionQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ts, err := s.dashboard.Transactions(r.Context(), s.userID(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	reg, err := s.dashboard.Registry(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransaction(t, reg))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.dashboard.Transaction(r.Context(), s.userID(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeTransaction(w, r, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := req.toCore(s.userID(r), s.today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeTransaction(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req patchTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, id := s.userID(r), r.PathValue("id")
	updated, err := s.ledger.UpdateTransaction(r.Context(), userID, id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeTransaction(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, id := s.userID(r), r.PathValue("id")
	if err := s.ledger.DeleteTransaction(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) writeTransaction(w http.ResponseWriter, r *http.Request, status int, t core.Transaction) {
	reg, err := s.dashboard.Registry(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(status).Body(toTransaction(t, reg)).Write(w)
}
