package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/continuum-pay/continuum/pkg/types"
)

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Post("/payments", s.handleCreatePayment)
	r.Get("/payments/{paymentID}", s.handleGetPayment)
	r.Post("/payments/{paymentID}/resume", s.handleResumePayment)
	r.Get("/status/{paymentID}", s.handlePollStatus)
	r.Get("/attempts/{paymentID}/events", s.handleListEvents)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req types.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusUnprocessableEntity, "orderId is required")
		return
	}

	resp := s.store.create(req, baseURL(r))
	s.record(resp.ID, types.EventPaymentCreated, string(resp.Status))
	s.logger.Info("payment created",
		"requestId", RequestIDFromContext(r.Context()),
		"paymentId", resp.ID, "status", resp.Status)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")
	resp, ok := s.store.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no such payment")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResumePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")

	var req types.ResumePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ResumeToken == "" {
		writeError(w, http.StatusUnprocessableEntity, "resumeToken is required")
		return
	}

	resp, ok := s.store.resume(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no such payment")
		return
	}
	s.record(id, types.EventPaymentResumed, string(resp.Status))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePollStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")
	resp, ok := s.store.poll(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no such payment")
		return
	}
	if resp.Status == types.PollComplete {
		s.record(id, types.EventPollCompleted, "")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")
	evts := s.recorder.ForAttempt(id)
	if evts == nil {
		evts = []types.Event{}
	}
	writeJSON(w, http.StatusOK, evts)
}

func (s *Server) record(paymentID string, kind types.EventKind, message string) {
	s.recorder.Append(types.Event{
		Kind:      kind,
		AttemptID: paymentID,
		PaymentID: paymentID,
		Message:   message,
	})
}

// baseURL reconstructs the externally visible base URL so minted redirect
// and status URLs point back at this gateway.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
