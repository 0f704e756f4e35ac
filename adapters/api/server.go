// Package api exposes the missingness inspector over HTTP. Requests carry
// inline datasets; responses are the inspector's data tables as JSON.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tabguard/adapters/crypto"
	"tabguard/adapters/stats"
	"tabguard/adapters/tabular"
	"tabguard/domain/core"
	"tabguard/domain/missing"
	"tabguard/domain/table"
	"tabguard/internal"
	apperrors "tabguard/internal/errors"
	"tabguard/internal/report"
)

// Server wires the inspector behind a chi router
type Server struct {
	inspector     *stats.Inspector
	coercer       *tabular.CellCoercer
	log           *internal.Logger
	publicKeyPath string
}

// NewServer creates a new API server. publicKeyPath may be empty; when set,
// the PEM file is published at /api/public-key so data holders can encrypt
// against it.
func NewServer(log *internal.Logger, publicKeyPath string) *Server {
	return &Server{
		inspector:     stats.NewInspector(),
		coercer:       tabular.NewCellCoercer(tabular.DefaultCoercionConfig()),
		log:           log,
		publicKeyPath: publicKeyPath,
	}
}

// Router builds the HTTP route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/glimpse", s.handleGlimpse)
		r.Post("/pattern", s.handlePattern)
		r.Post("/compare", s.handleCompare)
		r.Post("/pairs", s.handlePairs)
		r.Post("/report", s.handleReport)
		r.Get("/public-key", s.handlePublicKey)
	})
	return r
}

// handlePublicKey serves the configured encryption key. Only the public
// half is ever published.
func (s *Server) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	if s.publicKeyPath == "" {
		s.writeJSON(w, http.StatusNotFound,
			errorResponse{Code: apperrors.CodeInvalidInput, Message: "no public key configured"})
		return
	}
	pub, err := crypto.LoadPublicKey(s.publicKeyPath)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pemBytes, err := pub.MarshalPEM()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.WriteHeader(http.StatusOK)
	w.Write(pemBytes)
}

func (s *Server) handleGlimpse(w http.ResponseWriter, r *http.Request) {
	payload, t, ok := s.decodeDataset(w, r)
	if !ok {
		return
	}
	columns := make([]string, 0, len(payload.Columns))
	for _, col := range payload.Columns {
		columns = append(columns, col.Name)
	}
	profiles, err := s.inspector.Glimpse(t, columns)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handlePattern(w http.ResponseWriter, r *http.Request) {
	payload, t, ok := s.decodeDataset(w, r)
	if !ok {
		return
	}
	patterns, err := s.inspector.MissingPattern(t, payload.Dependent, payload.Explanatory)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, patterns)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	payload, t, ok := s.decodeDataset(w, r)
	if !ok {
		return
	}
	comparison, err := s.inspector.MissingCompare(t, payload.Target, payload.Explanatory)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	payload, t, ok := s.decodeDataset(w, r)
	if !ok {
		return
	}
	grid, err := s.inspector.MissingPairs(t, payload.Dependent, payload.Explanatory,
		missing.FillMode(payload.FillMode))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, grid)
}

// handleReport runs glimpse, pattern, and comparison over the dataset and
// returns a rendered HTML report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	payload, t, ok := s.decodeDataset(w, r)
	if !ok {
		return
	}
	columns := make([]string, 0, len(payload.Columns))
	for _, col := range payload.Columns {
		columns = append(columns, col.Name)
	}

	profiles, err := s.inspector.Glimpse(t, columns)
	if err != nil {
		s.writeError(w, err)
		return
	}
	builder := report.NewBuilder(t.Fingerprint()).AddGlimpse(profiles)

	if payload.Dependent != "" {
		patterns, err := s.inspector.MissingPattern(t, payload.Dependent, payload.Explanatory)
		if err != nil {
			s.writeError(w, err)
			return
		}
		builder.AddPattern(patterns)
	}
	if payload.Target != "" {
		comparison, err := s.inspector.MissingCompare(t, payload.Target, payload.Explanatory)
		if err != nil {
			s.writeError(w, err)
			return
		}
		builder.AddComparison(comparison)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(builder.Build().RenderHTML())
}

func (s *Server) decodeDataset(w http.ResponseWriter, r *http.Request) (*DatasetPayload, *table.Table, bool) {
	var payload DatasetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, apperrors.InvalidInput("invalid JSON payload"))
		return nil, nil, false
	}
	t, err := payload.toTable(s.coercer)
	if err != nil {
		s.writeError(w, err)
		return nil, nil, false
	}
	return &payload, t, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := apperrors.GetCode(err)
	switch {
	case core.IsColumnNotFound(err):
		status = http.StatusNotFound
		code = apperrors.CodeColumnNotFound
	case code == apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	}
	s.log.Warn("request failed: %v", err)
	s.writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}
