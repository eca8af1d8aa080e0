package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/docledger/docledger/internal/docstore"
	"github.com/docledger/docledger/internal/ledger"
)

// Server exposes the ledger operations and the document archive over HTTP.
// It holds read-only references; all state lives in the ledger and the
// archive, which handle their own locking.
type Server struct {
	ledger *ledger.Ledger
	docs   *docstore.Store
	logger *zap.Logger
}

func New(l *ledger.Ledger, docs *docstore.Store, logger *zap.Logger) *Server {
	return &Server{
		ledger: l,
		docs:   docs,
		logger: logger,
	}
}

// Handler builds the route table wrapped in CORS and exposes prometheus
// metrics alongside the API.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /documents/register", s.handleRegister)
	mux.HandleFunc("POST /documents/{doc_id}/access", s.handleRecordAccess)
	mux.HandleFunc("GET /documents/{doc_id}", s.handleGetDocument)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /ledger/verify/{doc_id}", s.handleVerify)
	mux.HandleFunc("POST /ledger/verify/{doc_id}", s.handleVerify)
	mux.HandleFunc("GET /ledger/history/{doc_id}", s.handleHistory)
	mux.HandleFunc("GET /ledger/audit/{doc_id}", s.handleAudit)
	mux.HandleFunc("GET /ledger/stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	var c *cors.Cors
	if len(allowedOrigins) == 0 {
		c = cors.Default()
	} else {
		c = cors.New(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		})
	}

	return c.Handler(mux)
}
