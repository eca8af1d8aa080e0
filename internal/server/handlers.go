package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/docledger/docledger/internal/docstore"
	"github.com/docledger/docledger/internal/ledger"
)

type registerRequest struct {
	DocID   string `json:"doc_id"`
	Content string `json:"content"`
	Title   string `json:"title"`
	DocType string `json:"doc_type"`
	Actor   string `json:"actor"`
}

type accessRequest struct {
	Actor string `json:"actor"`
}

type verifyRequest struct {
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DocID == "" || req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "doc_id and content are required")
		return
	}
	if req.Actor == "" {
		req.Actor = "system"
	}

	block, err := s.ledger.Register(req.DocID, req.Content, req.Actor)
	if err != nil {
		if errors.Is(err, ledger.ErrDocumentExists) {
			s.writeError(w, http.StatusConflict, "document already registered")
			return
		}
		s.logger.Error("register failed", zap.String("doc_id", req.DocID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to register document")
		return
	}

	record := &docstore.Document{
		DocID:       req.DocID,
		Title:       req.Title,
		DocType:     req.DocType,
		Content:     req.Content,
		ContentHash: block.ContentHash,
		UploadedBy:  req.Actor,
		CreatedAt:   block.Timestamp,
	}
	if err := s.docs.SaveDocument(record); err != nil {
		// The ledger entry is authoritative and already durable; a failed
		// archive write loses the display record, not the provenance.
		s.logger.Error("failed to archive document record",
			zap.String("doc_id", req.DocID), zap.Error(err))
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"doc_id": req.DocID,
		"block":  block,
	})
}

func (s *Server) handleRecordAccess(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")

	var req accessRequest
	if r.Body != nil {
		// Body is optional; an empty actor defaults below.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Actor == "" {
		req.Actor = "anonymous"
	}

	block, err := s.ledger.RecordAccess(docID, req.Actor)
	if err != nil {
		if errors.Is(err, ledger.ErrDocumentNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("record access failed", zap.String("doc_id", docID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to record access")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"doc_id": docID,
		"block":  block,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")

	content := r.URL.Query().Get("content")
	if content == "" && r.Method == http.MethodPost {
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			content = req.Content
		}
	}
	if content == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	result, err := s.ledger.Verify(docID, content)
	if err != nil {
		s.logger.Error("verification failed", zap.String("doc_id", docID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to verify document")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	history := s.ledger.History(docID)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":       docID,
		"history":      history,
		"total_events": len(history),
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")

	report, err := s.ledger.Report(docID)
	if err != nil {
		if errors.Is(err, ledger.ErrDocumentNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("audit report failed", zap.String("doc_id", docID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to build audit report")
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ledger.Stats())
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")

	doc, err := s.docs.GetDocument(docID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("get document failed", zap.String("doc_id", docID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.ListDocuments()
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	type listed struct {
		DocID      string    `json:"doc_id"`
		Title      string    `json:"title"`
		DocType    string    `json:"doc_type"`
		UploadedBy string    `json:"uploaded_by"`
		CreatedAt  time.Time `json:"created_at"`
	}

	out := make([]listed, 0, len(docs))
	for _, d := range docs {
		out = append(out, listed{
			DocID:      d.DocID,
			Title:      d.Title,
			DocType:    d.DocType,
			UploadedBy: d.UploadedBy,
			CreatedAt:  d.CreatedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"documents": out,
		"total":     len(out),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.ledger.Stats()

	status := "healthy"
	if !stats.ChainValid {
		status = "degraded"
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"chain_valid":  stats.ChainValid,
		"total_blocks": stats.TotalBlocks,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
