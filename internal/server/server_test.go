package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docledger/docledger/internal/docstore"
	"github.com/docledger/docledger/internal/ledger"
	"github.com/docledger/docledger/internal/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()

	led, err := ledger.New(store.New(filepath.Join(dir, "ledger.json")), zap.NewNop())
	require.NoError(t, err)

	docs, err := docstore.New(filepath.Join(dir, "documents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })

	return New(led, docs, zap.NewNop()).Handler(nil)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func registerDoc(t *testing.T, handler http.Handler, docID, content string) {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/documents/register", registerRequest{
		DocID:   docID,
		Content: content,
		Title:   "Test Order",
		DocType: "order",
		Actor:   "clerk1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegisterAndVerifyUnmodified(t *testing.T) {
	handler := newTestHandler(t)
	registerDoc(t, handler, "DOC001", "content-A")

	rec := doJSON(t, handler, http.MethodGet,
		"/ledger/verify/DOC001?content="+url.QueryEscape("content-A"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result ledger.VerificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.IsValid)
	assert.False(t, result.ModificationDetected)
	assert.True(t, result.ChainValid)
}

func TestVerifyModifiedContent(t *testing.T) {
	handler := newTestHandler(t)
	registerDoc(t, handler, "DOC001", "content-A")

	rec := doJSON(t, handler, http.MethodPost, "/ledger/verify/DOC001",
		verifyRequest{Content: "content-B"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result ledger.VerificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.True(t, result.ModificationDetected)
	assert.True(t, result.ChainValid)
}

func TestVerifyUnknownDocument(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/ledger/verify/UNKNOWN",
		verifyRequest{Content: "anything"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result ledger.VerificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.True(t, result.ModificationDetected)

	// Absence of provenance stays absent: no entry was created.
	audit := doJSON(t, handler, http.MethodGet, "/ledger/audit/UNKNOWN", nil)
	assert.Equal(t, http.StatusNotFound, audit.Code)
}

func TestVerifyWithoutContent(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/ledger/verify/DOC001", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	handler := newTestHandler(t)
	registerDoc(t, handler, "DOC001", "content-A")

	rec := doJSON(t, handler, http.MethodPost, "/documents/register", registerRequest{
		DocID:   "DOC001",
		Content: "different content",
		Actor:   "clerk2",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/documents/register",
		registerRequest{DocID: "DOC001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordAccessUnknown(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/documents/MISSING/access",
		accessRequest{Actor: "reader1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryOrdering(t *testing.T) {
	handler := newTestHandler(t)
	registerDoc(t, handler, "DOC001", "content-A")

	for _, actor := range []string{"reader1", "reader2"} {
		rec := doJSON(t, handler, http.MethodPost, "/documents/DOC001/access",
			accessRequest{Actor: actor})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, handler, http.MethodPost, "/ledger/verify/DOC001",
		verifyRequest{Content: "content-A"})
	require.Equal(t, http.StatusOK, rec.Code)

	histRec := doJSON(t, handler, http.MethodGet, "/ledger/history/DOC001", nil)
	require.Equal(t, http.StatusOK, histRec.Code)

	var payload struct {
		History     []ledger.HistoryEntry `json:"history"`
		TotalEvents int                   `json:"total_events"`
	}
	require.NoError(t, json.Unmarshal(histRec.Body.Bytes(), &payload))
	require.Equal(t, 4, payload.TotalEvents)

	assert.Equal(t, ledger.ActionCreated, payload.History[0].Action)
	for i := 1; i < len(payload.History); i++ {
		assert.Greater(t, payload.History[i].BlockIndex, payload.History[i-1].BlockIndex)
	}
}

func TestAuditReport(t *testing.T) {
	handler := newTestHandler(t)
	registerDoc(t, handler, "DOC001", "content-A")

	rec := doJSON(t, handler, http.MethodPost, "/documents/DOC001/access",
		accessRequest{Actor: "reader1"})
	require.Equal(t, http.StatusOK, rec.Code)

	auditRec := doJSON(t, handler, http.MethodGet, "/ledger/audit/DOC001", nil)
	require.Equal(t, http.StatusOK, auditRec.Code)

	var report ledger.AuditReport
	require.NoError(t, json.Unmarshal(auditRec.Body.Bytes(), &report))
	assert.Equal(t, "DOC001", report.DocID)
	assert.Equal(t, "clerk1", report.RegisteredBy)
	assert.Equal(t, 1, report.TotalAccesses)
	assert.Equal(t, "valid", report.ChainIntegrity)
	assert.Equal(t, 2, report.TotalEvents)
}

func TestDocumentArchive(t *testing.T) {
	handler := newTestHandler(t)
	registerDoc(t, handler, "DOC001", "content-A")

	rec := doJSON(t, handler, http.MethodGet, "/documents/DOC001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc docstore.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Test Order", doc.Title)
	assert.Equal(t, "clerk1", doc.UploadedBy)

	listRec := doJSON(t, handler, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, listRec.Code)

	var listing struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Total)
}

func TestStatsAndHealth(t *testing.T) {
	handler := newTestHandler(t)
	registerDoc(t, handler, "DOC001", "content-A")

	statsRec := doJSON(t, handler, http.MethodGet, "/ledger/stats", nil)
	require.Equal(t, http.StatusOK, statsRec.Code)

	var stats ledger.Stats
	require.NoError(t, json.Unmarshal(statsRec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalBlocks) // genesis + created
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.True(t, stats.ChainValid)

	healthRec := doJSON(t, handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, healthRec.Code)
	assert.Contains(t, healthRec.Body.String(), `"status":"healthy"`)
}
