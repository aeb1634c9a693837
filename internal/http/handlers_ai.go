package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxReceiptImageBytes caps uploaded receipt photos at 10 MiB.
const maxReceiptImageBytes = 10 << 20

type scanResponse struct {
	Created []expensePayload `json:"created"`
}

// handleScanReceipt accepts a multipart receipt photo plus payer/owner
// fields and creates one expense per extracted line item. Extraction is
// all-or-nothing: a parse failure creates no expenses.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.receipts == nil {
		writeError(w, r, http.StatusServiceUnavailable, "receipt scanning is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptImageBytes)
	if err := r.ParseMultipartForm(maxReceiptImageBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart request")
		return
	}

	payer := strings.TrimSpace(r.FormValue("payer"))
	owner := strings.TrimSpace(r.FormValue("owner"))
	if payer == "" || owner == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "payer and owner are required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read image")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	created, err := s.receipts.ImportReceipt(r.Context(), image, mimeType, payer, owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Receipt import failed",
			"error", err,
			"image_bytes", len(image),
			"created", len(created))
		writeError(w, r, http.StatusBadGateway, fmt.Sprintf("receipt could not be processed: %v", err))
		return
	}
	s.bumpGeneration()

	slog.InfoContext(r.Context(), "Receipt scanned", "items", len(created), "payer", payer)
	writeJSON(w, http.StatusCreated, scanResponse{Created: payloadsFromExpenses(created)})
}

// handleInsights returns an AI spending analysis over the full expense
// list. Results are cached per mutation generation; failures inside the
// generator surface as a neutral result, never as an error.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if s.insights == nil {
		writeError(w, r, http.StatusServiceUnavailable, "insights are not configured")
		return
	}

	cacheKey := fmt.Sprintf("g%d:insights", s.generation.Load())
	if insight, ok := s.insightCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, insight)
		return
	}

	expenses, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	insight := s.insights.GenerateInsight(r.Context(), expenses)
	s.insightCache.Set(cacheKey, insight)
	writeJSON(w, http.StatusOK, insight)
}
