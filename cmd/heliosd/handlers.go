package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/helioscover/helios"
	"github.com/helioscover/helios/risk"
)

type handler struct {
	engine  helios.Engine
	docsDir string
}

func newHandler(e helios.Engine, docsDir string) *handler {
	return &handler{engine: e, docsDir: docsDir}
}

// POST /risk
// Never fails outright: any error degrades to the all-empty profile.
func (h *handler) handleRisk(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	profile, err := h.engine.Precheck(ctx, req.Text)
	if err != nil {
		slog.Error("risk precheck failed, returning empty profile", "error", err)
		profile = risk.Profile{
			Risks:     risk.EmptyRiskMap(),
			Mandatory: []string{},
			Optional:  []string{},
		}
	}

	writeJSON(w, http.StatusOK, profile)
}

// GET /policies
func (h *handler) handlePolicies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policies": h.engine.Policies(),
	})
}

// GET /summaries
func (h *handler) handleSummaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Summaries())
}

// GET /summaries/{policy}
func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	policy := r.PathValue("policy")

	profile, ok := h.engine.Summarize(policy)
	if !ok {
		writeError(w, http.StatusNotFound, "policy not found")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// POST /compare
func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var req struct {
		Text       string `json:"text"`
		PolicyName string `json:"policy_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" || req.PolicyName == "" {
		writeError(w, http.StatusBadRequest, "text and policy_name are required")
		return
	}

	needs, err := h.engine.Precheck(ctx, req.Text)
	if err != nil {
		writeError(w, http.StatusBadGateway, "risk analysis unavailable")
		slog.Error("compare precheck error", "error", err)
		return
	}

	comparison, err := h.engine.Compare(req.PolicyName, needs)
	if err != nil {
		if errors.Is(err, helios.ErrPolicyNotFound) {
			writeError(w, http.StatusNotFound, "policy not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "comparison failed")
		slog.Error("compare error", "policy", req.PolicyName, "error", err)
		return
	}

	// Narrative is best-effort; the structured result stands on its own.
	explanation, err := h.engine.ExplainComparison(ctx, req.PolicyName, needs, comparison)
	if err != nil {
		slog.Error("comparison explanation failed", "error", err)
		explanation = "explanation unavailable"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"needs":       needs,
		"comparison":  comparison,
		"explanation": explanation,
	})
}

// POST /upload
// Accepts a multipart document, saves it into the docs dir, and triggers a
// full graph rebuild. There is no incremental merge.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(100 << 20); err != nil { // 100MB max
		writeError(w, http.StatusBadRequest, "expected multipart file upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	// Sanitise filename to prevent path traversal.
	safeName := filepath.Base(header.Filename)
	dstPath := filepath.Join(h.docsDir, safeName)

	dst, err := os.Create(dstPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save file")
		slog.Error("creating uploaded file", "path", dstPath, "error", err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "failed to save file")
		slog.Error("saving uploaded file", "path", dstPath, "error", err)
		return
	}
	dst.Close()

	res, err := h.engine.Rebuild(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rebuild failed")
		slog.Error("rebuild after upload", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename": safeName,
		"rebuild":  res,
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"policies": len(h.engine.Policies()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
