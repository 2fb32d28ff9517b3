package webapi

import (
	"encoding/json"
	"net/http"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/restyle"
	"github.com/fpang/ui-restyler/internal/tokens"
)

type backendInfo struct {
	Name  backend.Variant `json:"name"`
	Label string          `json:"label"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"steps":    restyle.Catalog(),
		"defaults": restyle.DefaultStepKeys,
	})
}

func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	var out []backendInfo
	for _, v := range backend.Variants() {
		out = append(out, backendInfo{Name: v, Label: v.Label()})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"backends": out,
		"default":  s.cfg.Defaults.Backend,
	})
}

func (s *Server) handleSampleTokens(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"tokens": restyle.LoadSampleTokens(s.cfg.SampleTokensPath),
	})
}

func (s *Server) handleTokensForm(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var form tokens.Form
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text, err := restyle.TokensFromForm(form)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to build tokens")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"tokens": text})
}
