package webapi

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/filehandler"
	"github.com/fpang/ui-restyler/internal/restyle"
	"github.com/fpang/ui-restyler/internal/s3util"
	"github.com/fpang/ui-restyler/internal/tokens"
)

type stepOutput struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type restyleResponse struct {
	RunID     string             `json:"run_id"`
	FinalURL  string             `json:"final_url"`
	BundleURL string             `json:"bundle_url"`
	Info      string             `json:"info"`
	Log       []string           `json:"log"`
	Steps     []stepOutput       `json:"steps,omitempty"`
	Artifacts []s3util.Artifact  `json:"artifacts,omitempty"`
	Plan      []restyle.EditStep `json:"plan"`
}

type restyleErrorResponse struct {
	Error string   `json:"error"`
	RunID string   `json:"run_id,omitempty"`
	Log   []string `json:"log,omitempty"`
}

// handleRestyle accepts a multipart form:
//
//	image       screenshot file (required)
//	logo        brand logo file
//	tokens      token document text (JSON or YAML)
//	steps       step keys or labels, repeated or comma-separated
//	seed, strength, jitter, backend, show_steps
func (s *Server) handleRestyle(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := s.parseRestyleForm(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := restyle.Restyle(r.Context(), req)
	if err != nil {
		s.respondRestyleError(w, res, err)
		return
	}

	runID := res.Run.RunID
	if _, err := filehandler.SaveImage(res.Final, res.Run.RunDir, restyle.FinalFileName); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("Failed to copy final image into run directory")
	}

	resp := restyleResponse{
		RunID:     runID,
		FinalURL:  fileURL(runID, restyle.FinalFileName),
		BundleURL: runsPrefix + runID + "/bundle",
		Info:      res.Info,
		Log:       res.Run.Log,
		Plan:      res.Plan,
	}
	if res.Gallery != nil {
		for i, p := range res.Run.OutputPaths {
			resp.Steps = append(resp.Steps, stepOutput{
				Name: res.Plan[i].Name,
				URL:  fileURL(runID, filepath.Base(p)),
			})
		}
	}

	if s.cfg.Artifacts != nil {
		artifacts, err := s.cfg.Artifacts.UploadRun(r.Context(), res.Run.RunDir)
		if err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("Failed to upload run artifacts")
		}
		resp.Artifacts = artifacts
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) parseRestyleForm(r *http.Request) (restyle.Request, error) {
	d := s.cfg.Defaults
	req := restyle.Request{
		TokensText:         r.FormValue("tokens"),
		Seed:               d.Seed,
		StrengthMultiplier: d.StrengthMultiplier,
		SeedJitter:         d.SeedJitter,
		SaveDir:            s.cfg.SaveDir,
		ShowSteps:          true,
		Metrics:            s.cfg.Metrics,
	}

	var err error
	if req.Image, err = formImage(r, "image"); err != nil {
		return req, err
	}
	if req.Logo, err = formImage(r, "logo"); err != nil {
		return req, err
	}

	for _, v := range r.MultipartForm.Value["steps"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				req.Steps = append(req.Steps, part)
			}
		}
	}

	if v := strings.TrimSpace(r.FormValue("seed")); v != "" {
		if req.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return req, fmt.Errorf("seed must be an integer")
		}
	}
	if v := strings.TrimSpace(r.FormValue("strength")); v != "" {
		if req.StrengthMultiplier, err = strconv.ParseFloat(v, 64); err != nil || !restyle.ValidMultiplier(req.StrengthMultiplier) {
			return req, fmt.Errorf("strength must be a non-negative number")
		}
	}
	if v := strings.TrimSpace(r.FormValue("jitter")); v != "" {
		if req.SeedJitter, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("jitter must be true or false")
		}
	}
	if v := strings.TrimSpace(r.FormValue("show_steps")); v != "" {
		if req.ShowSteps, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("show_steps must be true or false")
		}
	}

	variant := d.Backend
	if v := strings.TrimSpace(r.FormValue("backend")); v != "" {
		if variant, err = backend.ParseVariant(v); err != nil {
			return req, err
		}
	}
	if req.Backend, err = s.editor(variant); err != nil {
		return req, err
	}

	return req, nil
}

// formImage decodes an optional uploaded image. A missing field yields nil.
func formImage(r *http.Request, field string) (image.Image, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s upload", field)
	}
	defer f.Close()

	img, format, err := filehandler.DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s is not a supported image", field)
	}
	log.Debug().
		Str("field", field).
		Str("filename", hdr.Filename).
		Str("format", format).
		Int64("size", hdr.Size).
		Msg("Decoded upload")
	return img, nil
}

func (s *Server) respondRestyleError(w http.ResponseWriter, res *restyle.Result, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, restyle.ErrMissingImage),
		errors.Is(err, tokens.ErrMalformedTokens),
		errors.Is(err, restyle.ErrInvalidStepSelection):
		status = http.StatusBadRequest
	case backend.IsKind(err, backend.KindUnavailable):
		status = http.StatusServiceUnavailable
	case backend.IsKind(err, backend.KindRequestFailed), backend.IsKind(err, backend.KindResponseUnparseable):
		status = http.StatusBadGateway
	}

	body := restyleErrorResponse{Error: err.Error()}
	if res != nil && res.Run != nil {
		body.RunID = res.Run.RunID
		body.Log = res.Run.Log
	}
	log.Error().Err(err).Int("status", status).Str("run_id", body.RunID).Msg("Restyle request failed")
	respondJSON(w, status, body)
}

func fileURL(runID, name string) string {
	return runsPrefix + runID + "/file?name=" + url.QueryEscape(name)
}
