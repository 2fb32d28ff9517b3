package webapi

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/filehandler"
	"github.com/fpang/ui-restyler/internal/jobs"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard.
const zipMethodZstd uint16 = 93

var registerZstdOnce sync.Once

// registerZstd installs the zstd ZIP compressor. archive/zip panics on
// duplicate registration, hence the Once.
func registerZstd() {
	registerZstdOnce.Do(func() {
		zip.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		})
	})
}

func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	runID, action, ok := jobs.ParseRoute(r.URL.Path, runsPrefix)
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid run path")
		return
	}

	runDir := filepath.Join(s.cfg.SaveDir, runID)
	if info, err := os.Stat(runDir); err != nil || !info.IsDir() {
		httpError(w, http.StatusNotFound, "run not found")
		return
	}

	switch action {
	case "bundle":
		s.handleBundle(w, runID, runDir)
	case "file":
		s.handleFile(w, r, runDir)
	default:
		httpError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request, runDir string) {
	name := r.URL.Query().Get("name")
	if !isPlainFileName(name) {
		httpError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	path := filepath.Join(runDir, name)

	if thumb := r.URL.Query().Get("thumb"); thumb != "" {
		if !filehandler.IsImagePath(path) {
			httpError(w, http.StatusBadRequest, "thumbnails are only available for images")
			return
		}
		maxDim := filehandler.DefaultThumbnailMaxDimension
		if n, err := strconv.Atoi(thumb); err == nil && n > 1 {
			maxDim = n
		}
		img, err := filehandler.LoadImage(path)
		if err != nil {
			httpError(w, http.StatusNotFound, "file not found")
			return
		}
		data, mimeType, err := filehandler.GenerateThumbnail(img, maxDim)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to generate thumbnail")
			return
		}
		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.Write(data)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		httpError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	contentType := "text/plain; charset=utf-8"
	if mimeType, err := filehandler.GetMIMEType(filepath.Ext(name)); err == nil {
		contentType = mimeType
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, f); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to stream run file")
	}
}

func (s *Server) handleBundle(w http.ResponseWriter, runID, runDir string) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+".zip"))

	n, err := writeBundle(w, runDir)
	if err != nil {
		// Headers are already sent; the truncated archive is the only signal.
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to write run bundle")
		return
	}
	log.Info().Str("run_id", runID).Int("files", n).Msg("Run bundle served")
}

// writeBundle writes every regular file in runDir to a zstd-compressed ZIP.
// Returns the number of entries written.
func writeBundle(w io.Writer, runDir string) (int, error) {
	registerZstd()

	entries, err := os.ReadDir(runDir)
	if err != nil {
		return 0, fmt.Errorf("read run directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		if err := addBundleEntry(zw, filepath.Join(runDir, name), name); err != nil {
			zw.Close()
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finalize ZIP: %w", err)
	}
	return len(names), nil
}

func addBundleEntry(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	header := &zip.FileHeader{
		Name:   name,
		Method: zipMethodZstd,
	}
	header.SetModTime(info.ModTime())

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create ZIP entry for %s: %w", name, err)
	}
	if _, err := io.Copy(writer, f); err != nil {
		return fmt.Errorf("write ZIP entry for %s: %w", name, err)
	}
	return nil
}
