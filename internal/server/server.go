package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/readcompanion/internal/config"
	"github.com/local/readcompanion/internal/export"
	"github.com/local/readcompanion/internal/llm"
	mpkg "github.com/local/readcompanion/internal/metrics"
	"github.com/local/readcompanion/internal/settings"
	"github.com/local/readcompanion/internal/snapshot"
	"github.com/local/readcompanion/internal/vocab"
)

// Translator is the provider layer seam the handlers call through.
type Translator interface {
	Translate(ctx context.Context, in llm.Input) (string, error)
	TestConnection(ctx context.Context) (string, error)
}

// VocabStore is the persistence seam for vocabulary records.
type VocabStore interface {
	Save(ctx context.Context, r vocab.Record) (string, error)
	List(ctx context.Context, limit int) ([]vocab.Record, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Archiver uploads an export payload; nil disables archiving.
type Archiver interface {
	Upload(ctx context.Context, key string, data []byte, contentType, password string) (string, error)
	Ping(ctx context.Context) error
}

// Dependencies wires the server.
type Dependencies struct {
	Translator Translator
	Vocab      VocabStore
	Archiver   Archiver
	Settings   settings.Store
	Snapshot   config.SnapshotConfig
	ArchivePW  string
}

type Server struct {
	deps Dependencies
}

func New(deps Dependencies) *Server { return &Server{deps: deps} }

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/translate", s.handleTranslate)
	mux.HandleFunc("GET /api/test_connection", s.handleTestConnection)
	mux.HandleFunc("GET /api/vocabulary", s.handleVocabularyList)
	mux.HandleFunc("DELETE /api/vocabulary/{id}", s.handleVocabularyDelete)
	mux.HandleFunc("GET /api/vocabulary/export", s.handleVocabularyExport)
	mux.HandleFunc("POST /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
}

type translateRequest struct {
	Text           string `json:"text"`
	PageScreenshot string `json:"pageScreenshot"`
	PageNumber     int    `json:"pageNumber"`
}

type translateResponse struct {
	ID          string `json:"id,omitempty"`
	Translation string `json:"translation"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := s.deps.Translator.Translate(r.Context(), llm.Input{
		Text:           req.Text,
		PageScreenshot: req.PageScreenshot,
		PageNumber:     req.PageNumber,
	})
	if err != nil {
		mpkg.IncTranslation("error")
		writeTranslateError(w, err)
		return
	}
	mpkg.IncTranslation("success")

	// Persist the query as a vocabulary record. A storage failure does not
	// fail the translation; the user still gets their answer.
	rec := vocab.Record{
		Text:        req.Text,
		Translation: out,
		TargetLang:  s.deps.Settings.Get("targetLanguage", "en"),
		PageNumber:  req.PageNumber,
		HadImage:    req.PageScreenshot != "" && settings.Bool(s.deps.Settings, "enableImageContext", true),
	}
	if cfg, cfgErr := llm.ResolveConfig(s.deps.Settings); cfgErr == nil {
		rec.Provider = cfg.Provider.String()
		rec.Model = cfg.ModelID
	}

	var id string
	if s.deps.Vocab != nil {
		var saveErr error
		id, saveErr = s.deps.Vocab.Save(r.Context(), rec)
		if saveErr != nil {
			log.Error().Err(saveErr).Msg("failed to save vocabulary record")
		} else {
			mpkg.IncVocabSaved()
		}
	}

	writeJSON(w, http.StatusOK, translateResponse{ID: id, Translation: out})
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Translator.TestConnection(r.Context())
	if err != nil {
		writeTranslateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}

func (s *Server) handleVocabularyList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.deps.Vocab.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "vocabulary list failed")
		return
	}
	count, err := s.deps.Vocab.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "vocabulary count failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count, "records": records})
}

func (s *Server) handleVocabularyDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing record id")
		return
	}
	if err := s.deps.Vocab.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleVocabularyExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.deps.Vocab.List(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "vocabulary list failed")
		return
	}

	data, err := export.Render(format, records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export render failed")
		return
	}

	if r.URL.Query().Get("archive") == "1" {
		if s.deps.Archiver == nil {
			writeError(w, http.StatusBadRequest, "archive not configured")
			return
		}
		key := fmt.Sprintf("exports/vocabulary-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
		url, upErr := s.deps.Archiver.Upload(r.Context(), key, data, format.ContentType(), s.deps.ArchivePW)
		if upErr != nil {
			log.Error().Err(upErr).Msg("archive upload failed")
			writeError(w, http.StatusBadGateway, "archive upload failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"archived": url, "records": len(records)})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vocabulary.%s", format))
	_, _ = w.Write(data)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	page, err := strconv.Atoi(r.FormValue("page"))
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}

	tmp, err := os.CreateTemp("", "snapshot-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "temp file failed")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "temp write failed")
		return
	}
	tmp.Close()

	res, err := snapshot.RenderPage(tmp.Name(), page, snapshot.Options{
		DPI:       s.deps.Snapshot.DPI,
		Quality:   s.deps.Snapshot.Quality,
		Grayscale: s.deps.Snapshot.Grayscale,
	})
	if err != nil {
		mpkg.IncSnapshot("error")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	mpkg.IncSnapshot("success")

	writeJSON(w, http.StatusOK, map[string]any{
		"dataUri": res.DataURI,
		"width":   res.Width,
		"height":  res.Height,
		"pages":   res.Pages,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	type status struct {
		OK      bool   `json:"ok"`
		Message string `json:"message,omitempty"`
	}
	out := map[string]status{}
	healthy := true

	if s.deps.Vocab != nil {
		if err := s.deps.Vocab.Ping(ctx); err != nil {
			out["redis"] = status{OK: false, Message: err.Error()}
			healthy = false
		} else {
			out["redis"] = status{OK: true}
		}
	}
	if s.deps.Archiver != nil {
		if err := s.deps.Archiver.Ping(ctx); err != nil {
			out["s3"] = status{OK: false, Message: err.Error()}
			healthy = false
		} else {
			out["s3"] = status{OK: true}
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, out)
}

// writeTranslateError maps provider-layer error types to HTTP codes. Errors
// are never swallowed here; the message always reaches the caller.
func writeTranslateError(w http.ResponseWriter, err error) {
	var cfgErr *llm.ConfigError
	if errors.As(err, &cfgErr) {
		writeError(w, http.StatusPreconditionFailed, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
