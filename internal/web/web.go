package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/local/readcompanion/internal/vocab"
)

//go:embed templates/*.html
var templateFS embed.FS

// VocabReader is the read-only slice of the store the dashboard needs.
type VocabReader interface {
	List(ctx context.Context, limit int) ([]vocab.Record, error)
	Count(ctx context.Context) (int64, error)
}

type Web struct {
	tpl      *template.Template
	vocab    VocabReader
	username string
	password string
}

func New(vocabStore VocabReader, username, password string) *Web {
	tpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	return &Web{
		tpl:      tpl,
		vocab:    vocabStore,
		username: username,
		password: password,
	}
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/web/login", w.handleLogin)
	mux.HandleFunc("/web/logout", w.handleLogout)
	mux.HandleFunc("/web/", w.requireAuth(w.handleDashboard))
	mux.HandleFunc("/web/dashboard", w.requireAuth(w.handleDashboard))
}

func (w *Web) render(wr http.ResponseWriter, name string, data any) {
	if err := w.tpl.ExecuteTemplate(wr, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("template render failed")
	}
}

func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(wr http.ResponseWriter, r *http.Request) {
		if w.username == "" || w.password == "" {
			http.Error(wr, "WEB_USERNAME/WEB_PASSWORD not set", http.StatusForbidden)
			return
		}
		c, err := r.Cookie("auth")
		if err != nil || c.Value != "1" {
			http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
			return
		}
		next(wr, r)
	}
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.render(wr, "login.html", map[string]any{"Error": r.URL.Query().Get("error")})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Redirect(wr, r, "/web/login?error=invalid+form", http.StatusSeeOther)
			return
		}
		if r.Form.Get("username") == w.username && r.Form.Get("password") == w.password {
			http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "1", Path: "/", HttpOnly: true})
			http.Redirect(wr, r, "/web/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(wr, r, "/web/login?error=invalid+credentials", http.StatusSeeOther)
	default:
		wr.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
	http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "", Path: "/", MaxAge: -1})
	http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
}

func (w *Web) handleDashboard(wr http.ResponseWriter, r *http.Request) {
	records, err := w.vocab.List(r.Context(), 100)
	if err != nil {
		log.Error().Err(err).Msg("dashboard vocabulary list failed")
		http.Error(wr, "vocabulary unavailable", http.StatusInternalServerError)
		return
	}
	count, err := w.vocab.Count(r.Context())
	if err != nil {
		count = int64(len(records))
	}
	w.render(wr, "dashboard.html", map[string]any{
		"Username": w.username,
		"Count":    count,
		"Records":  records,
	})
}
