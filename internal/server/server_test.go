package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/readcompanion/internal/llm"
	"github.com/local/readcompanion/internal/settings"
	"github.com/local/readcompanion/internal/vocab"
)

type stubTranslator struct {
	out     string
	err     error
	lastIn  llm.Input
	testOut string
	testErr error
}

func (s *stubTranslator) Translate(_ context.Context, in llm.Input) (string, error) {
	s.lastIn = in
	return s.out, s.err
}

func (s *stubTranslator) TestConnection(context.Context) (string, error) {
	return s.testOut, s.testErr
}

type memStore struct {
	records []vocab.Record
	saveErr error
	pingErr error
}

func (m *memStore) Save(_ context.Context, r vocab.Record) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	r.ID = "rec-1"
	m.records = append(m.records, r)
	return r.ID, nil
}

func (m *memStore) List(context.Context, int) ([]vocab.Record, error) { return m.records, nil }

func (m *memStore) Delete(_ context.Context, id string) error {
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memStore) Count(context.Context) (int64, error) { return int64(len(m.records)), nil }
func (m *memStore) Ping(context.Context) error           { return m.pingErr }

type memArchiver struct {
	lastKey  string
	lastData []byte
	err      error
}

func (a *memArchiver) Upload(_ context.Context, key string, data []byte, _, _ string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.lastKey = key
	a.lastData = data
	return "s3://bucket/" + key, nil
}

func (a *memArchiver) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T, deps Dependencies) *httptest.Server {
	t.Helper()
	if deps.Settings == nil {
		deps.Settings = settings.MapStore{"provider": "openai", "openai.apiKey": "sk", "targetLanguage": "es"}
	}
	mux := http.NewServeMux()
	New(deps).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestTranslateSavesRecord(t *testing.T) {
	tr := &stubTranslator{out: "correr"}
	store := &memStore{}
	srv := newTestServer(t, Dependencies{Translator: tr, Vocab: store})

	resp := postJSON(t, srv.URL+"/api/translate", map[string]any{
		"text":           "run",
		"pageScreenshot": "data:image/png;base64,AAAA",
		"pageNumber":     4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out translateResponse
	decodeJSON(t, resp, &out)
	assert.Equal(t, "correr", out.Translation)
	assert.Equal(t, "rec-1", out.ID)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, "run", rec.Text)
	assert.Equal(t, "correr", rec.Translation)
	assert.Equal(t, "es", rec.TargetLang)
	assert.Equal(t, 4, rec.PageNumber)
	assert.True(t, rec.HadImage)
	assert.Equal(t, "openai", rec.Provider)
	assert.Equal(t, "gpt-4o", rec.Model)

	assert.Equal(t, "run", tr.lastIn.Text)
	assert.Equal(t, 4, tr.lastIn.PageNumber)
}

func TestTranslateStorageFailureStillReturnsTranslation(t *testing.T) {
	tr := &stubTranslator{out: "correr"}
	store := &memStore{saveErr: errors.New("redis down")}
	srv := newTestServer(t, Dependencies{Translator: tr, Vocab: store})

	resp := postJSON(t, srv.URL+"/api/translate", map[string]any{"text": "run"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out translateResponse
	decodeJSON(t, resp, &out)
	assert.Equal(t, "correr", out.Translation)
	assert.Empty(t, out.ID)
}

func TestTranslateConfigError(t *testing.T) {
	tr := &stubTranslator{err: &llm.ConfigError{Provider: llm.ProviderBedrock}}
	srv := newTestServer(t, Dependencies{Translator: tr, Vocab: &memStore{}})

	resp := postJSON(t, srv.URL+"/api/translate", map[string]any{"text": "run"})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	var out map[string]string
	decodeJSON(t, resp, &out)
	assert.Contains(t, out["error"], "not configured")
}

func TestTranslateProviderError(t *testing.T) {
	tr := &stubTranslator{err: &llm.HTTPError{Provider: llm.ProviderOpenAI, StatusCode: 500, Body: "boom"}}
	srv := newTestServer(t, Dependencies{Translator: tr, Vocab: &memStore{}})

	resp := postJSON(t, srv.URL+"/api/translate", map[string]any{"text": "run"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestTranslateInvalidBody(t *testing.T) {
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: &memStore{}})
	resp, err := http.Post(srv.URL+"/api/translate", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestTestConnection(t *testing.T) {
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{testOut: "OK"}, Vocab: &memStore{}})

	resp, err := http.Get(srv.URL + "/api/test_connection")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	decodeJSON(t, resp, &out)
	assert.Equal(t, "OK", out["result"])
}

func TestVocabularyListAndDelete(t *testing.T) {
	store := &memStore{records: []vocab.Record{{ID: "a", Text: "uno"}, {ID: "b", Text: "dos"}}}
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: store})

	resp, err := http.Get(srv.URL + "/api/vocabulary")
	require.NoError(t, err)
	var out struct {
		Count   int64          `json:"count"`
		Records []vocab.Record `json:"records"`
	}
	decodeJSON(t, resp, &out)
	assert.Equal(t, int64(2), out.Count)
	require.Len(t, out.Records, 2)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/vocabulary/a", nil)
	dresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, dresp.StatusCode)
	dresp.Body.Close()
	assert.Len(t, store.records, 1)
}

func TestVocabularyExportCSV(t *testing.T) {
	store := &memStore{records: []vocab.Record{{ID: "a", Text: "uno", Translation: "one"}}}
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: store})

	resp, err := http.Get(srv.URL + "/api/vocabulary/export?format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "text,translation")
	assert.Contains(t, buf.String(), "uno,one")
}

func TestVocabularyExportBadFormat(t *testing.T) {
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: &memStore{}})
	resp, err := http.Get(srv.URL + "/api/vocabulary/export?format=xlsx")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestVocabularyExportToArchive(t *testing.T) {
	store := &memStore{records: []vocab.Record{{ID: "a", Text: "uno"}}}
	arch := &memArchiver{}
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: store, Archiver: arch})

	resp, err := http.Get(srv.URL + "/api/vocabulary/export?format=tsv&archive=1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	decodeJSON(t, resp, &out)
	assert.Contains(t, out["archived"], "s3://bucket/exports/")
	assert.Contains(t, arch.lastKey, ".tsv")
	assert.Contains(t, string(arch.lastData), "text\ttranslation")
}

func TestVocabularyExportArchiveNotConfigured(t *testing.T) {
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: &memStore{}})
	resp, err := http.Get(srv.URL + "/api/vocabulary/export?archive=1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSnapshotMissingFile(t *testing.T) {
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: &memStore{}})
	resp, err := http.Post(srv.URL+"/api/snapshot", "multipart/form-data; boundary=x", strings.NewReader("--x--\r\n"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: &memStore{}})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	down := newTestServer(t, Dependencies{Translator: &stubTranslator{}, Vocab: &memStore{pingErr: errors.New("no redis")}})
	resp, err = http.Get(down.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}
