package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/readcompanion/internal/vocab"
)

type fakeVocab struct{ records []vocab.Record }

func (f *fakeVocab) List(context.Context, int) ([]vocab.Record, error) { return f.records, nil }
func (f *fakeVocab) Count(context.Context) (int64, error)             { return int64(len(f.records)), nil }

func testWeb(t *testing.T) *httptest.Server {
	t.Helper()
	w := New(&fakeVocab{records: []vocab.Record{{Text: "run", Translation: "correr", TargetLang: "es"}}}, "admin", "pw")
	mux := http.NewServeMux()
	w.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func TestDashboardRequiresAuth(t *testing.T) {
	srv := testWeb(t)
	resp, err := noRedirectClient().Get(srv.URL + "/web/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/web/login", resp.Header.Get("Location"))
}

func TestLoginAndDashboard(t *testing.T) {
	srv := testWeb(t)
	client := noRedirectClient()

	resp, err := client.PostForm(srv.URL+"/web/login", url.Values{
		"username": {"admin"},
		"password": {"pw"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var auth *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "auth" {
			auth = c
		}
	}
	require.NotNil(t, auth)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/web/dashboard", nil)
	req.AddCookie(auth)
	dresp, err := client.Do(req)
	require.NoError(t, err)
	defer dresp.Body.Close()
	require.Equal(t, http.StatusOK, dresp.StatusCode)

	b, err := io.ReadAll(dresp.Body)
	require.NoError(t, err)
	body := string(b)
	assert.Contains(t, body, "correr")
	assert.Contains(t, body, "(1 records)")
}

func TestLoginBadCredentials(t *testing.T) {
	srv := testWeb(t)
	resp, err := noRedirectClient().PostForm(srv.URL+"/web/login", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "error=")
}
