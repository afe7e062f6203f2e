package settings

import (
	"os"
	"strings"
)

// Store is a read-only view of the user's settings. The provider layer
// resolves its configuration through this seam on every call so that
// settings changes take effect without a restart.
type Store interface {
	Get(key, def string) string
}

// EnvStore reads settings from environment variables. Dotted keys map to
// upper snake case: "openai.apiKey" -> "OPENAI_API_KEY".
type EnvStore struct{}

func NewEnvStore() EnvStore { return EnvStore{} }

func (EnvStore) Get(key, def string) string {
	if v := os.Getenv(envKey(key)); v != "" {
		return v
	}
	return def
}

func envKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r == '.':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// MapStore is an in-memory Store for tests and embedded callers.
type MapStore map[string]string

func (m MapStore) Get(key, def string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return def
}

// Bool interprets a settings value the way the rest of the config layer does.
func Bool(s Store, key string, def bool) bool {
	d := "false"
	if def {
		d = "true"
	}
	v := strings.ToLower(strings.TrimSpace(s.Get(key, d)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
