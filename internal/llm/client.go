package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	mpkg "github.com/local/readcompanion/internal/metrics"
	"github.com/local/readcompanion/internal/settings"
)

// Fixed inference parameters shared by both providers.
const (
	maxOutputTokens = 4096
	temperature     = 0.1
)

// Input is what the reading surface hands over: the selected text, an
// optional page screenshot as a data URI, and the page number when known.
type Input struct {
	Text           string
	PageScreenshot string
	PageNumber     int
}

// Client is the unified dispatcher over the configured provider. It holds no
// per-call state; every call resolves configuration and builds its own
// request, so concurrent translations do not interfere.
type Client struct {
	settings settings.Store
	http     *http.Client
}

func New(store settings.Store) *Client {
	return &Client{settings: store, http: &http.Client{Timeout: 60 * time.Second}}
}

// CallModel resolves configuration, routes to the matching builder+caller
// pair, and returns the extracted assistant text, trimmed. This is the single
// seam new providers plug into.
func (c *Client) CallModel(ctx context.Context, systemPrompt, userText, image string) (string, error) {
	cfg, err := ResolveConfig(c.settings)
	if err != nil {
		return "", err
	}

	start := time.Now()
	var text string
	switch cfg.Provider {
	case ProviderBedrock:
		text, err = c.callBedrock(ctx, cfg, systemPrompt, userText, image)
	case ProviderOpenAI:
		text, err = c.callOpenAI(ctx, cfg, systemPrompt, userText, image)
	}
	dur := time.Since(start)

	result := "success"
	if err != nil {
		result = classifyResult(err)
	}
	mpkg.ObserveProvider(cfg.Provider.String(), cfg.ModelID, result, dur)

	if err != nil {
		log.Warn().
			Str("provider", cfg.Provider.String()).
			Str("model", cfg.ModelID).
			Dur("duration", dur).
			Str("result", result).
			Err(err).
			Msg("model call failed")
		return "", err
	}

	log.Debug().
		Str("provider", cfg.Provider.String()).
		Str("model", cfg.ModelID).
		Dur("duration", dur).
		Bool("image", image != "").
		Msg("model call success")
	return strings.TrimSpace(text), nil
}

// Translate is the primary operation: build the prompt for the selection,
// call the model, and on an image-related failure retry exactly once with
// the image omitted. Any other failure, or a second failure after the
// fallback, propagates unchanged.
func (c *Client) Translate(ctx context.Context, in Input) (string, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return "", errors.New("empty selection")
	}

	singleWord := IsSingleWord(text)
	targetLang := c.settings.Get("targetLanguage", "en")

	image := ""
	if settings.Bool(c.settings, "enableImageContext", true) {
		image = in.PageScreenshot
	}

	systemPrompt := BuildSystemPrompt(targetLang, singleWord, image != "")
	userText := UserText(singleWord, text)

	out, err := c.CallModel(ctx, systemPrompt, userText, image)
	if err != nil && image != "" && IsImageUnsupportedError(err) {
		log.Warn().
			Int("page", in.PageNumber).
			Err(err).
			Msg("model rejected image input - retrying without image")
		mpkg.IncFallback()
		return c.CallModel(ctx, systemPrompt, userText, "")
	}
	return out, err
}

// TestConnection validates the active configuration end to end with a fixed
// diagnostic prompt and no image.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	return c.CallModel(ctx,
		"You are a connection test. Answer as briefly as possible.",
		"Reply with the single word OK.",
		"")
}

func classifyResult(err error) string {
	var cfgErr *ConfigError
	var httpErr *HTTPError
	var respErr *ResponseError
	switch {
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &respErr):
		return "bad_response"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
