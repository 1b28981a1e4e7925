package gemini

import (
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// Config for the Gemini client.
type Config struct {
	APIKey  string        // if empty, falls back to env GEMINI_API_KEY
	BaseURL string        // default https://generativelanguage.googleapis.com/v1beta
	Model   string        // e.g., "gemini-1.5-flash"
	Timeout time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	key    atomic.Value // string; single writer (ReloadKey), many readers
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 40 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	c.key.Store(cfg.APIKey)
	return c
}

// ReloadKey re-reads the API key from the environment. The key is only ever
// replaced with a non-empty value, so concurrent readers observe either the
// old or the new key, never an invalidated one.
func (c *Client) ReloadKey() {
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		c.key.Store(k)
		c.logger.Info("gemini.key_reloaded")
	}
}

func (c *Client) apiKey() string {
	k, _ := c.key.Load().(string)
	return k
}

// Ready reports whether an API credential is configured.
func (c *Client) Ready() bool {
	return c.apiKey() != ""
}
