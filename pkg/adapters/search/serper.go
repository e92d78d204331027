package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultEndpoint is the Serper web search endpoint.
const DefaultEndpoint = "https://google.serper.dev/search"

// Config configures the Serper client.
type Config struct {
	Endpoint   string
	APIKey     string
	NumResults int
	Timeout    time.Duration
	RPS        float64 // Zero disables rate limiting
}

// Serper implements ports.Searcher against a Serper-compatible API.
type Serper struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSerper creates a client.
func NewSerper(cfg Config) (*Serper, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("search: api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &Serper{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return s, nil
}

type serperResponse struct {
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox,omitempty"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns the answer box (if any) and organic snippets, one per line.
func (s *Serper) Search(ctx context.Context, query string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(map[string]any{"q": query, "num": s.config.NumResults})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("search API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	var lines []string
	if out.AnswerBox != nil {
		if a := firstNonEmpty(out.AnswerBox.Answer, out.AnswerBox.Snippet); a != "" {
			lines = append(lines, a)
		}
	}
	for _, r := range out.Organic {
		if r.Snippet == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", r.Title, r.Snippet))
	}
	if len(lines) == 0 {
		return "No good search result found.", nil
	}
	return strings.Join(lines, "\n"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ErrNotConfigured is returned by Unavailable.
var ErrNotConfigured = errors.New("web search is not configured")

// Unavailable is a Searcher for deployments without a search API key.
type Unavailable struct{}

func (Unavailable) Search(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
