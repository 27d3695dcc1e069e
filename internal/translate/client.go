// Package translate calls the generative language endpoint that performs translations.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrEmptyTranslation is returned when the endpoint answers without usable text
var ErrEmptyTranslation = errors.New("no translation in response")

// Request is one text to translate between two languages
type Request struct {
	Text       string
	SourceName string
	TargetName string
}

// UpstreamError is a non-success answer from the endpoint
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("translate endpoint: %d: %s", e.StatusCode, e.Message)
}

// Config holds endpoint settings
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the generateContent endpoint
type Client struct {
	cfg  Config
	http *resty.Client
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// New creates a client
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	c := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{cfg: cfg, http: c}
}

// Translate sends the prompt for req and returns the trimmed translation
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	body := generateRequest{Contents: []content{{Parts: []part{{Text: BuildPrompt(req)}}}}}

	var result generateResponse
	var failure errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post(c.endpoint())
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	if resp.IsError() {
		msg := strings.TrimSpace(failure.Error.Message)
		if msg == "" {
			msg = resp.Status()
		}
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Message: msg}
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyTranslation
	}
	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyTranslation
	}
	return text, nil
}

func (c *Client) endpoint() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return base + "/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"
}

// BuildPrompt renders the instruction sent to the model
func BuildPrompt(req Request) string {
	return fmt.Sprintf(
		"Translate from %s to %s. Reply only with the direct translation, without adding any words, explanation or extra context. Text to translate: \"%s\"",
		req.SourceName, req.TargetName, req.Text,
	)
}
