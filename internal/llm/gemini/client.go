package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/llm"
)

// Generate implements llm.Generator against the generateContent REST API.
// The image travels inline (base64) next to the instruction prompt; the
// response's first candidate text is returned verbatim for repair downstream.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	key := c.apiKey()
	if key == "" {
		return "", common.ErrNoAPIKey
	}

	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("gemini.generate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mime_type", req.MimeType,
		"image_bytes", len(req.Image),
		"temp", req.Temperature,
	)

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model, key)

	payload := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{
						"inlineData": map[string]any{
							"data":     base64.StdEncoding.EncodeToString(req.Image),
							"mimeType": req.MimeType,
						},
					},
					{"text": req.Prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":      req.Temperature,
			"responseMimeType": "application/json",
		},
	}

	raw, status, err := llm.SendJSON(ctx, c.http, url, payload, nil, c.logger)
	if err != nil {
		classified := classifyStatus(status, err)
		c.logger.Error("gemini.generate.http_error",
			"req_id", rid, "status", status, "error", classified,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", classified
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.logger.Error("gemini.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode gemini response: %w", common.ErrMalformedResponse)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		c.logger.Error("gemini.generate.no_candidates",
			"req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("empty gemini response: %w", common.ErrMalformedResponse)
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	c.logger.Info("gemini.generate.ok",
		"req_id", rid,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// classifyStatus maps provider HTTP failures onto the pipeline taxonomy so
// callers can report credential problems and rate limits distinctly.
func classifyStatus(status int, err error) error {
	switch status {
	case http.StatusForbidden, http.StatusUnauthorized:
		return fmt.Errorf("gemini status %d: %w", status, common.ErrPermissionDenied)
	case http.StatusTooManyRequests:
		return fmt.Errorf("gemini status %d: %w", status, common.ErrRateLimited)
	default:
		return fmt.Errorf("gemini call failed: %w", err)
	}
}
