package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
)

const (
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel          = "gemini-1.5-flash"
)

// GeminiConfig configures one Gemini rung of the chain. Label distinguishes
// the rungs when several API keys are rotated through.
type GeminiConfig struct {
	APIKey     string
	Label      string
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini asks the generateContent endpoint for a single JSON product analysis.
type Gemini struct {
	apiKey     string
	label      string
	baseURL    string
	httpClient *http.Client
}

// NewGemini builds a Gemini provider.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	label := strings.TrimSpace(cfg.Label)
	if label == "" {
		label = "gemini"
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Gemini{
		apiKey:     key,
		label:      label,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Name identifies the provider in logs and metrics.
func (g *Gemini) Name() string { return g.label }

// Detect sends the frame inline and parses the model's JSON answer.
func (g *Gemini) Detect(ctx context.Context, frame string, mode enums.ScanMode) ([]Detection, error) {
	payload := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{{
				"text": analysisPrompt(mode),
				"inline_data": map[string]any{
					"mime_type": "image/jpeg",
					"data":      stripDataURLPrefix(frame),
				},
			}},
		}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal gemini request")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, geminiModel, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gemini request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gemini request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gemini response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gemini response")
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "empty gemini response")
	}

	detection, err := detectionFromAnswer(result.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse gemini answer")
	}
	return []Detection{*detection}, nil
}

// stripDataURLPrefix drops the "data:image/jpeg;base64," header when the
// frame arrives as a data URL.
func stripDataURLPrefix(frame string) string {
	if idx := strings.Index(frame, ","); idx >= 0 && strings.HasPrefix(frame, "data:") {
		return frame[idx+1:]
	}
	return frame
}
