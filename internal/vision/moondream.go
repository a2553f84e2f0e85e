package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
)

// NameMoondream identifies the primary provider in the chain; the health
// endpoint keys off it to report whether the primary key is configured.
const NameMoondream = "moondream"

const (
	moondreamDefaultBaseURL = "https://api.moondream.ai/v1"

	// 1x1 white JPEG used by the liveness probe.
	moondreamProbeImage = "data:image/jpeg;base64,/9j/4AAQSkZJRgABAQAAAQABAAD/2wBDAAYEBQYFBAYGBQYHBwYIChAKCgkJChQODwwQFxQYGBcUFhYaHSUfGhsjHBYWICwgIyYnKSopGR8tMC0oMCUoKSj/2wBDAQcHBwoIChMKChMoGhYaKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCj/wAARCAABAAEDASIAAhEBAxEB/8QAFQABAQAAAAAAAAAAAAAAAAAAAAv/xAAUEAEAAAAAAAAAAAAAAAAAAAAA/8QAFQEBAQAAAAAAAAAAAAAAAAAAAAX/xAAUEQEAAAAAAAAAAAAAAAAAAAAA/9oADAMBAAIRAxEAPwCdABmX/9k="
)

// MoondreamConfig configures the primary detection provider.
type MoondreamConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Moondream runs a three-step query/detect/detail conversation against the
// Moondream vision API and condenses it into a single detection.
type Moondream struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewMoondream builds the Moondream provider.
func NewMoondream(cfg MoondreamConfig) (*Moondream, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("moondream api key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = moondreamDefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Moondream{
		apiKey:     key,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Name identifies the provider in logs and metrics.
func (m *Moondream) Name() string { return NameMoondream }

// Detect lists candidate products, confirms the first one is visible, then
// asks for packaging details. The detail step is best effort; a failed
// confirmation downgrades the confidence rather than failing the scan.
func (m *Moondream) Detect(ctx context.Context, frame string, mode enums.ScanMode) ([]Detection, error) {
	answer, err := m.query(ctx, frame, listPrompt(mode))
	if err != nil {
		return nil, err
	}

	products := splitProductList(answer)
	if len(products) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no products detected in image")
	}
	primary := products[0]

	if err := m.detect(ctx, frame, primary); err != nil {
		return []Detection{{
			Brand:           "Unknown",
			Name:            primary,
			Material:        "Unknown",
			Description:     fmt.Sprintf("Detected product: %s", primary),
			MeasurementUnit: "g",
			Confidence:      0.7,
		}}, nil
	}

	detection := Detection{
		Brand:           "Unknown",
		Name:            primary,
		Material:        "Unknown",
		Description:     fmt.Sprintf("Detected product: %s", primary),
		MeasurementUnit: "g",
		Confidence:      0.85,
	}

	if detailAnswer, err := m.query(ctx, frame, detailPrompt(primary)); err == nil {
		if details, err := detectionFromAnswer(detailAnswer); err == nil {
			if details.Brand != "" {
				detection.Brand = details.Brand
			}
			if details.Material != "" {
				detection.Material = details.Material
			}
			if details.Description != "" {
				detection.Description = details.Description
			}
			if details.NetWeight > 0 {
				detection.NetWeight = details.NetWeight
			}
			if details.MeasurementUnit != "" {
				detection.MeasurementUnit = details.MeasurementUnit
			}
		}
	}

	return []Detection{detection}, nil
}

// Ping sends a minimal query to verify the API key and endpoint.
func (m *Moondream) Ping(ctx context.Context) error {
	_, err := m.query(ctx, moondreamProbeImage, "What objects do you see in this image?")
	return err
}

func (m *Moondream) query(ctx context.Context, frame, question string) (string, error) {
	payload := map[string]any{
		"image_url": frame,
		"question":  question,
		"reasoning": true,
	}
	body, err := m.post(ctx, "/query", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode moondream query response")
	}
	if result.Answer == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "empty answer from moondream query")
	}
	return result.Answer, nil
}

func (m *Moondream) detect(ctx context.Context, frame, object string) error {
	payload := map[string]any{
		"image_url": frame,
		"object":    object,
		"reasoning": true,
	}
	_, err := m.post(ctx, "/detect", payload)
	return err
}

func (m *Moondream) post(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal moondream request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build moondream request")
	}
	req.Header.Set("X-Moondream-Auth", m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute moondream request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read moondream response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("moondream status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return body, nil
}

func listPrompt(mode enums.ScanMode) string {
	if mode == enums.ScanModeRetailer {
		return "List any shop names, merchant signboards, or retail branding you can see in this image. " +
			"Return your answer as a simple comma-separated list."
	}
	return "List all consumer products, food items, beverages, or packaged goods you can see in this image. " +
		"Return your answer as a simple comma-separated list of product names."
}

func detailPrompt(product string) string {
	return fmt.Sprintf(`Analyze this %s and provide the following information in JSON format:
- brand: the brand name
- material: the packaging material (plastic, glass, metal, paper, etc.)
- description: brief product description
- net_weight: numeric weight value if visible
- measurement_unit: unit of measurement (g, kg, ml, l, etc.) if visible

Return only valid JSON with these exact keys. If you cannot determine a value, use null.`, product)
}

func splitProductList(answer string) []string {
	parts := strings.Split(answer, ",")
	products := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			products = append(products, trimmed)
		}
	}
	return products
}
