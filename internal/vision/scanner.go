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

// ScannerConfig points at the legacy scanner microservice.
type ScannerConfig struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Scanner wraps the legacy scanner service, the last rung of the chain. Its
// detections envelope carries a JSON string in the data field.
type Scanner struct {
	baseURL    string
	httpClient *http.Client
}

// NewScanner builds the legacy scanner provider.
func NewScanner(cfg ScannerConfig) (*Scanner, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("scanner base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Scanner{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Name identifies the provider in logs and metrics.
func (s *Scanner) Name() string { return "scanner" }

// Detect posts the frame to the scan endpoint and unwraps the envelope.
func (s *Scanner) Detect(ctx context.Context, frame string, mode enums.ScanMode) ([]Detection, error) {
	payload := map[string]any{
		"frame": frame,
		"mode":  mode.String(),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal scanner request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/scan", bytes.NewReader(encoded))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build scanner request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute scanner request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read scanner response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("scanner status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var envelope struct {
		Success bool    `json:"success"`
		Data    string  `json:"data"`
		Error   *string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode scanner envelope")
	}
	if !envelope.Success {
		msg := "scanner reported failure"
		if envelope.Error != nil && *envelope.Error != "" {
			msg = *envelope.Error
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg)
	}

	var data struct {
		Detections []Detection `json:"detections"`
	}
	if err := json.Unmarshal([]byte(envelope.Data), &data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode scanner detections")
	}
	if len(data.Detections) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "scanner returned no detections")
	}
	return data.Detections, nil
}
