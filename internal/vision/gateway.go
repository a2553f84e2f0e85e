package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/ecoscan-in/ecoscan-backend/pkg/config"
	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/metrics"
)

// Gateway runs a frame through the provider chain and selects the winning
// detection.
type Gateway interface {
	Detect(ctx context.Context, frame string, mode enums.ScanMode) (*Detection, error)
	Health(ctx context.Context) HealthReport
}

// ProviderHealth is the probe result for one chain rung.
type ProviderHealth struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// HealthReport summarizes the chain's readiness. HasPrimary reports whether
// the Moondream rung made it into the chain, i.e. its key is configured.
type HealthReport struct {
	Status     string           `json:"status"`
	HasPrimary bool             `json:"hasPrimary"`
	Providers  []ProviderHealth `json:"providers"`
}

type gateway struct {
	providers     []Provider
	minConfidence float64
	metrics       *metrics.VisionMetrics
}

// NewGateway builds the gateway over an ordered provider chain. The metrics
// argument may be nil.
func NewGateway(providers []Provider, minConfidence float64, vm *metrics.VisionMetrics) (Gateway, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one vision provider is required")
	}
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("vision provider %d is nil", i)
		}
	}
	if minConfidence <= 0 || minConfidence > 1 {
		return nil, fmt.Errorf("min confidence must be in (0, 1], got %f", minConfidence)
	}
	return &gateway{
		providers:     providers,
		minConfidence: minConfidence,
		metrics:       vm,
	}, nil
}

// BuildChain assembles the provider chain from configuration, skipping rungs
// without credentials. Order is fixed: Moondream, the Gemini keys, OpenAI,
// then the legacy scanner service.
func BuildChain(visionCfg config.VisionConfig, scannerCfg config.ScannerConfig) ([]Provider, error) {
	var providers []Provider

	if strings.TrimSpace(visionCfg.MoondreamAPIKey) != "" {
		moondream, err := NewMoondream(MoondreamConfig{APIKey: visionCfg.MoondreamAPIKey})
		if err != nil {
			return nil, fmt.Errorf("build moondream provider: %w", err)
		}
		providers = append(providers, moondream)
	}

	geminiKeys := []struct {
		key   string
		label string
	}{
		{visionCfg.GeminiAPIKey, "gemini"},
		{visionCfg.GeminiAPIKey2, "gemini2"},
		{visionCfg.GeminiAPIKey3, "gemini3"},
	}
	for _, entry := range geminiKeys {
		if strings.TrimSpace(entry.key) == "" {
			continue
		}
		gemini, err := NewGemini(GeminiConfig{APIKey: entry.key, Label: entry.label})
		if err != nil {
			return nil, fmt.Errorf("build %s provider: %w", entry.label, err)
		}
		providers = append(providers, gemini)
	}

	if strings.TrimSpace(visionCfg.OpenAIAPIKey) != "" {
		openai, err := NewOpenAI(OpenAIConfig{APIKey: visionCfg.OpenAIAPIKey})
		if err != nil {
			return nil, fmt.Errorf("build openai provider: %w", err)
		}
		providers = append(providers, openai)
	}

	if strings.TrimSpace(scannerCfg.BaseURL) != "" {
		scanner, err := NewScanner(ScannerConfig{BaseURL: scannerCfg.BaseURL})
		if err != nil {
			return nil, fmt.Errorf("build scanner provider: %w", err)
		}
		providers = append(providers, scanner)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no vision providers configured")
	}
	return providers, nil
}

// Detect tries each provider in order and returns the first confident
// detection. A provider that answers with only low-confidence detections
// ends the scan; the frame was readable, there is just nothing to report.
func (g *gateway) Detect(ctx context.Context, frame string, mode enums.ScanMode) (*Detection, error) {
	if strings.TrimSpace(frame) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "frame is required")
	}
	if !mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid scan mode %q", mode))
	}

	var failures error
	for _, provider := range g.providers {
		start := time.Now()
		detections, err := provider.Detect(ctx, frame, mode)
		g.metrics.ObserveRequest(provider.Name(), time.Since(start))

		if err != nil {
			g.metrics.IncFailure(provider.Name())
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", provider.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(detections) == 0 {
			g.metrics.IncFailure(provider.Name())
			failures = multierr.Append(failures, fmt.Errorf("%s: no detections", provider.Name()))
			continue
		}

		best := pickBest(detections)
		if best.Confidence < g.minConfidence {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no product detected with sufficient confidence").
				WithDetails(map[string]any{
					"provider":   provider.Name(),
					"confidence": best.Confidence,
					"threshold":  g.minConfidence,
				})
		}
		return &best, nil
	}

	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, failures, "all vision providers failed")
}

// Health probes every rung that supports probing. Providers without a probe
// count as available once configured. The status is healthy when the whole
// chain responds, warning when only part of it does, error when nothing does.
func (g *gateway) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Providers: make([]ProviderHealth, 0, len(g.providers)),
	}
	available := 0
	for _, provider := range g.providers {
		if provider.Name() == NameMoondream {
			report.HasPrimary = true
		}
		health := ProviderHealth{Name: provider.Name(), Available: true}
		if pinger, ok := provider.(Pinger); ok {
			if err := pinger.Ping(ctx); err != nil {
				health.Available = false
				health.Error = err.Error()
			}
		}
		if health.Available {
			available++
		}
		report.Providers = append(report.Providers, health)
	}
	switch {
	case available == len(g.providers):
		report.Status = "healthy"
	case available > 0:
		report.Status = "warning"
	default:
		report.Status = "error"
	}
	return report
}

// pickBest keeps the first detection seen on equal confidence.
func pickBest(detections []Detection) Detection {
	best := detections[0]
	for _, candidate := range detections[1:] {
		if candidate.Confidence > best.Confidence {
			best = candidate
		}
	}
	return best
}
