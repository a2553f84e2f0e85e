// Package vision identifies products in camera frames by querying a chain
// of image-understanding providers in priority order.
package vision

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
)

// Detection is the normalized result every provider maps its output into.
type Detection struct {
	Brand           string  `json:"brand"`
	Name            string  `json:"name"`
	Material        string  `json:"material"`
	Description     string  `json:"description"`
	NetWeight       float64 `json:"net_weight"`
	MeasurementUnit string  `json:"measurement_unit"`
	Confidence      float64 `json:"confidence"`
}

// Provider is a single rung of the detection fallback chain.
type Provider interface {
	Name() string
	Detect(ctx context.Context, frame string, mode enums.ScanMode) ([]Detection, error)
}

// Pinger is implemented by providers that support a lightweight liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Confidence assigned to LLM answers that do not self-report one.
const defaultLLMConfidence = 0.75

func analysisPrompt(mode enums.ScanMode) string {
	if mode == enums.ScanModeRetailer {
		return "Analyze this image and identify the retail storefront, shop signboard, or merchant branding. " +
			"Return a JSON object with: brand, name, material, description, net_weight, measurement_unit, confidence (0 to 1). " +
			"Use null for fields that do not apply."
	}
	return "Analyze this image and identify any consumer products, food items, beverages, or packaged goods. " +
		"Return a JSON object with: brand, name, material, description, net_weight, measurement_unit, confidence (0 to 1). " +
		"If no products found, return null values."
}

// stripMarkdownFences removes the ```json wrappers LLMs tend to add around
// JSON answers.
func stripMarkdownFences(answer string) string {
	cleaned := strings.ReplaceAll(answer, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// detectionFromAnswer parses a JSON object out of an LLM text answer. Numeric
// fields arrive as strings often enough that the decode stays lenient.
func detectionFromAnswer(answer string) (*Detection, error) {
	var raw struct {
		Brand           *string          `json:"brand"`
		Name            *string          `json:"name"`
		Material        *string          `json:"material"`
		Description     *string          `json:"description"`
		NetWeight       *json.RawMessage `json:"net_weight"`
		MeasurementUnit *string          `json:"measurement_unit"`
		Confidence      *float64         `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripMarkdownFences(answer)), &raw); err != nil {
		return nil, err
	}

	detection := &Detection{
		Confidence: defaultLLMConfidence,
	}
	if raw.Brand != nil {
		detection.Brand = *raw.Brand
	}
	if raw.Name != nil {
		detection.Name = *raw.Name
	}
	if raw.Material != nil {
		detection.Material = *raw.Material
	}
	if raw.Description != nil {
		detection.Description = *raw.Description
	}
	if raw.MeasurementUnit != nil {
		detection.MeasurementUnit = *raw.MeasurementUnit
	}
	if raw.Confidence != nil {
		detection.Confidence = *raw.Confidence
	}
	if raw.NetWeight != nil {
		detection.NetWeight = parseLenientFloat(*raw.NetWeight)
	}
	return detection, nil
}

func parseLenientFloat(raw json.RawMessage) float64 {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		var parsed float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err == nil {
			return parsed
		}
	}
	return 0
}
