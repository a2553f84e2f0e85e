package vision

import "github.com/ecoscan-in/ecoscan-backend/pkg/config"

func chainVisionConfig() config.VisionConfig {
	return config.VisionConfig{
		MoondreamAPIKey: "md",
		GeminiAPIKey:    "g1",
		GeminiAPIKey2:   "g2",
		GeminiAPIKey3:   "g3",
		OpenAIAPIKey:    "oa",
		MinConfidence:   0.7,
	}
}

func chainScannerConfig() config.ScannerConfig {
	return config.ScannerConfig{BaseURL: "http://scanner.test"}
}

func emptyVisionConfig() config.VisionConfig {
	return config.VisionConfig{MinConfidence: 0.7}
}

func emptyScannerConfig() config.ScannerConfig {
	return config.ScannerConfig{}
}
