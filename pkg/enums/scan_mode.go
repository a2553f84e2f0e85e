package enums

import "fmt"

// ScanMode selects the prompt family used by vision providers.
type ScanMode string

const (
	// ScanModeProduct asks providers to identify consumer products in frame.
	ScanModeProduct ScanMode = "product"
	// ScanModeRetailer asks providers to identify merchant/retailer signage or QR.
	ScanModeRetailer ScanMode = "retailer"
)

var validScanModes = []ScanMode{ScanModeProduct, ScanModeRetailer}

func (m ScanMode) String() string {
	return string(m)
}

func (m ScanMode) IsValid() bool {
	for _, candidate := range validScanModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseScanMode converts raw input into a ScanMode, defaulting empty input to
// product identification.
func ParseScanMode(value string) (ScanMode, error) {
	if value == "" {
		return ScanModeProduct, nil
	}
	for _, candidate := range validScanModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scan mode %q", value)
}
