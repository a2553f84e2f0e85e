// Package upi parses and validates UPI payment QR payloads.
package upi

import (
	"net/url"
	"regexp"
	"strings"
)

const schemePrefix = "upi://pay"

var vpaPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9._-]+$`)

// Data holds the query parameters carried by a UPI payment QR.
type Data struct {
	PayeeAddress string // pa, the payee VPA
	PayeeName    string // pn
	Amount       string // am
	Currency     string // cu
	Note         string // tn
	Reference    string // tr
	MerchantCode string // mc
	Extra        map[string]string
}

// Parse extracts UPI payment data from a decoded QR string. The second
// return value reports whether the string is a UPI payment code at all;
// non-UPI strings are not an error, most scanned QRs are something else.
func Parse(raw string) (*Data, bool) {
	if !strings.HasPrefix(raw, schemePrefix) {
		return nil, false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}

	data := &Data{}
	for key, values := range parsed.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		switch key {
		case "pa":
			data.PayeeAddress = value
		case "pn":
			data.PayeeName = value
		case "am":
			data.Amount = value
		case "cu":
			data.Currency = value
		case "tn":
			data.Note = value
		case "tr":
			data.Reference = value
		case "mc":
			data.MerchantCode = value
		default:
			if data.Extra == nil {
				data.Extra = map[string]string{}
			}
			data.Extra[key] = value
		}
	}

	return data, true
}

// Validate reports whether the parsed data identifies a usable payee.
// The payee address and name are mandatory, the address must look like
// local@domain, and any declared currency must be INR.
func Validate(data *Data) bool {
	if data == nil {
		return false
	}
	if data.PayeeAddress == "" || data.PayeeName == "" {
		return false
	}
	if !vpaPattern.MatchString(data.PayeeAddress) {
		return false
	}
	if data.Currency != "" && !strings.EqualFold(data.Currency, "INR") {
		return false
	}
	return true
}
