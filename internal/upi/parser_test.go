package upi

import "testing"

func TestParseRecognizesUPIPayScheme(t *testing.T) {
	data, ok := Parse("upi://pay?pa=kirana.store@ybl&pn=Kirana%20Store&cu=INR&mc=5411")
	if !ok {
		t.Fatal("expected upi string to be recognized")
	}
	if data.PayeeAddress != "kirana.store@ybl" {
		t.Fatalf("unexpected payee address %q", data.PayeeAddress)
	}
	if data.PayeeName != "Kirana Store" {
		t.Fatalf("expected percent decoding, got %q", data.PayeeName)
	}
	if data.Currency != "INR" {
		t.Fatalf("unexpected currency %q", data.Currency)
	}
	if data.MerchantCode != "5411" {
		t.Fatalf("unexpected merchant code %q", data.MerchantCode)
	}
}

func TestParseRejectsNonUPIStrings(t *testing.T) {
	cases := []string{
		"",
		"https://example.com/pay?pa=a@b",
		"8901234567890",
		"UPI://PAY?pa=a@b&pn=x",
	}
	for _, raw := range cases {
		if _, ok := Parse(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestParseKeepsUnknownParams(t *testing.T) {
	data, ok := Parse("upi://pay?pa=a@b&pn=x&sign=abc123")
	if !ok {
		t.Fatal("expected upi string to be recognized")
	}
	if data.Extra["sign"] != "abc123" {
		t.Fatalf("expected unknown param to be kept, got %+v", data.Extra)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		data *Data
		want bool
	}{
		{
			name: "valid minimal",
			data: &Data{PayeeAddress: "store@upi", PayeeName: "Store"},
			want: true,
		},
		{
			name: "valid with lowercase currency",
			data: &Data{PayeeAddress: "store@upi", PayeeName: "Store", Currency: "inr"},
			want: true,
		},
		{
			name: "missing payee address",
			data: &Data{PayeeName: "Store"},
			want: false,
		},
		{
			name: "missing payee name",
			data: &Data{PayeeAddress: "store@upi"},
			want: false,
		},
		{
			name: "malformed vpa",
			data: &Data{PayeeAddress: "not a vpa", PayeeName: "Store"},
			want: false,
		},
		{
			name: "vpa missing domain",
			data: &Data{PayeeAddress: "store@", PayeeName: "Store"},
			want: false,
		},
		{
			name: "foreign currency",
			data: &Data{PayeeAddress: "store@upi", PayeeName: "Store", Currency: "USD"},
			want: false,
		},
		{
			name: "nil data",
			data: nil,
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Validate(tc.data); got != tc.want {
				t.Fatalf("Validate() = %v, want %v", got, tc.want)
			}
		})
	}
}
