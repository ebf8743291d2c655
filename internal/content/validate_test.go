package content

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSamples returns one well-formed payload per kind. Tests iterate
// over this to prove the whole closed set validates.
func validSamples() map[Kind]Payload {
	return map[Kind]Payload{
		KindURL:      URLPayload{URL: "https://example.com/page"},
		KindVCard:    VCardPayload{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		KindWifi:     WifiPayload{SSID: "Office", Security: WifiSecurityWPA2, Password: "hunter22"},
		KindText:     TextPayload{Text: "hello world"},
		KindSMS:      SMSPayload{Phone: "+33612345678", Message: "see you"},
		KindEmail:    EmailPayload{To: "contact@example.com", Subject: "hi"},
		KindPhone:    PhonePayload{Number: "+33123456789"},
		KindLocation: LocationPayload{Latitude: 48.8584, Longitude: 2.2945},
		KindEvent:    EventPayload{Title: "Launch", Start: "2026-10-01T18:00:00Z"},
		KindAppDownload: AppDownloadPayload{
			FallbackURL: "https://example.com/app",
		},
		KindMultiDestination: MultiDestinationPayload{
			Title: "My page",
			Links: []LinkEntry{{ID: "l1", Title: "Site", TargetURL: "https://example.com"}},
		},
		KindMenu:    MenuPayload{Name: "Chez Nous", URL: "https://example.com/menu"},
		KindPayment: PaymentPayload{PaymentType: "bitcoin", Address: "bc1qexample"},
		KindPDF:     PDFPayload{URL: "https://example.com/doc.pdf"},
		KindImage:   ImagePayload{URL: "https://example.com/pic.png"},
		KindVideo:   VideoPayload{URL: "https://example.com/clip.mp4"},
	}
}

// brokenSamples returns, per kind, a payload with a required field
// removed or emptied.
func brokenSamples() map[Kind]Payload {
	return map[Kind]Payload{
		KindURL:              URLPayload{},
		KindVCard:            VCardPayload{FirstName: "Ada"},
		KindWifi:             WifiPayload{Security: WifiSecurityWPA2, Password: "pw"},
		KindText:             TextPayload{},
		KindSMS:              SMSPayload{Message: "no number"},
		KindEmail:            EmailPayload{Subject: "no recipient"},
		KindPhone:            PhonePayload{},
		KindLocation:         LocationPayload{Latitude: 120, Longitude: 0},
		KindEvent:            EventPayload{Title: "no start"},
		KindAppDownload:      AppDownloadPayload{},
		KindMultiDestination: MultiDestinationPayload{Title: "empty page"},
		KindMenu:             MenuPayload{Name: "no url"},
		KindPayment:          PaymentPayload{PaymentType: "bitcoin"},
		KindPDF:              PDFPayload{},
		KindImage:            ImagePayload{},
		KindVideo:            VideoPayload{},
	}
}

func TestValidateAllKinds(t *testing.T) {
	samples := validSamples()
	require.Len(t, samples, len(Kinds()))

	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, ok := samples[kind]
			require.True(t, ok, "missing sample for kind")
			res := Validate(p)
			assert.True(t, res.Valid, "errors: %v", res.Errors)
			assert.Empty(t, res.Errors)
			assert.Equal(t, LimitsFor(kind).RecommendedTolerance, res.RecommendedTolerance)
			assert.Positive(t, res.EstimatedSize)
		})
	}
}

func TestValidateBrokenKinds(t *testing.T) {
	samples := brokenSamples()
	require.Len(t, samples, len(Kinds()))

	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			res := Validate(samples[kind])
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Errors)
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		valid bool
	}{
		{"plain https", "https://example.com/page", true},
		{"scheme added by normalization", "example.com/page", true},
		{"http allowed", "http://example.com", true},
		{"javascript scheme rejected", "javascript:alert(1)", false},
		{"data scheme rejected", "data:text/html,<h1>x</h1>", false},
		{"ftp rejected", "ftp://example.com/file", false},
		{"blocked host", "https://malware.example.com/x", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(URLPayload{URL: tt.url})
			assert.Equal(t, tt.valid, res.Valid, "errors: %v", res.Errors)
		})
	}
}

func TestValidateWifi(t *testing.T) {
	tests := []struct {
		name    string
		payload WifiPayload
		valid   bool
	}{
		{"open network without password", WifiPayload{SSID: "Office", Security: WifiSecurityNopass}, true},
		{"wpa2 with password", WifiPayload{SSID: "Office", Security: WifiSecurityWPA2, Password: "pw123456"}, true},
		{"wpa2 without password", WifiPayload{SSID: "Office", Security: WifiSecurityWPA2}, false},
		{"unknown security mode", WifiPayload{SSID: "Office", Security: "WPA9", Password: "pw"}, false},
		{"ssid too long", WifiPayload{SSID: strings.Repeat("a", 33), Security: WifiSecurityNopass}, false},
		{"ssid with control chars", WifiPayload{SSID: "Of\tfice", Security: WifiSecurityNopass}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.payload)
			assert.Equal(t, tt.valid, res.Valid, "errors: %v", res.Errors)
		})
	}

	// The password-required error must name the problem.
	res := Validate(WifiPayload{SSID: "Office", Security: WifiSecurityWPA2})
	require.False(t, res.Valid)
	assert.Contains(t, strings.Join(res.Errors, "; "), "password is required")
}

func TestValidateSizeThresholds(t *testing.T) {
	limits := LimitsFor(KindText)

	over := TextPayload{Text: strings.Repeat("x", limits.MaxLength+1)}
	res := Validate(over)
	assert.False(t, res.Valid)

	warning := TextPayload{Text: strings.Repeat("x", int(0.9*float64(limits.MaxLength)))}
	res = Validate(warning)
	assert.True(t, res.Valid)
	assert.NotEmpty(t, res.Warnings)

	comfortable := TextPayload{Text: strings.Repeat("x", limits.MaxLength/2)}
	res = Validate(comfortable)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Warnings)
}

func TestEstimatedSizeMatchesSerializer(t *testing.T) {
	for kind, p := range validSamples() {
		if kind == KindMultiDestination {
			continue // encodes a short URL, sized by a fixed estimate
		}
		assert.Equal(t, len(Serialize(p)), EstimatedSize(p), "kind %s", kind)
	}
}

func TestEstimatedSizeIdempotent(t *testing.T) {
	p := validSamples()[KindVCard]
	first := EstimatedSize(p)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, EstimatedSize(p), "iteration %d", i)
	}
}

func TestLimitsForUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() { LimitsFor(Kind("hologram")) })
}

func TestRegistryCoversEveryKind(t *testing.T) {
	for _, kind := range Kinds() {
		assert.NotPanics(t, func() { LimitsFor(kind) }, fmt.Sprintf("kind %s", kind))
		assert.True(t, LimitsFor(kind).RecommendedTolerance.Valid())
		assert.Positive(t, LimitsFor(kind).MaxLength)
		assert.NotEmpty(t, LimitsFor(kind).RequiredFields)
	}
}
