package content

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
)

// ValidationResult is the structured outcome of validating a payload.
// Validation failure is a modeled result, never an error return.
type ValidationResult struct {
	Valid                bool           `json:"valid"`
	Errors               []string       `json:"errors,omitempty"`
	Warnings             []string       `json:"warnings,omitempty"`
	EstimatedSize        int            `json:"estimated_size"`
	RecommendedTolerance ErrorTolerance `json:"recommended_error_tolerance"`
}

// blockedHosts is the configured blacklist of known-malicious hosts
// rejected for every URL-bearing kind.
var blockedHosts = map[string]bool{
	"malware.example.com":  true,
	"phishing.example.net": true,
}

// shortURLEstimate is the byte size assumed for the encoded short URL
// of indirection-only kinds, covering base URL plus code.
const shortURLEstimate = 64

// approachingLimitRatio triggers the non-fatal size warning.
const approachingLimitRatio = 0.8

// Validate checks a payload against its kind's structural rules and
// limits. The estimated size is the byte length of the canonical
// serialized form, so it matches exactly what Serialize would encode.
func Validate(p Payload) ValidationResult {
	limits := LimitsFor(p.Kind())
	res := ValidationResult{RecommendedTolerance: limits.RecommendedTolerance}

	switch v := p.(type) {
	case URLPayload:
		res.Errors = appendURLErrors(res.Errors, "url", v.URL)
	case VCardPayload:
		if strings.TrimSpace(v.FirstName) == "" {
			res.Errors = append(res.Errors, "first_name is required")
		}
		if strings.TrimSpace(v.LastName) == "" {
			res.Errors = append(res.Errors, "last_name is required")
		}
		if v.Email != "" {
			if _, err := mail.ParseAddress(v.Email); err != nil {
				res.Errors = append(res.Errors, "email is not a valid address")
			}
		}
	case WifiPayload:
		res.Errors = append(res.Errors, wifiErrors(v)...)
	case TextPayload:
		if v.Text == "" {
			res.Errors = append(res.Errors, "text is required")
		}
	case SMSPayload:
		if strings.TrimSpace(v.Phone) == "" {
			res.Errors = append(res.Errors, "phone is required")
		} else if !validPhone(v.Phone) {
			res.Errors = append(res.Errors, "phone contains invalid characters")
		}
	case EmailPayload:
		if strings.TrimSpace(v.To) == "" {
			res.Errors = append(res.Errors, "to is required")
		} else if _, err := mail.ParseAddress(v.To); err != nil {
			res.Errors = append(res.Errors, "to is not a valid email address")
		}
	case PhonePayload:
		if strings.TrimSpace(v.Number) == "" {
			res.Errors = append(res.Errors, "number is required")
		} else if !validPhone(v.Number) {
			res.Errors = append(res.Errors, "number contains invalid characters")
		}
	case LocationPayload:
		if v.Latitude < -90 || v.Latitude > 90 {
			res.Errors = append(res.Errors, "latitude must be between -90 and 90")
		}
		if v.Longitude < -180 || v.Longitude > 180 {
			res.Errors = append(res.Errors, "longitude must be between -180 and 180")
		}
	case EventPayload:
		if strings.TrimSpace(v.Title) == "" {
			res.Errors = append(res.Errors, "title is required")
		}
		if v.Start == "" {
			res.Errors = append(res.Errors, "start is required")
		} else if _, err := v.ParseStart(); err != nil {
			res.Errors = append(res.Errors, "start is not a parseable RFC 3339 timestamp")
		}
	case AppDownloadPayload:
		res.Errors = appendURLErrors(res.Errors, "fallback_url", v.FallbackURL)
	case MultiDestinationPayload:
		if strings.TrimSpace(v.Title) == "" {
			res.Errors = append(res.Errors, "title is required")
		}
		if len(v.Links) == 0 {
			res.Errors = append(res.Errors, "at least one link is required")
		}
		for i, link := range v.Links {
			if strings.TrimSpace(link.Title) == "" {
				res.Errors = append(res.Errors, fmt.Sprintf("links[%d]: title is required", i))
			}
			res.Errors = appendURLErrors(res.Errors, fmt.Sprintf("links[%d].target_url", i), link.TargetURL)
		}
	case MenuPayload:
		if strings.TrimSpace(v.Name) == "" {
			res.Errors = append(res.Errors, "name is required")
		}
		res.Errors = appendURLErrors(res.Errors, "url", v.URL)
	case PaymentPayload:
		if strings.TrimSpace(v.PaymentType) == "" {
			res.Errors = append(res.Errors, "payment_type is required")
		}
		if strings.TrimSpace(v.Address) == "" {
			res.Errors = append(res.Errors, "address is required")
		}
	case PDFPayload:
		res.Errors = appendURLErrors(res.Errors, "url", v.URL)
	case ImagePayload:
		res.Errors = appendURLErrors(res.Errors, "url", v.URL)
	case VideoPayload:
		res.Errors = appendURLErrors(res.Errors, "url", v.URL)
	}

	res.EstimatedSize = EstimatedSize(p)
	if res.EstimatedSize > limits.MaxLength {
		res.Errors = append(res.Errors,
			fmt.Sprintf("content size %d exceeds the %d byte limit for %s", res.EstimatedSize, limits.MaxLength, p.Kind()))
	} else if float64(res.EstimatedSize) > approachingLimitRatio*float64(limits.MaxLength) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("content size %d is approaching the %d byte limit for %s", res.EstimatedSize, limits.MaxLength, p.Kind()))
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// EstimatedSize is the byte length of the canonical serialized form.
// Indirection-only kinds encode a short URL that does not exist yet at
// validation time, so a fixed conservative estimate stands in for it.
func EstimatedSize(p Payload) int {
	if p.Kind() == KindMultiDestination {
		return shortURLEstimate
	}
	if !validForSizing(p) {
		return 0
	}
	return len(Serialize(p))
}

// validForSizing guards Serialize calls on payloads whose serializer
// would misbehave on garbage input; size is reported as 0 for those.
func validForSizing(p Payload) bool {
	if v, ok := p.(EventPayload); ok {
		if _, err := v.ParseStart(); err != nil {
			return false
		}
	}
	return true
}

// appendURLErrors validates a single URL field: syntactically valid
// absolute URL after protocol normalization, scheme restricted to
// http/https, host not on the blacklist.
func appendURLErrors(errs []string, field, raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return append(errs, field+" is required")
	}
	lowered := strings.ToLower(strings.TrimSpace(raw))
	for _, scheme := range []string{"javascript:", "data:", "file:", "vbscript:"} {
		if strings.HasPrefix(lowered, scheme) {
			return append(errs, field+": scheme "+strings.TrimSuffix(scheme, ":")+" is not allowed")
		}
	}
	u, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return append(errs, field+" is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return append(errs, field+": scheme "+u.Scheme+" is not allowed")
	}
	if u.Host == "" {
		return append(errs, field+" is missing a host")
	}
	if blockedHosts[strings.ToLower(u.Hostname())] {
		return append(errs, field+": host is blocked")
	}
	return errs
}

func wifiErrors(v WifiPayload) []string {
	var errs []string
	if v.SSID == "" {
		errs = append(errs, "ssid is required")
	}
	if len(v.SSID) > 32 {
		errs = append(errs, "ssid must be at most 32 characters")
	}
	for _, r := range v.SSID {
		if r < 0x20 || r > 0x7e {
			errs = append(errs, "ssid must contain only printable ASCII")
			break
		}
	}
	switch v.Security {
	case WifiSecurityWPA, WifiSecurityWPA2, WifiSecurityWEP:
		if v.Password == "" {
			errs = append(errs, "password is required for "+v.Security+" networks")
		}
	case WifiSecurityNopass:
		// open network, no password
	default:
		errs = append(errs, "security must be one of WPA, WPA2, WEP, nopass")
	}
	return errs
}

// validPhone accepts digits with the usual separators and an optional
// leading +.
func validPhone(s string) bool {
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return true
}
