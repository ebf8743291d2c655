package content

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Serialize converts a validated payload into the single canonical text
// string that gets physically encoded. It is deterministic and never
// fails for payloads that passed Validate; calling it with a
// MultiDestination payload is a contract violation (those encode only
// their short URL, see SerializeShortURL) and panics.
func Serialize(p Payload) string {
	switch v := p.(type) {
	case URLPayload:
		return NormalizeURL(v.URL)
	case VCardPayload:
		return serializeVCard(v)
	case WifiPayload:
		return serializeWifi(v)
	case TextPayload:
		return v.Text
	case SMSPayload:
		if v.Message == "" {
			return "sms:" + v.Phone
		}
		return "sms:" + v.Phone + "?body=" + escapeQuery(v.Message)
	case EmailPayload:
		return serializeEmail(v)
	case PhonePayload:
		return "tel:" + v.Number
	case LocationPayload:
		s := "geo:" + formatCoord(v.Latitude) + "," + formatCoord(v.Longitude)
		if v.Label != "" {
			s += "?q=" + escapeQuery(v.Label)
		}
		return s
	case EventPayload:
		return serializeEvent(v)
	case AppDownloadPayload:
		return NormalizeURL(v.FallbackURL)
	case MenuPayload:
		return NormalizeURL(v.URL)
	case PaymentPayload:
		return serializePayment(v)
	case PDFPayload:
		return NormalizeURL(v.URL)
	case ImagePayload:
		return NormalizeURL(v.URL)
	case VideoPayload:
		return NormalizeURL(v.URL)
	case MultiDestinationPayload:
		panic("content: multi-destination payloads encode their short URL, use SerializeShortURL")
	default:
		panic(fmt.Sprintf("content: no serializer for %T", p))
	}
}

// SerializeShortURL returns the permanent encoded text for codes that
// resolve through the indirection layer: just the short URL itself.
func SerializeShortURL(shortURL string) string {
	return shortURL
}

// NormalizeURL prepends https:// when the address carries no scheme.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if !strings.Contains(s, "://") {
		return "https://" + s
	}
	return s
}

func serializeVCard(v VCardPayload) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\r\nVERSION:3.0\r\n")
	fmt.Fprintf(&b, "N:%s;%s;;;\r\n", escapeVCard(v.LastName), escapeVCard(v.FirstName))
	fmt.Fprintf(&b, "FN:%s %s\r\n", escapeVCard(v.FirstName), escapeVCard(v.LastName))
	if v.Organization != "" {
		fmt.Fprintf(&b, "ORG:%s\r\n", escapeVCard(v.Organization))
	}
	if v.JobTitle != "" {
		fmt.Fprintf(&b, "TITLE:%s\r\n", escapeVCard(v.JobTitle))
	}
	if v.Phone != "" {
		fmt.Fprintf(&b, "TEL;TYPE=WORK:%s\r\n", v.Phone)
	}
	if v.Mobile != "" {
		fmt.Fprintf(&b, "TEL;TYPE=CELL:%s\r\n", v.Mobile)
	}
	if v.Email != "" {
		fmt.Fprintf(&b, "EMAIL:%s\r\n", v.Email)
	}
	if v.Website != "" {
		fmt.Fprintf(&b, "URL:%s\r\n", NormalizeURL(v.Website))
	}
	if v.Street != "" || v.City != "" || v.State != "" || v.Zip != "" || v.Country != "" {
		fmt.Fprintf(&b, "ADR;TYPE=WORK:;;%s;%s;%s;%s;%s\r\n",
			escapeVCard(v.Street), escapeVCard(v.City), escapeVCard(v.State),
			escapeVCard(v.Zip), escapeVCard(v.Country))
	}
	b.WriteString("END:VCARD")
	return b.String()
}

// serializeWifi emits the WIFI: join URI. Password is omitted entirely
// for open networks.
func serializeWifi(v WifiPayload) string {
	var b strings.Builder
	b.WriteString("WIFI:T:")
	b.WriteString(v.Security)
	b.WriteString(";S:")
	b.WriteString(escapeWifi(v.SSID))
	b.WriteString(";")
	if v.Security != WifiSecurityNopass {
		b.WriteString("P:")
		b.WriteString(escapeWifi(v.Password))
		b.WriteString(";")
	}
	if v.Hidden {
		b.WriteString("H:true;")
	}
	b.WriteString(";")
	return b.String()
}

func serializeEmail(v EmailPayload) string {
	s := "mailto:" + v.To
	var params []string
	if v.Subject != "" {
		params = append(params, "subject="+escapeQuery(v.Subject))
	}
	if v.Body != "" {
		params = append(params, "body="+escapeQuery(v.Body))
	}
	if len(params) > 0 {
		s += "?" + strings.Join(params, "&")
	}
	return s
}

// serializeEvent emits a minimal iCalendar VEVENT block. Timestamps are
// rendered in compact UTC form; Start is known to parse after Validate.
func serializeEvent(v EventPayload) string {
	var b strings.Builder
	b.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(&b, "SUMMARY:%s\r\n", escapeVCard(v.Title))
	if ts, err := v.ParseStart(); err == nil {
		fmt.Fprintf(&b, "DTSTART:%s\r\n", ts.UTC().Format("20060102T150405Z"))
	}
	if v.End != "" {
		if ts, err := time.Parse(time.RFC3339, v.End); err == nil {
			fmt.Fprintf(&b, "DTEND:%s\r\n", ts.UTC().Format("20060102T150405Z"))
		}
	}
	if v.Location != "" {
		fmt.Fprintf(&b, "LOCATION:%s\r\n", escapeVCard(v.Location))
	}
	if v.Description != "" {
		fmt.Fprintf(&b, "DESCRIPTION:%s\r\n", escapeVCard(v.Description))
	}
	b.WriteString("END:VEVENT")
	return b.String()
}

func serializePayment(v PaymentPayload) string {
	// Addresses that are already links (hosted payment pages) pass
	// through; scheme-style types build a payment URI.
	if strings.HasPrefix(v.Address, "http://") || strings.HasPrefix(v.Address, "https://") {
		return v.Address
	}
	s := v.PaymentType + ":" + v.Address
	var params []string
	if v.Amount > 0 {
		params = append(params, "amount="+strconv.FormatFloat(v.Amount, 'f', -1, 64))
	}
	if v.Message != "" {
		params = append(params, "message="+escapeQuery(v.Message))
	}
	if len(params) > 0 {
		s += "?" + strings.Join(params, "&")
	}
	return s
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// escapeQuery percent-encodes a query value, with spaces as %20 rather
// than + (scanner apps do not reliably decode +).
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

var wifiEscaper = strings.NewReplacer(
	`\`, `\\`, `;`, `\;`, `,`, `\,`, `:`, `\:`, `"`, `\"`,
)

func escapeWifi(s string) string {
	return wifiEscaper.Replace(s)
}

var vcardEscaper = strings.NewReplacer(
	`\`, `\\`, `;`, `\;`, `,`, `\,`, "\n", `\n`,
)

func escapeVCard(s string) string {
	return vcardEscaper.Replace(s)
}
