// Package content defines the typed content model for scannable codes:
// the closed set of content kinds, their payload shapes, the per-kind
// limits registry, validation and canonical serialization.
package content

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies one of the sixteen supported content types.
// The set is closed: every Kind has exactly one payload struct and one
// entry in the limits registry.
type Kind string

const (
	KindURL              Kind = "url"
	KindVCard            Kind = "vcard"
	KindWifi             Kind = "wifi"
	KindText             Kind = "text"
	KindSMS              Kind = "sms"
	KindEmail            Kind = "email"
	KindPhone            Kind = "phone"
	KindLocation         Kind = "location"
	KindEvent            Kind = "event"
	KindAppDownload      Kind = "app_download"
	KindMultiDestination Kind = "multi_destination"
	KindMenu             Kind = "menu"
	KindPayment          Kind = "payment"
	KindPDF              Kind = "pdf"
	KindImage            Kind = "image"
	KindVideo            Kind = "video"
)

// Kinds returns every supported kind, in registry order.
func Kinds() []Kind {
	return []Kind{
		KindURL, KindVCard, KindWifi, KindText, KindSMS, KindEmail,
		KindPhone, KindLocation, KindEvent, KindAppDownload,
		KindMultiDestination, KindMenu, KindPayment, KindPDF,
		KindImage, KindVideo,
	}
}

// Valid reports whether k is one of the sixteen registered kinds.
func (k Kind) Valid() bool {
	_, ok := registry[k]
	return ok
}

// Payload is the tagged-union interface implemented by the sixteen
// per-kind payload structs.
type Payload interface {
	Kind() Kind
}

// URLPayload is a plain web address.
type URLPayload struct {
	URL string `json:"url"`
}

func (URLPayload) Kind() Kind { return KindURL }

// VCardPayload is a contact card. Only FirstName and LastName are
// required; every other field is emitted only when present.
type VCardPayload struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Organization string `json:"organization,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Mobile       string `json:"mobile,omitempty"`
	Email        string `json:"email,omitempty"`
	Website      string `json:"website,omitempty"`
	Street       string `json:"street,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Zip          string `json:"zip,omitempty"`
	Country      string `json:"country,omitempty"`
}

func (VCardPayload) Kind() Kind { return KindVCard }

// Wifi security modes accepted by WifiPayload.
const (
	WifiSecurityWPA    = "WPA"
	WifiSecurityWPA2   = "WPA2"
	WifiSecurityWEP    = "WEP"
	WifiSecurityNopass = "nopass"
)

// WifiPayload carries network join credentials.
type WifiPayload struct {
	SSID     string `json:"ssid"`
	Security string `json:"security"`
	Password string `json:"password,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
}

func (WifiPayload) Kind() Kind { return KindWifi }

// TextPayload is free-form text encoded verbatim.
type TextPayload struct {
	Text string `json:"text"`
}

func (TextPayload) Kind() Kind { return KindText }

// SMSPayload pre-fills a text message.
type SMSPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message,omitempty"`
}

func (SMSPayload) Kind() Kind { return KindSMS }

// EmailPayload pre-fills an email draft.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

func (EmailPayload) Kind() Kind { return KindEmail }

// PhonePayload dials a number.
type PhonePayload struct {
	Number string `json:"number"`
}

func (PhonePayload) Kind() Kind { return KindPhone }

// LocationPayload points at geographic coordinates.
type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label,omitempty"`
}

func (LocationPayload) Kind() Kind { return KindLocation }

// EventPayload describes a calendar event. Start and End are RFC 3339
// strings; Start is required and must parse, End is optional.
type EventPayload struct {
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

func (EventPayload) Kind() Kind { return KindEvent }

// ParseStart returns the parsed start timestamp.
func (p EventPayload) ParseStart() (time.Time, error) {
	return time.Parse(time.RFC3339, p.Start)
}

// AppDownloadPayload routes scanners to an app listing. The fallback
// URL is what gets encoded; store-specific links are resolved behind it.
type AppDownloadPayload struct {
	FallbackURL  string `json:"fallback_url"`
	AppStoreURL  string `json:"app_store_url,omitempty"`
	PlayStoreURL string `json:"play_store_url,omitempty"`
}

func (AppDownloadPayload) Kind() Kind { return KindAppDownload }

// LinkEntry is one ordered link of a multi-destination page. Effective
// visibility is always computed from the flag and window, never stored.
type LinkEntry struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	TargetURL      string     `json:"target_url"`
	IsActive       *bool      `json:"is_active,omitempty"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	ClickCount     int64      `json:"click_count"`
}

// MultiDestinationPayload is a link-in-bio page. The page content is
// never encoded into the code itself; only the short URL is.
type MultiDestinationPayload struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Links       []LinkEntry `json:"links"`
}

func (MultiDestinationPayload) Kind() Kind { return KindMultiDestination }

// MenuPayload points at a hosted menu page.
type MenuPayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (MenuPayload) Kind() Kind { return KindMenu }

// PaymentPayload carries a payment request. PaymentType is a scheme tag
// such as "bitcoin" or "ethereum"; Address is the receiving address.
type PaymentPayload struct {
	PaymentType string  `json:"payment_type"`
	Address     string  `json:"address"`
	Amount      float64 `json:"amount,omitempty"`
	Message     string  `json:"message,omitempty"`
}

func (PaymentPayload) Kind() Kind { return KindPayment }

// PDFPayload points at a hosted PDF document.
type PDFPayload struct {
	URL string `json:"url"`
}

func (PDFPayload) Kind() Kind { return KindPDF }

// ImagePayload points at a hosted image.
type ImagePayload struct {
	URL string `json:"url"`
}

func (ImagePayload) Kind() Kind { return KindImage }

// VideoPayload points at a hosted video.
type VideoPayload struct {
	URL string `json:"url"`
}

func (VideoPayload) Kind() Kind { return KindVideo }

// DecodePayload unmarshals raw JSON into the payload struct for kind.
// An unrecognized kind is the only failure mode beyond malformed JSON.
func DecodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch kind {
	case KindURL:
		p, err = decodeInto[URLPayload](raw)
	case KindVCard:
		p, err = decodeInto[VCardPayload](raw)
	case KindWifi:
		p, err = decodeInto[WifiPayload](raw)
	case KindText:
		p, err = decodeInto[TextPayload](raw)
	case KindSMS:
		p, err = decodeInto[SMSPayload](raw)
	case KindEmail:
		p, err = decodeInto[EmailPayload](raw)
	case KindPhone:
		p, err = decodeInto[PhonePayload](raw)
	case KindLocation:
		p, err = decodeInto[LocationPayload](raw)
	case KindEvent:
		p, err = decodeInto[EventPayload](raw)
	case KindAppDownload:
		p, err = decodeInto[AppDownloadPayload](raw)
	case KindMultiDestination:
		p, err = decodeInto[MultiDestinationPayload](raw)
	case KindMenu:
		p, err = decodeInto[MenuPayload](raw)
	case KindPayment:
		p, err = decodeInto[PaymentPayload](raw)
	case KindPDF:
		p, err = decodeInto[PDFPayload](raw)
	case KindImage:
		p, err = decodeInto[ImagePayload](raw)
	case KindVideo:
		p, err = decodeInto[VideoPayload](raw)
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return p, nil
}

func decodeInto[T Payload](raw json.RawMessage) (Payload, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
