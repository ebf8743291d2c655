package content

// ErrorTolerance is the QR error-correction level requested for a code.
type ErrorTolerance string

const (
	ToleranceLow      ErrorTolerance = "low"      // L, ~7% recovery
	ToleranceMedium   ErrorTolerance = "medium"   // M, ~15% recovery
	ToleranceQuartile ErrorTolerance = "quartile" // Q, ~25% recovery
	ToleranceHigh     ErrorTolerance = "high"     // H, ~30% recovery
)

// Valid reports whether t is one of the four levels.
func (t ErrorTolerance) Valid() bool {
	switch t {
	case ToleranceLow, ToleranceMedium, ToleranceQuartile, ToleranceHigh:
		return true
	}
	return false
}

// Limits is the static per-kind constraint entry: the maximum canonical
// serialized size, the fields a payload must carry, and the default
// error tolerance for the kind.
type Limits struct {
	MaxLength            int
	RequiredFields       []string
	RecommendedTolerance ErrorTolerance
}

// registry is the closed limits table. One entry per kind, initialized
// once, never mutated.
var registry = map[Kind]Limits{
	KindURL:              {MaxLength: 2048, RequiredFields: []string{"url"}, RecommendedTolerance: ToleranceMedium},
	KindVCard:            {MaxLength: 1500, RequiredFields: []string{"first_name", "last_name"}, RecommendedTolerance: ToleranceQuartile},
	KindWifi:             {MaxLength: 256, RequiredFields: []string{"ssid"}, RecommendedTolerance: ToleranceHigh},
	KindText:             {MaxLength: 2000, RequiredFields: []string{"text"}, RecommendedTolerance: ToleranceLow},
	KindSMS:              {MaxLength: 400, RequiredFields: []string{"phone"}, RecommendedTolerance: ToleranceMedium},
	KindEmail:            {MaxLength: 500, RequiredFields: []string{"to"}, RecommendedTolerance: ToleranceMedium},
	KindPhone:            {MaxLength: 50, RequiredFields: []string{"number"}, RecommendedTolerance: ToleranceMedium},
	KindLocation:         {MaxLength: 100, RequiredFields: []string{"latitude", "longitude"}, RecommendedTolerance: ToleranceMedium},
	KindEvent:            {MaxLength: 1000, RequiredFields: []string{"title", "start"}, RecommendedTolerance: ToleranceQuartile},
	KindAppDownload:      {MaxLength: 1024, RequiredFields: []string{"fallback_url"}, RecommendedTolerance: ToleranceMedium},
	KindMultiDestination: {MaxLength: 512, RequiredFields: []string{"title", "links"}, RecommendedTolerance: ToleranceMedium},
	KindMenu:             {MaxLength: 1024, RequiredFields: []string{"name", "url"}, RecommendedTolerance: ToleranceMedium},
	KindPayment:          {MaxLength: 512, RequiredFields: []string{"payment_type", "address"}, RecommendedTolerance: ToleranceHigh},
	KindPDF:              {MaxLength: 2048, RequiredFields: []string{"url"}, RecommendedTolerance: ToleranceMedium},
	KindImage:            {MaxLength: 2048, RequiredFields: []string{"url"}, RecommendedTolerance: ToleranceMedium},
	KindVideo:            {MaxLength: 2048, RequiredFields: []string{"url"}, RecommendedTolerance: ToleranceMedium},
}

// LimitsFor returns the limits entry for kind. Calling it with a kind
// outside the closed set is a programming error and panics.
func LimitsFor(kind Kind) Limits {
	l, ok := registry[kind]
	if !ok {
		panic("content: no limits registered for kind " + string(kind))
	}
	return l
}
