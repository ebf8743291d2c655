// Package qrencode adapts the external QR rendering library to the
// service's Renderer boundary. The core decides what text to encode and
// at which tolerance; the library owns the bit matrix and pixels.
package qrencode

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/axellelanca/qrforge/internal/content"
)

// Encoder renders final payload text to PNG bytes.
type Encoder struct {
	defaultSizePx int
}

// NewEncoder creates an Encoder. defaultSizePx is used when a request
// carries no pixel size.
func NewEncoder(defaultSizePx int) *Encoder {
	return &Encoder{defaultSizePx: defaultSizePx}
}

// Render encodes text into a PNG image at the given tolerance.
func (e *Encoder) Render(text string, tolerance content.ErrorTolerance, sizePx int) ([]byte, error) {
	if sizePx <= 0 {
		sizePx = e.defaultSizePx
	}
	png, err := qrcode.Encode(text, recoveryLevel(tolerance), sizePx)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}

// recoveryLevel maps the tolerance levels onto the library's recovery
// constants (L, M, Q, H).
func recoveryLevel(t content.ErrorTolerance) qrcode.RecoveryLevel {
	switch t {
	case content.ToleranceLow:
		return qrcode.Low
	case content.ToleranceQuartile:
		return qrcode.High
	case content.ToleranceHigh:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}
