// Package capacity computes the minimum QR version able to hold an
// encoded payload and recommends an error-tolerance level for a use
// case. The capacity tables are physical constants of the QR standard
// (byte-mode capacity per version per error-correction level),
// initialized once and immutable.
package capacity

import "github.com/axellelanca/qrforge/internal/content"

// MaxVersion is the largest QR version.
const MaxVersion = 40

// byteCapacity holds, per tolerance level, the maximum byte-mode
// payload of versions 1 through 40.
var byteCapacity = map[content.ErrorTolerance][MaxVersion]int{
	content.ToleranceLow: {
		17, 32, 53, 78, 106, 134, 154, 192, 230, 271,
		321, 367, 425, 458, 520, 586, 644, 718, 792, 858,
		929, 1003, 1091, 1171, 1273, 1367, 1465, 1528, 1628, 1732,
		1840, 1952, 2068, 2188, 2303, 2431, 2563, 2699, 2809, 2953,
	},
	content.ToleranceMedium: {
		14, 26, 42, 62, 84, 106, 122, 152, 180, 213,
		251, 287, 331, 362, 412, 450, 504, 560, 624, 666,
		711, 779, 857, 911, 997, 1059, 1125, 1190, 1264, 1370,
		1452, 1538, 1628, 1722, 1809, 1911, 1989, 2099, 2213, 2331,
	},
	content.ToleranceQuartile: {
		11, 20, 32, 46, 60, 74, 86, 108, 130, 151,
		177, 203, 241, 258, 292, 322, 364, 394, 442, 482,
		509, 565, 611, 661, 715, 751, 805, 868, 908, 982,
		1030, 1112, 1168, 1228, 1283, 1351, 1423, 1499, 1579, 1663,
	},
	content.ToleranceHigh: {
		7, 14, 24, 34, 44, 58, 64, 84, 98, 119,
		137, 155, 177, 194, 220, 250, 280, 310, 338, 382,
		403, 439, 461, 511, 535, 593, 625, 658, 698, 742,
		790, 842, 898, 958, 983, 1051, 1093, 1139, 1219, 1273,
	},
}

// MinVersion returns the smallest version whose byte capacity at the
// given tolerance holds dataLength bytes. Oversized payloads saturate
// at 40 rather than failing; size limits were already enforced during
// validation.
func MinVersion(dataLength int, tolerance content.ErrorTolerance) int {
	table, ok := byteCapacity[tolerance]
	if !ok {
		table = byteCapacity[content.ToleranceMedium]
	}
	for i, capa := range table {
		if capa >= dataLength {
			return i + 1
		}
	}
	return MaxVersion
}

// ModuleCount is the physical grid size of a version: 21 modules for
// version 1, growing 4 per version.
func ModuleCount(version int) int {
	return 21 + (version-1)*4
}

// UseCase is a hint about where the code will live.
type UseCase string

const (
	UseCaseDigital          UseCase = "digital"
	UseCasePrint            UseCase = "print"
	UseCaseHarshEnvironment UseCase = "harsh_environment"
)

// RecommendErrorTolerance picks an error-tolerance level for a kind and
// use case. It starts from the kind's registry default, upgrades for
// print and logo overlays, and unconditionally forces High for network
// credentials and payment data. That last override is absolute: corrupt
// credentials are unacceptable at any requested level.
func RecommendErrorTolerance(kind content.Kind, useCase UseCase, hasLogo bool) content.ErrorTolerance {
	tolerance := content.LimitsFor(kind).RecommendedTolerance

	if useCase == UseCasePrint || hasLogo {
		tolerance = content.ToleranceHigh
	} else if useCase == UseCaseHarshEnvironment && rank(tolerance) < rank(content.ToleranceQuartile) {
		tolerance = content.ToleranceQuartile
	}

	if kind == content.KindWifi || kind == content.KindPayment {
		return content.ToleranceHigh
	}
	return tolerance
}

func rank(t content.ErrorTolerance) int {
	switch t {
	case content.ToleranceLow:
		return 0
	case content.ToleranceMedium:
		return 1
	case content.ToleranceQuartile:
		return 2
	case content.ToleranceHigh:
		return 3
	}
	return 1
}
