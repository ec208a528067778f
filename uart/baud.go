// uart/baud.go
package uart

import (
	"math"

	"clockmaker-go/x/mathx"
)

// Baud generator limits of the Xmega fractional baud generator.
const (
	bselMax   = 4096 // BSEL is a 12-bit value
	bscaleMin = -7
	bscaleMax = 7
)

// bsel computes the raw (unclamped) baud selection value for one scale
// candidate. Oversampling factor is 16, or 8 with clock doubling.
func bsel(clockHz, baud uint32, scale int8, clk2x bool) float64 {
	factor := 16.0
	if clk2x {
		factor = 8.0
	}
	ratio := float64(clockHz) / (factor * float64(baud))
	if scale < 0 {
		return math.Round((ratio - 1) * float64(uint32(1)<<uint(-scale)))
	}
	return math.Round(ratio/float64(uint32(1)<<uint(scale)) - 1)
}

// BSel computes the baud selection value (BSEL) for a given system clock,
// target baud rate, scale factor and clock-doubling flag. Pure arithmetic,
// no hardware access. The result is clamped to the uint16 register range;
// for valid inputs it fits without clamping.
func BSel(clockHz, baud uint32, scale int8, clk2x bool) uint16 {
	return uint16(mathx.Clamp(bsel(clockHz, baud, scale, clk2x), 0, math.MaxUint16))
}

// BScale determines the scale factor (BSCALE) for a given system clock,
// target baud rate and clock-doubling flag. Candidates are scanned from
// -7 to 7 in ascending order and the first whose BSEL fits the 12-bit
// register wins. If none fits, the result saturates at 7; the original
// Xmega wrapper fell out of its loop at 8, one past the documented range.
func BScale(clockHz, baud uint32, clk2x bool) int8 {
	for scale := int8(bscaleMin); scale <= bscaleMax; scale++ {
		if bsel(clockHz, baud, scale, clk2x) < bselMax {
			return scale
		}
	}
	return bscaleMax
}
