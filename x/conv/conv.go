package conv

// Allocation-light numeric formatting for banner and monitor text.
// No fmt/strconv dependency so the same code serves MCU-shaped paths.

// Utoa appends the base-10 representation of u to dst.
func Utoa(dst []byte, u uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	if u == 0 {
		return append(dst, '0')
	}
	for u > 0 {
		i--
		tmp[i] = byte('0' + u%10)
		u /= 10
	}
	return append(dst, tmp[i:]...)
}

// Itoa appends the base-10 representation of n to dst.
func Itoa(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		return Utoa(dst, uint64(-n))
	}
	return Utoa(dst, uint64(n))
}

const hexDigits = "0123456789abcdef"

// Hex8 appends the two-digit hex representation of b to dst.
func Hex8(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0x0f])
}

// Hex16 appends the four-digit hex representation of v to dst.
func Hex16(dst []byte, v uint16) []byte {
	dst = Hex8(dst, byte(v>>8))
	return Hex8(dst, byte(v))
}
