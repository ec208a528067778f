package conv

import "testing"

func TestUtoa(t *testing.T) {
	for _, tc := range []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{230400, "230400"},
		{32000000, "32000000"},
		{18446744073709551615, "18446744073709551615"},
	} {
		if got := string(Utoa(nil, tc.in)); got != tc.want {
			t.Errorf("Utoa(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestItoa(t *testing.T) {
	if got := string(Itoa(nil, -7)); got != "-7" {
		t.Errorf("Itoa(-7) = %q", got)
	}
	if got := string(Itoa([]byte("bscale="), -7)); got != "bscale=-7" {
		t.Errorf("append form = %q", got)
	}
}

func TestHex(t *testing.T) {
	if got := string(Hex8(nil, 0x0a)); got != "0a" {
		t.Errorf("Hex8 = %q", got)
	}
	if got := string(Hex16(nil, 0x0100)); got != "0100" {
		t.Errorf("Hex16 = %q", got)
	}
}
