package rv64

import "testing"

func TestSext(t *testing.T) {
	cases := []struct {
		v      uint64
		top    uint
		expect uint64
	}{
		{0x7ff, 11, 0x7ff},
		{0x800, 11, 0xffff_ffff_ffff_f800},
		{0x1, 0, 0xffff_ffff_ffff_ffff},
		{0xffff_ffff, 31, 0xffff_ffff_ffff_ffff},
		{0x7fff_ffff, 31, 0x7fff_ffff},
	}
	for _, c := range cases {
		if got := Sext(c.v, c.top); got != c.expect {
			t.Errorf("Sext(0x%x, %d) = 0x%x, want 0x%x", c.v, c.top, got, c.expect)
		}
	}
}

func TestBits(t *testing.T) {
	v := uint64(0xabcd_ef01_2345_6789)
	if got := Bits(v, 0, 7); got != 0x89 {
		t.Errorf("Bits(v,0,7) = 0x%x, want 0x89", got)
	}
	if got := Bits(v, 60, 63); got != 0xa {
		t.Errorf("Bits(v,60,63) = 0x%x, want 0xa", got)
	}
}

func TestSetBits(t *testing.T) {
	v := SetBits(0, 4, 7, 0xf)
	if v != 0xf0 {
		t.Errorf("SetBits = 0x%x, want 0xf0", v)
	}
	v = SetBits(0xffff, 4, 7, 0x0)
	if v != 0xff0f {
		t.Errorf("SetBits clear = 0x%x, want 0xff0f", v)
	}
}

func TestMask(t *testing.T) {
	if Mask(0) != 0 {
		t.Errorf("Mask(0) should be 0")
	}
	if Mask(64) != ^uint64(0) {
		t.Errorf("Mask(64) should be all ones")
	}
	if Mask(8) != 0xff {
		t.Errorf("Mask(8) = 0x%x, want 0xff", Mask(8))
	}
}
