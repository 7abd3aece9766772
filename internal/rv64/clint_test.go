package rv64

import "testing"

func TestClintTimerInterrupt(t *testing.T) {
	c := NewClint()
	c.StoreByte(clintMtimecmpOff, 3)

	for i := 0; i < 2; i++ {
		_, mtip := c.Tick()
		if mtip {
			t.Fatalf("mtip should not fire before mtime reaches mtimecmp (tick %d)", i)
		}
	}

	_, mtip := c.Tick()
	if !mtip {
		t.Errorf("mtip should fire once mtime >= mtimecmp")
	}
}

func TestClintSoftwareInterrupt(t *testing.T) {
	c := NewClint()
	msip, _ := c.Tick()
	if msip {
		t.Fatalf("msip should start clear")
	}
	c.StoreByte(clintMsipOff, 1)
	msip, _ = c.Tick()
	if !msip {
		t.Errorf("msip should be set after writing bit 0 of the msip register")
	}
}

func TestClintByteGranularMtime(t *testing.T) {
	c := NewClint()
	c.mtime = 0x0102030405060708
	for i := 0; i < 8; i++ {
		b, _ := c.LoadByte(clintMtimeOff + uint64(i))
		want := byte(c.mtime >> (8 * i))
		if b != want {
			t.Errorf("byte %d of mtime = 0x%x, want 0x%x", i, b, want)
		}
	}
}
