package rv64

import "testing"

func TestCSRRawReadWrite(t *testing.T) {
	var c CSRFile
	c.Write(CsrMtvec, 0x8000_1000)
	if got := c.Read(CsrMtvec); got != 0x8000_1000 {
		t.Errorf("Read(CsrMtvec) = 0x%x, want 0x8000_1000", got)
	}
}

func TestMstatusMPP(t *testing.T) {
	var c CSRFile
	c.SetMstatusMPP(ModeS)
	if got := c.MstatusMPP(); got != ModeS {
		t.Errorf("MstatusMPP() = %d, want %d", got, ModeS)
	}
	c.SetMstatusMPP(ModeM)
	if got := c.MstatusMPP(); got != ModeM {
		t.Errorf("MstatusMPP() = %d, want %d", got, ModeM)
	}
}

func TestSatpModeAndPPN(t *testing.T) {
	var c CSRFile
	c.Write(CsrSatp, (uint64(SatpModeSv39)<<satpModeLo)|0x1234)
	if got := c.SatpMode(); got != SatpModeSv39 {
		t.Errorf("SatpMode() = %d, want Sv39", got)
	}
	if got := c.SatpPPN(); got != 0x1234 {
		t.Errorf("SatpPPN() = 0x%x, want 0x1234", got)
	}
}

func TestSieSipMaskedWindow(t *testing.T) {
	var c CSRFile
	// Writing mie directly sets bits visible through sie.
	c.Write(CsrMie, (1<<IntMEI)|(1<<IntSEI)|(1<<IntSTI))
	if got := c.ReadSie(); got != (1<<IntSEI)|(1<<IntSTI) {
		t.Errorf("ReadSie() = 0x%x, want only S-mode bits", got)
	}

	// Writing sie only touches the S-mode bits in mie.
	c.WriteSie(0)
	if c.Read(CsrMie)&(1<<IntMEI) == 0 {
		t.Errorf("WriteSie clobbered an M-mode bit it shouldn't touch")
	}
	if c.ReadSie() != 0 {
		t.Errorf("WriteSie(0) should clear S-mode bits")
	}
}

func TestSipSoftwareWriteOnlySSIP(t *testing.T) {
	var c CSRFile
	c.Write(CsrMip, 1<<IntSTI) // hardware-latched STIP
	c.WriteSip(1 << IntSSI)    // software requests SSIP
	if c.ReadSip()&(1<<IntSSI) == 0 {
		t.Errorf("WriteSip should set SSIP")
	}
	if c.ReadSip()&(1<<IntSTI) == 0 {
		t.Errorf("WriteSip must not clear hardware-latched STIP")
	}
}

func TestSstatusMaskedWindow(t *testing.T) {
	var c CSRFile
	c.SetMstatusSIE(true)
	c.SetMstatusSPP(ModeS)
	if c.ReadSstatus()&(1<<mstatusSIEBit) == 0 {
		t.Errorf("ReadSstatus should reflect SIE")
	}
	c.WriteSstatus(0)
	if c.MstatusSIE() {
		t.Errorf("WriteSstatus(0) should clear SIE in mstatus")
	}
}
