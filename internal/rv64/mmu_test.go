package rv64

import "testing"

func newTestBus(size int) *Bus {
	uart := NewUart(fakeInput{}, fakeOutput{})
	return NewBus(size, uart, NewClint(), NewPlic(), NewVirtioBlk(nil))
}

type fakeInput struct{}

func (fakeInput) ReadByte() (byte, bool) { return 0, false }

type fakeOutput struct{}

func (fakeOutput) WriteByte(b byte) error { return nil }

func TestMMUBareMode(t *testing.T) {
	var csr CSRFile
	bus := newTestBus(0x10000)
	mmu := &MMU{CSR: &csr, Bus: bus}

	pa, f := mmu.Translate(0x1234, ModeS, AccessLoad)
	if f.Valid {
		t.Fatalf("Bare mode should never fault, got %+v", f)
	}
	if pa != 0x1234 {
		t.Errorf("Bare mode should pass VA through unchanged, got 0x%x", pa)
	}
}

func TestMMUMModeBypassesTranslation(t *testing.T) {
	var csr CSRFile
	bus := newTestBus(0x10000)
	csr.Write(CsrSatp, uint64(SatpModeSv39)<<satpModeLo)
	mmu := &MMU{CSR: &csr, Bus: bus}

	pa, f := mmu.Translate(0x1000, ModeM, AccessLoad)
	if f.Valid || pa != 0x1000 {
		t.Errorf("M-mode must bypass Sv39 translation, got pa=0x%x f=%+v", pa, f)
	}
}

// buildGigapageIdentity installs a single root-level leaf PTE mapping VA
// 0 to DramBase via a 1GB gigapage, with the given permission bits.
func buildGigapageIdentity(t *testing.T, bus *Bus, csr *CSRFile, perm uint64) {
	t.Helper()
	rootPA := uint64(DramBase)
	csr.Write(CsrSatp, (uint64(SatpModeSv39)<<satpModeLo)|(rootPA/pageSize))

	ppn := uint64(DramBase) >> pageShift
	pte := pteV | perm | (ppn << ptePPNLo)
	if f := bus.StoreDWordPhys(rootPA, pte); f.Valid {
		t.Fatalf("failed writing root PTE: %+v", f)
	}
}

func TestMMUSv39SupervisorLoad(t *testing.T) {
	var csr CSRFile
	bus := newTestBus(0x10000)
	buildGigapageIdentity(t, bus, &csr, pteR|pteW|pteX)
	mmu := &MMU{CSR: &csr, Bus: bus}

	pa, f := mmu.Translate(0x10, ModeS, AccessLoad)
	if f.Valid {
		t.Fatalf("expected successful translation, got fault %+v", f)
	}
	if pa != DramBase+0x10 {
		t.Errorf("pa = 0x%x, want 0x%x", pa, DramBase+0x10)
	}
}

func TestMMUSv39UserPageRequiresUBit(t *testing.T) {
	var csr CSRFile
	bus := newTestBus(0x10000)
	buildGigapageIdentity(t, bus, &csr, pteR|pteW|pteX) // no pteU
	mmu := &MMU{CSR: &csr, Bus: bus}

	_, f := mmu.Translate(0x10, ModeU, AccessLoad)
	if !f.Valid {
		t.Errorf("U-mode access to a non-U page should fault")
	}
}

func TestMMUSv39AccessSetsAD(t *testing.T) {
	var csr CSRFile
	bus := newTestBus(0x10000)
	buildGigapageIdentity(t, bus, &csr, pteR|pteW|pteX)
	mmu := &MMU{CSR: &csr, Bus: bus}

	if _, f := mmu.Translate(0x10, ModeS, AccessStore); f.Valid {
		t.Fatalf("unexpected fault: %+v", f)
	}
	pte, _ := bus.LoadDWordPhys(DramBase)
	if pte&pteA == 0 {
		t.Errorf("A bit should be set after any access")
	}
	if pte&pteD == 0 {
		t.Errorf("D bit should be set after a store")
	}
}

func TestMMUCanonicalAddressCheck(t *testing.T) {
	var csr CSRFile
	bus := newTestBus(0x10000)
	buildGigapageIdentity(t, bus, &csr, pteR|pteW|pteX)
	mmu := &MMU{CSR: &csr, Bus: bus}

	nonCanonical := uint64(1) << 40
	_, f := mmu.Translate(nonCanonical, ModeS, AccessLoad)
	if !f.Valid {
		t.Errorf("non-canonical VA should fault")
	}
}

func TestMMUStoreToReadOnlyPageFaults(t *testing.T) {
	var csr CSRFile
	bus := newTestBus(0x10000)
	buildGigapageIdentity(t, bus, &csr, pteR) // no W
	mmu := &MMU{CSR: &csr, Bus: bus}

	_, f := mmu.Translate(0x10, ModeS, AccessStore)
	if !f.Valid {
		t.Errorf("store to a read-only page should fault")
	}
}
