package rv64

// Sv39 page table constants.
const (
	pteSize   = 8
	pageShift = 12
	pageSize  = 1 << pageShift

	pteV = 1 << 0
	pteR = 1 << 1
	pteW = 1 << 2
	pteX = 1 << 3
	pteU = 1 << 4
	pteG = 1 << 5
	pteA = 1 << 6
	pteD = 1 << 7

	pteFlagsMask = 0x3ff
	ptePPNLo     = 10
	ptePPNHi     = 53
)

// MMU implements the Sv39 three-level page walker.
type MMU struct {
	CSR *CSRFile
	Bus *Bus
}

// Translate maps a virtual address to a physical address for the given
// access kind under the current privilege mode. It returns the translated
// physical address and a Fault; the caller must check Fault.Valid before
// using the address.
func (m *MMU) Translate(va uint64, mode int, access AccessKind) (uint64, Fault) {
	if m.CSR.SatpMode() == SatpModeBare || mode == ModeM {
		return va, NoFault
	}

	// Canonical VA check: bits 63..39 must equal bit 38.
	if Sext(va, 38) != va {
		return va, faultFor(access, true)
	}

	vpn := [3]uint64{
		Bits(va, 12, 20),
		Bits(va, 21, 29),
		Bits(va, 30, 38),
	}

	a := m.CSR.SatpPPN() * pageSize
	i := 2
	var pte uint64

	for {
		pteAddr := a + vpn[i]*pteSize
		raw, fault := m.Bus.LoadDWordPhys(pteAddr)
		if fault.Valid {
			return va, faultFor(access, true)
		}
		pte = raw

		if pte&pteV == 0 || (pte&pteR == 0 && pte&pteW != 0) {
			return va, faultFor(access, true)
		}

		if pte&pteR != 0 || pte&pteX != 0 {
			break // leaf
		}

		i--
		if i < 0 {
			return va, faultFor(access, true)
		}
		a = ((pte >> ptePPNLo) & Mask(ptePPNHi-ptePPNLo+1)) * pageSize
	}

	if !m.checkPermission(pte, mode, access) {
		return va, faultFor(access, true)
	}

	// Superpage alignment: lower 9*i bits of PPN must be zero.
	ppn := (pte >> ptePPNLo) & Mask(ptePPNHi-ptePPNLo+1)
	if i > 0 {
		lowMask := Mask(uint(9 * i))
		if ppn&lowMask != 0 {
			return va, faultFor(access, true)
		}
	}

	// Set A (and D on stores) by write-back if not already set.
	newPTE := pte | pteA
	if access == AccessStore {
		newPTE |= pteD
	}
	if newPTE != pte {
		pteAddr := a + vpn[i]*pteSize
		m.Bus.StoreDWordPhys(pteAddr, newPTE)
	}

	pageOff := Bits(va, 0, 11)
	var pa uint64
	switch i {
	case 0:
		pa = (ppn << pageShift) | pageOff
	case 1:
		// Megapage: low 9 bits of PPN come from VA VPN[0].
		pa = (ppn << pageShift) | (vpn[0] << 12) | pageOff
	case 2:
		// Gigapage: low 18 bits of PPN come from VA VPN[1:0].
		pa = (ppn << pageShift) | (vpn[1] << 21) | (vpn[0] << 12) | pageOff
	}
	return pa, NoFault
}

func (m *MMU) checkPermission(pte uint64, mode int, access AccessKind) bool {
	switch access {
	case AccessFetch:
		if pte&pteX == 0 {
			return false
		}
	case AccessLoad:
		if pte&pteR == 0 && !(pte&pteX != 0 && m.CSR.MstatusMXR()) {
			return false
		}
	case AccessStore:
		if pte&pteW == 0 {
			return false
		}
	}

	isUserPage := pte&pteU != 0
	if mode == ModeU && !isUserPage {
		return false
	}
	if mode == ModeS && isUserPage && !m.CSR.MstatusSUM() {
		return false
	}
	return true
}
