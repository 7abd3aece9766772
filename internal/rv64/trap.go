package rv64

// medeleg/mideleg bit test: whether mode M should delegate the given
// exception/interrupt cause down to S-mode.
func (h *Hart) delegated(causeBit uint, interrupt bool) bool {
	if h.Mode == ModeM {
		return false
	}
	if interrupt {
		return h.CSR.Read(CsrMideleg)>>causeBit&1 != 0
	}
	return h.CSR.Read(CsrMedeleg)>>causeBit&1 != 0
}

// raiseTrap vectors the hart into the trap handler for fault f, choosing
// M-mode or S-mode by delegation and saving/restoring the privilege and
// interrupt-enable state.
func (h *Hart) raiseTrap(f Fault) {
	interrupt := f.Code&InterruptBit != 0
	causeBit := uint(f.Code &^ InterruptBit)

	toS := h.delegated(causeBit, interrupt)
	prevMode := h.Mode

	if toS {
		h.CSR.Write(CsrSepc, h.PC)
		h.CSR.Write(CsrScause, f.Code)
		h.CSR.Write(CsrStval, 0)
		h.CSR.SetMstatusSPIE(h.CSR.MstatusSIE())
		h.CSR.SetMstatusSIE(false)
		h.CSR.SetMstatusSPP(uint64(prevMode))
		h.Mode = ModeS
		h.PC = h.vector(h.CSR.Read(CsrStvec), causeBit, interrupt)
	} else {
		h.CSR.Write(CsrMepc, h.PC)
		h.CSR.Write(CsrMcause, f.Code)
		h.CSR.Write(CsrMtval, 0)
		h.CSR.SetMstatusMPIE(h.CSR.MstatusMIE())
		h.CSR.SetMstatusMIE(false)
		h.CSR.SetMstatusMPP(uint64(prevMode))
		h.Mode = ModeM
		h.PC = h.vector(h.CSR.Read(CsrMtvec), causeBit, interrupt)
	}
}

// vector applies xtvec's MODE field: direct (all traps to BASE) or
// vectored (interrupts to BASE + 4*cause).
func (h *Hart) vector(tvec uint64, causeBit uint, interrupt bool) uint64 {
	base := tvec &^ 0x3
	mode := tvec & 0x3
	if interrupt && mode == 1 {
		return base + 4*uint64(causeBit)
	}
	return base
}

// mret/sret reverse the entry sequence: restore PC from xepc, restore xIE
// from xPIE, and drop privilege to xPP.
func (h *Hart) execMRET() {
	h.PC = h.CSR.Read(CsrMepc)
	h.CSR.SetMstatusMIE(h.CSR.MstatusMPIE())
	h.CSR.SetMstatusMPIE(true)
	prev := h.CSR.MstatusMPP()
	h.CSR.SetMstatusMPP(ModeU)
	h.Mode = int(prev)
	h.pcWasRedirected = true
}

func (h *Hart) execSRET() {
	h.PC = h.CSR.Read(CsrSepc)
	h.CSR.SetMstatusSIE(h.CSR.MstatusSPIE())
	h.CSR.SetMstatusSPIE(true)
	prev := h.CSR.MstatusSPP()
	h.CSR.SetMstatusSPP(ModeU)
	h.Mode = int(prev)
	h.pcWasRedirected = true
}

// interruptPriority lists the fixed arbitration order: machine
// external/software/timer first, then the supervisor counterparts.
var interruptPriority = []uint{IntMEI, IntMSI, IntMTI, IntSEI, IntSSI, IntSTI}

// deliverPendingInterrupt selects and raises at most one pending,
// globally-enabled interrupt. Interrupts observed this cycle are taken at
// the start of the next: callers invoke this once per Step after devices
// have ticked.
func (h *Hart) deliverPendingInterrupt() {
	mip := h.CSR.Read(CsrMip)
	mie := h.CSR.Read(CsrMie)
	pending := mip & mie

	for _, bit := range interruptPriority {
		if pending>>bit&1 == 0 {
			continue
		}
		delegatedToS := h.CSR.Read(CsrMideleg)>>bit&1 != 0
		if !delegatedToS {
			if h.Mode == ModeM && !h.CSR.MstatusMIE() {
				continue
			}
		} else {
			if h.Mode == ModeS && !h.CSR.MstatusSIE() {
				continue
			}
			if h.Mode == ModeM {
				// Traps to a less-privileged mode than current are
				// never taken.
				continue
			}
		}
		h.raiseTrap(Fault{Valid: true, Code: InterruptBit | uint64(bit)})
		return
	}
}
