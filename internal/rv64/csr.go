package rv64

// Privilege levels.
const (
	ModeU = 0
	ModeS = 1
	ModeM = 3
)

// CSR addresses used by this emulator.
const (
	CsrSstatus = 0x100
	CsrSie     = 0x104
	CsrStvec   = 0x105
	CsrSepc    = 0x141
	CsrScause  = 0x142
	CsrStval   = 0x143
	CsrSip     = 0x144
	CsrSatp    = 0x180

	CsrMstatus = 0x300
	CsrMedeleg = 0x302
	CsrMideleg = 0x303
	CsrMie     = 0x304
	CsrMtvec   = 0x305
	CsrMepc    = 0x341
	CsrMcause  = 0x342
	CsrMtval   = 0x343
	CsrMip     = 0x344
)

// mstatus/sstatus bit positions shared by both views (sstatus, sie, and
// sip are masked windows onto mstatus/mie/mip; see ReadSstatus et al.
// below for how that windowing is implemented).
const (
	mstatusSIEBit  = 1
	mstatusMIEBit  = 3
	mstatusSPIEBit = 5
	mstatusMPIEBit = 7
	mstatusSPPBit  = 8
	mstatusMPPLo   = 11
	mstatusMPPHi   = 12
	mstatusMXRBit  = 19
	mstatusSUMBit  = 18
)

// satp fields.
const (
	satpPPNLo  = 0
	satpPPNHi  = 43
	satpModeLo = 60
	satpModeHi = 63

	SatpModeBare = 0
	SatpModeSv39 = 8
)

// CSRFile is a 4096-slot bank of 64-bit control and status registers.
// Unknown addresses behave as raw, unmediated storage; a handful of
// architecturally visible registers are additionally exposed through
// bit-field accessors for the subfields the trap controller and MMU care
// about (mstatus.MPP, satp.MODE/PPN, and so on).
type CSRFile struct {
	csr [4096]uint64
}

// Read returns the raw 64-bit contents of CSR addr.
func (c *CSRFile) Read(addr uint32) uint64 {
	return c.csr[addr&0xfff]
}

// Write stores v into CSR addr.
func (c *CSRFile) Write(addr uint32, v uint64) {
	c.csr[addr&0xfff] = v
}

// ReadBits returns the inclusive bit slice [lo:hi] of CSR addr, normalized
// to bit 0. lo and hi must satisfy 0 <= lo <= hi <= 63.
func (c *CSRFile) ReadBits(addr uint32, lo, hi uint) uint64 {
	return Bits(c.Read(addr), lo, hi)
}

// WriteBits mask-aligns v into the inclusive bit slice [lo:hi] of CSR addr,
// leaving the remaining bits untouched.
func (c *CSRFile) WriteBits(addr uint32, lo, hi uint, v uint64) {
	c.Write(addr, SetBits(c.Read(addr), lo, hi, v))
}

// MstatusMPP returns mstatus.MPP (the privilege the hart had before the
// last trap into M-mode).
func (c *CSRFile) MstatusMPP() uint64 { return c.ReadBits(CsrMstatus, mstatusMPPLo, mstatusMPPHi) }

// SetMstatusMPP writes mstatus.MPP.
func (c *CSRFile) SetMstatusMPP(mode uint64) {
	c.WriteBits(CsrMstatus, mstatusMPPLo, mstatusMPPHi, mode)
}

// MstatusSPP returns sstatus.SPP (U=0 or S=1).
func (c *CSRFile) MstatusSPP() uint64 { return c.ReadBits(CsrMstatus, mstatusSPPBit, mstatusSPPBit) }

// SetMstatusSPP writes sstatus.SPP.
func (c *CSRFile) SetMstatusSPP(mode uint64) {
	c.WriteBits(CsrMstatus, mstatusSPPBit, mstatusSPPBit, mode)
}

// SatpMode returns satp.MODE (0 = Bare, 8 = Sv39).
func (c *CSRFile) SatpMode() uint64 { return c.ReadBits(CsrSatp, satpModeLo, satpModeHi) }

// SatpPPN returns satp.PPN, the physical page number of the root page table.
func (c *CSRFile) SatpPPN() uint64 { return c.ReadBits(CsrSatp, satpPPNLo, satpPPNHi) }

// MstatusMXR reports whether loads from executable-only pages are allowed.
func (c *CSRFile) MstatusMXR() bool {
	return c.ReadBits(CsrMstatus, mstatusMXRBit, mstatusMXRBit) != 0
}

// MstatusSUM reports whether S-mode may access U-mode pages.
func (c *CSRFile) MstatusSUM() bool {
	return c.ReadBits(CsrMstatus, mstatusSUMBit, mstatusSUMBit) != 0
}

// MstatusMIE/SIE and the matching xPIE shadow bits gate and save global
// interrupt enables across a trap.
func (c *CSRFile) MstatusMIE() bool  { return c.ReadBits(CsrMstatus, mstatusMIEBit, mstatusMIEBit) != 0 }
func (c *CSRFile) MstatusSIE() bool  { return c.ReadBits(CsrMstatus, mstatusSIEBit, mstatusSIEBit) != 0 }
func (c *CSRFile) MstatusMPIE() bool { return c.ReadBits(CsrMstatus, mstatusMPIEBit, mstatusMPIEBit) != 0 }
func (c *CSRFile) MstatusSPIE() bool { return c.ReadBits(CsrMstatus, mstatusSPIEBit, mstatusSPIEBit) != 0 }

func (c *CSRFile) SetMstatusMIE(v bool)  { c.WriteBits(CsrMstatus, mstatusMIEBit, mstatusMIEBit, boolU64(v)) }
func (c *CSRFile) SetMstatusSIE(v bool)  { c.WriteBits(CsrMstatus, mstatusSIEBit, mstatusSIEBit, boolU64(v)) }
func (c *CSRFile) SetMstatusMPIE(v bool) { c.WriteBits(CsrMstatus, mstatusMPIEBit, mstatusMPIEBit, boolU64(v)) }
func (c *CSRFile) SetMstatusSPIE(v bool) { c.WriteBits(CsrMstatus, mstatusSPIEBit, mstatusSPIEBit, boolU64(v)) }

// sMask selects the S-mode-visible interrupt bits (SSIP/STIP/SEIP) within
// mip/mie; sstatusMask selects the S-mode-visible mstatus fields within
// sstatus. Real hardware exposes sip/sie/sstatus as masked windows onto
// mip/mie/mstatus; this emulator models the same windowing explicitly
// instead of giving them independent backing storage, so a write through
// either name is always visible through the other.
const sMask = (1 << IntSSI) | (1 << IntSTI) | (1 << IntSEI)
const sstatusMask = (1 << mstatusSIEBit) | (1 << mstatusSPIEBit) | (1 << mstatusSPPBit) |
	(1 << mstatusSUMBit) | (1 << mstatusMXRBit)

// ReadSstatus/WriteSstatus, ReadSie/WriteSie and ReadSip/WriteSip implement
// the sstatus/sie/sip CSRs as masked views onto mstatus/mie/mip.
func (c *CSRFile) ReadSstatus() uint64 { return c.Read(CsrMstatus) & sstatusMask }
func (c *CSRFile) WriteSstatus(v uint64) {
	c.Write(CsrMstatus, (c.Read(CsrMstatus) &^ uint64(sstatusMask)) | (v & sstatusMask))
}

func (c *CSRFile) ReadSie() uint64 { return c.Read(CsrMie) & sMask }
func (c *CSRFile) WriteSie(v uint64) {
	c.Write(CsrMie, (c.Read(CsrMie)&^uint64(sMask))|(v&sMask))
}

func (c *CSRFile) ReadSip() uint64 { return c.Read(CsrMip) & sMask }
func (c *CSRFile) WriteSip(v uint64) {
	// Only the software-interrupt-pending bit is writable by software;
	// STIP/SEIP reflect hardware/PLIC state and ignore writes here.
	const swWritable = 1 << IntSSI
	c.Write(CsrMip, (c.Read(CsrMip)&^uint64(swWritable))|(v&swWritable))
}

// ReadCSR and WriteCSR route to the masked sstatus/sie/sip windows for the
// handful of addresses that need it and fall through to raw storage
// otherwise.
func (c *CSRFile) ReadCSR(addr uint32) uint64 {
	switch addr {
	case CsrSstatus:
		return c.ReadSstatus()
	case CsrSie:
		return c.ReadSie()
	case CsrSip:
		return c.ReadSip()
	}
	return c.Read(addr)
}

func (c *CSRFile) WriteCSR(addr uint32, v uint64) {
	switch addr {
	case CsrSstatus:
		c.WriteSstatus(v)
	case CsrSie:
		c.WriteSie(v)
	case CsrSip:
		c.WriteSip(v)
	default:
		c.Write(addr, v)
	}
}
