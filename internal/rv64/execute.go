package rv64

// execute runs one decoded instruction against the hart's state, mutating
// registers, memory, and PC (on control transfer) as a side effect. It
// returns a Fault if the instruction could not complete; the caller
// restores PC-advance responsibility to Step in that case. Operations that
// can fail return a Fault value instead of raising one directly.
func (h *Hart) execute(in Instr) Fault {
	x1 := h.X.ReadX(in.Rs1)
	x2 := h.X.ReadX(in.Rs2)
	imm := uint64(in.Imm)

	switch in.Op {
	case OpIllegal:
		return Fault{Valid: true, Code: ExcIllegalInstruction}

	case OpADD:
		h.X.WriteX(in.Rd, x1+x2)
	case OpSUB:
		h.X.WriteX(in.Rd, x1-x2)
	case OpSLL:
		h.X.WriteX(in.Rd, x1<<(x2&0x3f))
	case OpSLT:
		h.X.WriteX(in.Rd, boolU64(int64(x1) < int64(x2)))
	case OpSLTU:
		h.X.WriteX(in.Rd, boolU64(x1 < x2))
	case OpXOR:
		h.X.WriteX(in.Rd, x1^x2)
	case OpSRL:
		h.X.WriteX(in.Rd, x1>>(x2&0x3f))
	case OpSRA:
		h.X.WriteX(in.Rd, uint64(int64(x1)>>(x2&0x3f)))
	case OpOR:
		h.X.WriteX(in.Rd, x1|x2)
	case OpAND:
		h.X.WriteX(in.Rd, x1&x2)

	case OpADDI:
		h.X.WriteX(in.Rd, x1+imm)
	case OpSLTI:
		h.X.WriteX(in.Rd, boolU64(int64(x1) < in.Imm))
	case OpSLTIU:
		h.X.WriteX(in.Rd, boolU64(x1 < imm))
	case OpXORI:
		h.X.WriteX(in.Rd, x1^imm)
	case OpORI:
		h.X.WriteX(in.Rd, x1|imm)
	case OpANDI:
		h.X.WriteX(in.Rd, x1&imm)
	case OpSLLI:
		h.X.WriteX(in.Rd, x1<<(uint64(in.Imm)&0x3f))
	case OpSRLI:
		h.X.WriteX(in.Rd, x1>>(uint64(in.Imm)&0x3f))
	case OpSRAI:
		h.X.WriteX(in.Rd, uint64(int64(x1)>>(uint64(in.Imm)&0x3f)))

	case OpADDW:
		h.X.WriteX(in.Rd, signExtend32(uint32(x1+x2)))
	case OpSUBW:
		h.X.WriteX(in.Rd, signExtend32(uint32(x1-x2)))
	case OpSLLW:
		h.X.WriteX(in.Rd, signExtend32(uint32(x1)<<(x2&0x1f)))
	case OpSRLW:
		h.X.WriteX(in.Rd, signExtend32(uint32(x1)>>(x2&0x1f)))
	case OpSRAW:
		h.X.WriteX(in.Rd, signExtend32(uint32(int32(uint32(x1))>>(x2&0x1f))))
	case OpADDIW:
		h.X.WriteX(in.Rd, signExtend32(uint32(x1+imm)))
	case OpSLLIW:
		h.X.WriteX(in.Rd, signExtend32(uint32(x1)<<(uint64(in.Imm)&0x1f)))
	case OpSRLIW:
		h.X.WriteX(in.Rd, signExtend32(uint32(x1)>>(uint64(in.Imm)&0x1f)))
	case OpSRAIW:
		h.X.WriteX(in.Rd, signExtend32(uint32(int32(uint32(x1))>>(uint64(in.Imm)&0x1f))))

	case OpMUL:
		h.X.WriteX(in.Rd, x1*x2)
	case OpMULH:
		h.X.WriteX(in.Rd, uint64(mulHSS(int64(x1), int64(x2))))
	case OpMULHSU:
		h.X.WriteX(in.Rd, uint64(mulHSU(int64(x1), x2)))
	case OpMULHU:
		h.X.WriteX(in.Rd, mulHUU(x1, x2))
	case OpDIV:
		h.X.WriteX(in.Rd, uint64(divS64(int64(x1), int64(x2))))
	case OpDIVU:
		h.X.WriteX(in.Rd, divU64(x1, x2))
	case OpREM:
		h.X.WriteX(in.Rd, uint64(remS64(int64(x1), int64(x2))))
	case OpREMU:
		h.X.WriteX(in.Rd, remU64(x1, x2))
	case OpMULW:
		h.X.WriteX(in.Rd, signExtend32(uint32(x1)*uint32(x2)))
	case OpDIVW:
		h.X.WriteX(in.Rd, signExtend32(uint32(divS32(int32(x1), int32(x2)))))
	case OpDIVUW:
		h.X.WriteX(in.Rd, signExtend32(divU32(uint32(x1), uint32(x2))))
	case OpREMW:
		h.X.WriteX(in.Rd, signExtend32(uint32(remS32(int32(x1), int32(x2)))))
	case OpREMUW:
		h.X.WriteX(in.Rd, signExtend32(remU32(uint32(x1), uint32(x2))))

	case OpLUI:
		h.X.WriteX(in.Rd, imm)
	case OpAUIPC:
		h.X.WriteX(in.Rd, h.PC+imm)
	case OpJAL:
		h.X.WriteX(in.Rd, h.PC+uint64(in.Width))
		h.PC = h.PC + imm
		h.pcWasRedirected = true
	case OpJALR:
		target := (x1 + imm) &^ 1
		h.X.WriteX(in.Rd, h.PC+uint64(in.Width))
		h.PC = target
		h.pcWasRedirected = true

	case OpBEQ:
		if x1 == x2 {
			h.PC += imm
			h.pcWasRedirected = true
		}
	case OpBNE:
		if x1 != x2 {
			h.PC += imm
			h.pcWasRedirected = true
		}
	case OpBLT:
		if int64(x1) < int64(x2) {
			h.PC += imm
			h.pcWasRedirected = true
		}
	case OpBGE:
		if int64(x1) >= int64(x2) {
			h.PC += imm
			h.pcWasRedirected = true
		}
	case OpBLTU:
		if x1 < x2 {
			h.PC += imm
			h.pcWasRedirected = true
		}
	case OpBGEU:
		if x1 >= x2 {
			h.PC += imm
			h.pcWasRedirected = true
		}

	case OpLB, OpLH, OpLW, OpLD, OpLBU, OpLHU, OpLWU:
		return h.execLoad(in, x1)
	case OpSB, OpSH, OpSW, OpSD:
		return h.execStore(in, x1, x2)

	case OpLRW, OpLRD, OpSCW, OpSCD,
		OpAMOSWAPW, OpAMOSWAPD, OpAMOADDW, OpAMOADDD,
		OpAMOXORW, OpAMOXORD, OpAMOANDW, OpAMOANDD,
		OpAMOORW, OpAMOORD, OpAMOMINW, OpAMOMIND,
		OpAMOMAXW, OpAMOMAXD, OpAMOMINUW, OpAMOMINUD,
		OpAMOMAXUW, OpAMOMAXUD:
		return h.execAMO(in, x1, x2)

	case OpCSRRW, OpCSRRS, OpCSRRC, OpCSRRWI, OpCSRRSI, OpCSRRCI:
		return h.execCSR(in, x1)

	case OpFENCE, OpFENCEI:
		// Single-hart model: no reordering to fence against.
	case OpECALL:
		code := uint64(ExcEcallFromU)
		switch h.Mode {
		case ModeS:
			code = ExcEcallFromS
		case ModeM:
			code = ExcEcallFromM
		}
		return Fault{Valid: true, Code: code}
	case OpEBREAK:
		return Fault{Valid: true, Code: ExcBreakpoint}
	case OpMRET:
		h.execMRET()
	case OpSRET:
		h.execSRET()
	case OpWFI:
		h.waiting = true
	case OpSFENCEVMA:
		// No TLB is cached between translations, so nothing to flush.

	default:
		return Fault{Valid: true, Code: ExcIllegalInstruction}
	}
	return NoFault
}

func (h *Hart) execLoad(in Instr, base uint64) Fault {
	addr := base + uint64(in.Imm)
	var nbytes int
	var signed bool
	switch in.Op {
	case OpLB:
		nbytes, signed = 1, true
	case OpLH:
		nbytes, signed = 2, true
	case OpLW:
		nbytes, signed = 4, true
	case OpLD:
		nbytes, signed = 8, true
	case OpLBU:
		nbytes, signed = 1, false
	case OpLHU:
		nbytes, signed = 2, false
	case OpLWU:
		nbytes, signed = 4, false
	}
	v, f := h.loadX(addr, nbytes, signed)
	if f.Valid {
		return f
	}
	h.X.WriteX(in.Rd, v)
	return NoFault
}

func (h *Hart) execStore(in Instr, base, val uint64) Fault {
	addr := base + uint64(in.Imm)
	var nbytes int
	switch in.Op {
	case OpSB:
		nbytes = 1
	case OpSH:
		nbytes = 2
	case OpSW:
		nbytes = 4
	case OpSD:
		nbytes = 8
	}
	return h.storeX(addr, nbytes, val)
}

// execAMO implements the read-modify-write and load-reserved/
// store-conditional atomics. A single hart never
// contends for the reservation, so LR always succeeds and SC always
// succeeds as long as an LR preceded it on the same address.
func (h *Hart) execAMO(in Instr, addr, rs2val uint64) Fault {
	isDword := amoIsDword(in.Op)
	nbytes := 4
	if isDword {
		nbytes = 8
	}

	switch in.Op {
	case OpLRW, OpLRD:
		v, f := h.loadX(addr, nbytes, true)
		if f.Valid {
			return f
		}
		h.reservation = addr
		h.reservationSet = true
		h.X.WriteX(in.Rd, v)
		return NoFault
	case OpSCW, OpSCD:
		if !h.reservationSet || h.reservation != addr {
			h.X.WriteX(in.Rd, 1)
			return NoFault
		}
		h.reservationSet = false
		if f := h.storeX(addr, nbytes, rs2val); f.Valid {
			return f
		}
		h.X.WriteX(in.Rd, 0)
		return NoFault
	}

	old, f := h.loadX(addr, nbytes, true)
	if f.Valid {
		return f
	}
	var result uint64
	switch in.Op {
	case OpAMOSWAPW, OpAMOSWAPD:
		result = rs2val
	case OpAMOADDW, OpAMOADDD:
		result = old + rs2val
	case OpAMOXORW, OpAMOXORD:
		result = old ^ rs2val
	case OpAMOANDW, OpAMOANDD:
		result = old & rs2val
	case OpAMOORW, OpAMOORD:
		result = old | rs2val
	case OpAMOMINW, OpAMOMIND:
		result = minS64(old, rs2val)
	case OpAMOMAXW, OpAMOMAXD:
		result = maxS64(old, rs2val)
	case OpAMOMINUW, OpAMOMINUD:
		result = minU64(old, rs2val)
	case OpAMOMAXUW, OpAMOMAXUD:
		result = maxU64(old, rs2val)
	}
	if !isDword {
		result = signExtend32(uint32(result))
	}
	if f := h.storeX(addr, nbytes, result); f.Valid {
		return f
	}
	h.X.WriteX(in.Rd, old)
	return NoFault
}

func amoIsDword(op Op) bool {
	switch op {
	case OpLRD, OpSCD, OpAMOSWAPD, OpAMOADDD, OpAMOXORD, OpAMOANDD,
		OpAMOORD, OpAMOMIND, OpAMOMAXD, OpAMOMINUD, OpAMOMAXUD:
		return true
	}
	return false
}

// execCSR implements the six Zicsr instructions: read-modify-write against
// the masked sstatus/sie/sip windows or raw CSR storage, with the
// read-then-write ordering and rd=x0/rs1=x0 elision rules of the base ISA.
func (h *Hart) execCSR(in Instr, x1 uint64) Fault {
	addr := uint32(in.Imm)
	old := h.CSR.ReadCSR(addr)

	var writeVal uint64
	var write bool
	switch in.Op {
	case OpCSRRW:
		writeVal, write = x1, true
	case OpCSRRS:
		writeVal, write = old|x1, in.Rs1 != 0
	case OpCSRRC:
		writeVal, write = old&^x1, in.Rs1 != 0
	case OpCSRRWI:
		writeVal, write = uint64(in.Rs1), true
	case OpCSRRSI:
		writeVal, write = old|uint64(in.Rs1), in.Rs1 != 0
	case OpCSRRCI:
		writeVal, write = old&^uint64(in.Rs1), in.Rs1 != 0
	}
	if write {
		h.CSR.WriteCSR(addr, writeVal)
	}
	h.X.WriteX(in.Rd, old)
	return NoFault
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func signExtend32(v uint32) uint64 { return uint64(int64(int32(v))) }

func mulHSS(a, b int64) int64 {
	hi, _ := bitsMul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return int64(hi)
}

func mulHSU(a int64, b uint64) int64 {
	hi, _ := bitsMul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return int64(hi)
}

func mulHUU(a, b uint64) uint64 {
	hi, _ := bitsMul64(a, b)
	return hi
}

// bitsMul64 computes the full 128-bit product of two uint64 operands,
// returning (high, low), via schoolbook 32x32 multiplication.
func bitsMul64(a, b uint64) (hi, lo uint64) {
	const mask32 = 0xffffffff
	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32

	lo00 := aLo * bLo
	mid1 := aHi * bLo
	mid2 := aLo * bHi
	hi11 := aHi * bHi

	mid := mid1 + mid2
	carry := uint64(0)
	if mid < mid1 {
		carry = 1 << 32
	}

	loSum := lo00 + (mid << 32)
	carryLo := uint64(0)
	if loSum < lo00 {
		carryLo = 1
	}

	hiSum := hi11 + (mid >> 32) + carry + carryLo
	return hiSum, loSum
}

func divS64(a, b int64) int64 {
	if b == 0 {
		return -1
	}
	if a == minInt64 && b == -1 {
		return a
	}
	return a / b
}

func remS64(a, b int64) int64 {
	if b == 0 {
		return a
	}
	if a == minInt64 && b == -1 {
		return 0
	}
	return a % b
}

func divU64(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

func remU64(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

func divS32(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == minInt32 && b == -1 {
		return a
	}
	return a / b
}

func remS32(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == minInt32 && b == -1 {
		return 0
	}
	return a % b
}

func divU32(a, b uint32) uint32 {
	if b == 0 {
		return ^uint32(0)
	}
	return a / b
}

func remU32(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

const minInt64 = int64(-1) << 63
const minInt32 = int32(-1) << 31

func minS64(a, b uint64) uint64 {
	if int64(a) < int64(b) {
		return a
	}
	return b
}

func maxS64(a, b uint64) uint64 {
	if int64(a) > int64(b) {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
