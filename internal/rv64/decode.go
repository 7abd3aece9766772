package rv64

// Op identifies one fully-decoded instruction semantics. Execute matches
// on this closed set instead of re-inspecting opcode/funct3/funct7 bits,
// tagged variants instead of re-switching on opcode/funct3/funct7 at
// execute time.
type Op int

const (
	OpIllegal Op = iota

	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW

	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW

	OpLUI
	OpAUIPC
	OpJAL
	OpJALR

	OpLB
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU
	OpSB
	OpSH
	OpSW
	OpSD

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpLRW
	OpLRD
	OpSCW
	OpSCD
	OpAMOSWAPW
	OpAMOSWAPD
	OpAMOADDW
	OpAMOADDD
	OpAMOXORW
	OpAMOXORD
	OpAMOANDW
	OpAMOANDD
	OpAMOORW
	OpAMOORD
	OpAMOMINW
	OpAMOMIND
	OpAMOMAXW
	OpAMOMAXD
	OpAMOMINUW
	OpAMOMINUD
	OpAMOMAXUW
	OpAMOMAXUD

	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI

	OpFENCE
	OpFENCEI
	OpECALL
	OpEBREAK
	OpMRET
	OpSRET
	OpWFI
	OpSFENCEVMA
)

// Instr is a decoded instruction: opcode tag plus the operand fields that
// tag cares about. Not every field is meaningful for every Op.
type Instr struct {
	Op    Op
	Rd    uint32
	Rs1   uint32
	Rs2   uint32
	Imm   int64
	Width uint32 // encoded width in bytes: 2 (compressed) or 4
}

// 32-bit opcode field values.
const (
	opcLOAD    = 0x03
	opcMISCMEM = 0x0f
	opcOPIMM   = 0x13
	opcAUIPC   = 0x17
	opcOPIMM32 = 0x1b
	opcSTORE   = 0x23
	opcAMO     = 0x2f
	opcOP      = 0x33
	opcLUI     = 0x37
	opcOP32    = 0x3b
	opcBRANCH  = 0x63
	opcJALR    = 0x67
	opcJAL     = 0x6f
	opcSYSTEM  = 0x73
)

func u(v uint32, lo, hi uint) uint32 { return uint32(Bits(uint64(v), lo, hi)) }

// Decode32 decodes a 32-bit instruction word. If opcode[1:0] != 0b11 the
// caller should have routed the low 16 bits to Decode16 instead.
func Decode32(w uint32) Instr {
	opcode := w & 0x7f
	rd := u(w, 7, 11)
	funct3 := u(w, 12, 14)
	rs1 := u(w, 15, 19)
	rs2 := u(w, 20, 24)
	funct7 := u(w, 25, 31)

	iImm := int64(Sext(uint64(w)>>20, 11))
	sImm := int64(Sext((uint64(w)>>25)<<5|uint64(u(w, 7, 11)), 11))
	bImm := int64(Sext(
		(uint64(u(w, 31, 31))<<12)|
			(uint64(u(w, 7, 7))<<11)|
			(uint64(u(w, 25, 30))<<5)|
			(uint64(u(w, 8, 11))<<1), 12))
	uImm := int64(Sext(uint64(w)&0xfffff000, 31))
	jImm := int64(Sext(
		(uint64(u(w, 31, 31))<<20)|
			(uint64(u(w, 12, 19))<<12)|
			(uint64(u(w, 20, 20))<<11)|
			(uint64(u(w, 21, 30))<<1), 20))

	switch opcode {
	case opcLUI:
		return Instr{Op: OpLUI, Rd: rd, Imm: uImm, Width: 4}
	case opcAUIPC:
		return Instr{Op: OpAUIPC, Rd: rd, Imm: uImm, Width: 4}
	case opcJAL:
		return Instr{Op: OpJAL, Rd: rd, Imm: jImm, Width: 4}
	case opcJALR:
		if funct3 != 0 {
			return Instr{Op: OpIllegal, Width: 4}
		}
		return Instr{Op: OpJALR, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	case opcBRANCH:
		ops := [8]Op{OpBEQ, OpBNE, OpIllegal, OpIllegal, OpBLT, OpBGE, OpBLTU, OpBGEU}
		op := ops[funct3]
		if op == OpIllegal {
			return Instr{Op: OpIllegal, Width: 4}
		}
		return Instr{Op: op, Rs1: rs1, Rs2: rs2, Imm: bImm, Width: 4}
	case opcLOAD:
		ops := [8]Op{OpLB, OpLH, OpLW, OpLD, OpLBU, OpLHU, OpLWU, OpIllegal}
		op := ops[funct3]
		if op == OpIllegal {
			return Instr{Op: OpIllegal, Width: 4}
		}
		return Instr{Op: op, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	case opcSTORE:
		ops := [8]Op{OpSB, OpSH, OpSW, OpSD, OpIllegal, OpIllegal, OpIllegal, OpIllegal}
		op := ops[funct3]
		if op == OpIllegal {
			return Instr{Op: OpIllegal, Width: 4}
		}
		return Instr{Op: op, Rs1: rs1, Rs2: rs2, Imm: sImm, Width: 4}
	case opcOPIMM:
		return decodeOpImm(funct3, funct7, rd, rs1, iImm, w)
	case opcOPIMM32:
		return decodeOpImm32(funct3, funct7, rd, rs1, w)
	case opcOP:
		return decodeOp(funct3, funct7, rd, rs1, rs2)
	case opcOP32:
		return decodeOp32(funct3, funct7, rd, rs1, rs2)
	case opcMISCMEM:
		if funct3 == 1 {
			return Instr{Op: OpFENCEI, Width: 4}
		}
		return Instr{Op: OpFENCE, Width: 4}
	case opcAMO:
		return decodeAMO(funct3, funct7, rd, rs1, rs2)
	case opcSYSTEM:
		return decodeSystem(funct3, rd, rs1, rs2, funct7, w)
	}
	return Instr{Op: OpIllegal, Width: 4}
}

func decodeOpImm(funct3, funct7 uint32, rd, rs1 uint32, iImm int64, w uint32) Instr {
	shamt := int64(u(w, 20, 25))
	switch funct3 {
	case 0:
		return Instr{Op: OpADDI, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	case 1:
		return Instr{Op: OpSLLI, Rd: rd, Rs1: rs1, Imm: shamt, Width: 4}
	case 2:
		return Instr{Op: OpSLTI, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	case 3:
		return Instr{Op: OpSLTIU, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	case 4:
		return Instr{Op: OpXORI, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	case 5:
		if funct7>>1 == 0x10 {
			return Instr{Op: OpSRAI, Rd: rd, Rs1: rs1, Imm: shamt, Width: 4}
		}
		return Instr{Op: OpSRLI, Rd: rd, Rs1: rs1, Imm: shamt, Width: 4}
	case 6:
		return Instr{Op: OpORI, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	case 7:
		return Instr{Op: OpANDI, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	}
	return Instr{Op: OpIllegal, Width: 4}
}

func decodeOpImm32(funct3, funct7 uint32, rd, rs1 uint32, w uint32) Instr {
	shamt := int64(u(w, 20, 24))
	iImm := int64(Sext(uint64(w)>>20, 11))
	switch funct3 {
	case 0:
		return Instr{Op: OpADDIW, Rd: rd, Rs1: rs1, Imm: iImm, Width: 4}
	case 1:
		return Instr{Op: OpSLLIW, Rd: rd, Rs1: rs1, Imm: shamt, Width: 4}
	case 5:
		if funct7 == 0x20 {
			return Instr{Op: OpSRAIW, Rd: rd, Rs1: rs1, Imm: shamt, Width: 4}
		}
		return Instr{Op: OpSRLIW, Rd: rd, Rs1: rs1, Imm: shamt, Width: 4}
	}
	return Instr{Op: OpIllegal, Width: 4}
}

func decodeOp(funct3, funct7 uint32, rd, rs1, rs2 uint32) Instr {
	if funct7 == 0x01 {
		ops := [8]Op{OpMUL, OpMULH, OpMULHSU, OpMULHU, OpDIV, OpDIVU, OpREM, OpREMU}
		return Instr{Op: ops[funct3], Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	}
	switch funct3 {
	case 0:
		if funct7 == 0x20 {
			return Instr{Op: OpSUB, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
		}
		return Instr{Op: OpADD, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 1:
		return Instr{Op: OpSLL, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 2:
		return Instr{Op: OpSLT, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 3:
		return Instr{Op: OpSLTU, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 4:
		return Instr{Op: OpXOR, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 5:
		if funct7 == 0x20 {
			return Instr{Op: OpSRA, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
		}
		return Instr{Op: OpSRL, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 6:
		return Instr{Op: OpOR, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 7:
		return Instr{Op: OpAND, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	}
	return Instr{Op: OpIllegal, Width: 4}
}

func decodeOp32(funct3, funct7 uint32, rd, rs1, rs2 uint32) Instr {
	if funct7 == 0x01 {
		ops := [8]Op{OpMULW, OpIllegal, OpIllegal, OpIllegal, OpDIVW, OpDIVUW, OpREMW, OpREMUW}
		return Instr{Op: ops[funct3], Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	}
	switch funct3 {
	case 0:
		if funct7 == 0x20 {
			return Instr{Op: OpSUBW, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
		}
		return Instr{Op: OpADDW, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 1:
		return Instr{Op: OpSLLW, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	case 5:
		if funct7 == 0x20 {
			return Instr{Op: OpSRAW, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
		}
		return Instr{Op: OpSRLW, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
	}
	return Instr{Op: OpIllegal, Width: 4}
}

func decodeAMO(funct3, funct7 uint32, rd, rs1, rs2 uint32) Instr {
	funct5 := funct7 >> 2
	isDword := funct3 == 3
	var op Op
	switch funct5 {
	case 0x02:
		if isDword {
			op = OpLRD
		} else {
			op = OpLRW
		}
	case 0x03:
		if isDword {
			op = OpSCD
		} else {
			op = OpSCW
		}
	case 0x01:
		op = pick(isDword, OpAMOSWAPD, OpAMOSWAPW)
	case 0x00:
		op = pick(isDword, OpAMOADDD, OpAMOADDW)
	case 0x04:
		op = pick(isDword, OpAMOXORD, OpAMOXORW)
	case 0x0c:
		op = pick(isDword, OpAMOANDD, OpAMOANDW)
	case 0x08:
		op = pick(isDword, OpAMOORD, OpAMOORW)
	case 0x10:
		op = pick(isDword, OpAMOMIND, OpAMOMINW)
	case 0x14:
		op = pick(isDword, OpAMOMAXD, OpAMOMAXW)
	case 0x18:
		op = pick(isDword, OpAMOMINUD, OpAMOMINUW)
	case 0x1c:
		op = pick(isDword, OpAMOMAXUD, OpAMOMAXUW)
	default:
		op = OpIllegal
	}
	return Instr{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2, Width: 4}
}

func pick(cond bool, a, b Op) Op {
	if cond {
		return a
	}
	return b
}

func decodeSystem(funct3, rd, rs1, rs2, funct7 uint32, w uint32) Instr {
	if funct3 == 0 {
		switch {
		case rs2 == 0 && funct7 == 0:
			return Instr{Op: OpECALL, Width: 4}
		case rs2 == 1 && funct7 == 0:
			return Instr{Op: OpEBREAK, Width: 4}
		case rs2 == 2 && funct7 == 0x18:
			return Instr{Op: OpMRET, Width: 4}
		case rs2 == 2 && funct7 == 0x08:
			return Instr{Op: OpSRET, Width: 4}
		case rs2 == 5 && funct7 == 0x08:
			return Instr{Op: OpWFI, Width: 4}
		case funct7 == 0x09:
			return Instr{Op: OpSFENCEVMA, Width: 4}
		}
		return Instr{Op: OpIllegal, Width: 4}
	}
	csrAddr := int64(u(w, 20, 31))
	switch funct3 {
	case 1:
		return Instr{Op: OpCSRRW, Rd: rd, Rs1: rs1, Imm: csrAddr, Width: 4}
	case 2:
		return Instr{Op: OpCSRRS, Rd: rd, Rs1: rs1, Imm: csrAddr, Width: 4}
	case 3:
		return Instr{Op: OpCSRRC, Rd: rd, Rs1: rs1, Imm: csrAddr, Width: 4}
	case 5:
		return Instr{Op: OpCSRRWI, Rd: rd, Rs1: rs1, Imm: csrAddr, Width: 4}
	case 6:
		return Instr{Op: OpCSRRSI, Rd: rd, Rs1: rs1, Imm: csrAddr, Width: 4}
	case 7:
		return Instr{Op: OpCSRRCI, Rd: rd, Rs1: rs1, Imm: csrAddr, Width: 4}
	}
	return Instr{Op: OpIllegal, Width: 4}
}
