package rv64

// Decode16 decodes a 16-bit compressed instruction, expanding it to the
// equivalent base-ISA Instr with Width=2 so the execute engine never
// needs to know whether an instruction arrived compressed. The all-zero
// word is illegal. C.FLD/C.FSD/C.FLDSP/C.FSDSP are recognized but mapped
// to OpIllegal: floating-point is out of scope, so these decode as
// reserved encodings.
func Decode16(h uint16) Instr {
	if h == 0 {
		return Instr{Op: OpIllegal, Width: 2}
	}
	op := h & 0x3
	funct3 := (h >> 13) & 0x7

	crd := func() uint32 { return uint32((h >> 2) & 0x7) + 8 }
	crs1 := func() uint32 { return uint32((h >> 7) & 0x7) + 8 }
	crs2 := func() uint32 { return uint32((h >> 2) & 0x7) + 8 }
	rd5 := func() uint32 { return uint32((h >> 7) & 0x1f) }
	rs2full := func() uint32 { return uint32((h >> 2) & 0x1f) }

	switch op {
	case 0:
		switch funct3 {
		case 0: // C.ADDI4SPN
			uimm := cAddi4spnImm(h)
			if uimm == 0 {
				return Instr{Op: OpIllegal, Width: 2}
			}
			return Instr{Op: OpADDI, Rd: crd(), Rs1: 2, Imm: int64(uimm), Width: 2}
		case 1: // C.FLD (reserved)
			return Instr{Op: OpIllegal, Width: 2}
		case 2: // C.LW
			return Instr{Op: OpLW, Rd: crd(), Rs1: crs1(), Imm: int64(cLwImm(h)), Width: 2}
		case 3: // C.LD
			return Instr{Op: OpLD, Rd: crd(), Rs1: crs1(), Imm: int64(cLdImm(h)), Width: 2}
		case 5: // C.FSD (reserved)
			return Instr{Op: OpIllegal, Width: 2}
		case 6: // C.SW
			return Instr{Op: OpSW, Rs1: crs1(), Rs2: crs2(), Imm: int64(cLwImm(h)), Width: 2}
		case 7: // C.SD
			return Instr{Op: OpSD, Rs1: crs1(), Rs2: crs2(), Imm: int64(cLdImm(h)), Width: 2}
		}
		return Instr{Op: OpIllegal, Width: 2}

	case 1:
		switch funct3 {
		case 0: // C.ADDI (includes C.NOP)
			imm := cImm6(h)
			return Instr{Op: OpADDI, Rd: rd5(), Rs1: rd5(), Imm: imm, Width: 2}
		case 1: // C.ADDIW
			imm := cImm6(h)
			return Instr{Op: OpADDIW, Rd: rd5(), Rs1: rd5(), Imm: imm, Width: 2}
		case 2: // C.LI
			imm := cImm6(h)
			return Instr{Op: OpADDI, Rd: rd5(), Rs1: 0, Imm: imm, Width: 2}
		case 3:
			rd := rd5()
			if rd == 2 {
				return Instr{Op: OpADDI, Rd: 2, Rs1: 2, Imm: cAddi16spImm(h), Width: 2}
			}
			return Instr{Op: OpLUI, Rd: rd, Imm: cLuiImm(h), Width: 2}
		case 4:
			funct2 := (h >> 10) & 0x3
			rd := crs1()
			switch funct2 {
			case 0: // C.SRLI
				return Instr{Op: OpSRLI, Rd: rd, Rs1: rd, Imm: int64(cShamt(h)), Width: 2}
			case 1: // C.SRAI
				return Instr{Op: OpSRAI, Rd: rd, Rs1: rd, Imm: int64(cShamt(h)), Width: 2}
			case 2: // C.ANDI
				return Instr{Op: OpANDI, Rd: rd, Rs1: rd, Imm: cImm6(h), Width: 2}
			case 3:
				rs2 := crs2()
				sub3 := (h >> 5) & 0x3
				if (h>>12)&1 == 0 {
					ops := [4]Op{OpSUB, OpXOR, OpOR, OpAND}
					return Instr{Op: ops[sub3], Rd: rd, Rs1: rd, Rs2: rs2, Width: 2}
				}
				if sub3 == 0 {
					return Instr{Op: OpSUBW, Rd: rd, Rs1: rd, Rs2: rs2, Width: 2}
				}
				if sub3 == 1 {
					return Instr{Op: OpADDW, Rd: rd, Rs1: rd, Rs2: rs2, Width: 2}
				}
				return Instr{Op: OpIllegal, Width: 2}
			}
		case 5: // C.J
			return Instr{Op: OpJAL, Rd: 0, Imm: cJImm(h), Width: 2}
		case 6: // C.BEQZ
			return Instr{Op: OpBEQ, Rs1: crs1(), Rs2: 0, Imm: cBImm(h), Width: 2}
		case 7: // C.BNEZ
			return Instr{Op: OpBNE, Rs1: crs1(), Rs2: 0, Imm: cBImm(h), Width: 2}
		}
		return Instr{Op: OpIllegal, Width: 2}

	case 2:
		switch funct3 {
		case 0: // C.SLLI
			rd := rd5()
			return Instr{Op: OpSLLI, Rd: rd, Rs1: rd, Imm: int64(cShamt(h)), Width: 2}
		case 1: // C.FLDSP (reserved)
			return Instr{Op: OpIllegal, Width: 2}
		case 2: // C.LWSP
			rd := rd5()
			if rd == 0 {
				return Instr{Op: OpIllegal, Width: 2}
			}
			return Instr{Op: OpLW, Rd: rd, Rs1: 2, Imm: int64(cLwspImm(h)), Width: 2}
		case 3: // C.LDSP
			rd := rd5()
			if rd == 0 {
				return Instr{Op: OpIllegal, Width: 2}
			}
			return Instr{Op: OpLD, Rd: rd, Rs1: 2, Imm: int64(cLdspImm(h)), Width: 2}
		case 4:
			rd := rd5()
			rs2 := rs2full()
			if (h>>12)&1 == 0 {
				if rs2 == 0 { // C.JR
					if rd == 0 {
						return Instr{Op: OpIllegal, Width: 2}
					}
					return Instr{Op: OpJALR, Rd: 0, Rs1: rd, Imm: 0, Width: 2}
				}
				// C.MV
				return Instr{Op: OpADD, Rd: rd, Rs1: 0, Rs2: rs2, Width: 2}
			}
			if rd == 0 && rs2 == 0 { // C.EBREAK
				return Instr{Op: OpEBREAK, Width: 2}
			}
			if rs2 == 0 { // C.JALR
				return Instr{Op: OpJALR, Rd: 1, Rs1: rd, Imm: 0, Width: 2}
			}
			// C.ADD
			return Instr{Op: OpADD, Rd: rd, Rs1: rd, Rs2: rs2, Width: 2}
		case 5: // C.FSDSP (reserved)
			return Instr{Op: OpIllegal, Width: 2}
		case 6: // C.SWSP
			return Instr{Op: OpSW, Rs1: 2, Rs2: rs2full(), Imm: int64(cSwspImm(h)), Width: 2}
		case 7: // C.SDSP
			return Instr{Op: OpSD, Rs1: 2, Rs2: rs2full(), Imm: int64(cSdspImm(h)), Width: 2}
		}
		return Instr{Op: OpIllegal, Width: 2}
	}
	return Instr{Op: OpIllegal, Width: 2}
}

func cAddi4spnImm(h uint16) uint32 {
	v := uint32(h)
	// nzuimm[5:4|9:6|2|3] = h[12:11|10:7|6|5]
	b54 := (v >> 11) & 0x3
	b96 := (v >> 7) & 0xf
	b2 := (v >> 6) & 0x1
	b3 := (v >> 5) & 0x1
	return (b54 << 4) | (b96 << 6) | (b2 << 2) | (b3 << 3)
}

func cLwImm(h uint16) uint32 {
	v := uint32(h)
	// imm[5:3|2|6] = h[12:10|6|5]
	b53 := (v >> 10) & 0x7
	b2 := (v >> 6) & 0x1
	b6 := (v >> 5) & 0x1
	return (b53 << 3) | (b2 << 2) | (b6 << 6)
}

func cLdImm(h uint16) uint32 {
	v := uint32(h)
	// imm[5:3|7:6] = h[12:10|6:5]
	b53 := (v >> 10) & 0x7
	b76 := (v >> 5) & 0x3
	return (b53 << 3) | (b76 << 6)
}

func cImm6(h uint16) int64 {
	v := uint64(h)
	imm := ((v >> 12) & 0x1 << 5) | ((v >> 2) & 0x1f)
	return int64(Sext(imm, 5))
}

func cLuiImm(h uint16) int64 {
	v := uint64(h)
	imm := ((v >> 12) & 0x1 << 17) | (((v >> 2) & 0x1f) << 12)
	return int64(Sext(imm, 17))
}

func cAddi16spImm(h uint16) int64 {
	v := uint64(h)
	// nzimm[9|4|6|8:7|5] = h[12|6|5|4:3|2]
	b9 := (v >> 12) & 0x1
	b4 := (v >> 6) & 0x1
	b6 := (v >> 5) & 0x1
	b87 := (v >> 3) & 0x3
	b5 := (v >> 2) & 0x1
	imm := (b9 << 9) | (b4 << 4) | (b6 << 6) | (b87 << 7) | (b5 << 5)
	return int64(Sext(imm, 9))
}

func cShamt(h uint16) uint32 {
	v := uint32(h)
	return ((v >> 12) & 0x1 << 5) | ((v >> 2) & 0x1f)
}

func cJImm(h uint16) int64 {
	v := uint64(h)
	// imm[11|4|9:8|10|6|7|3:1|5] = h[12|11|10:9|8|7|6|5:3|2]
	b11 := (v >> 12) & 0x1
	b4 := (v >> 11) & 0x1
	b98 := (v >> 9) & 0x3
	b10 := (v >> 8) & 0x1
	b6 := (v >> 7) & 0x1
	b7 := (v >> 6) & 0x1
	b31 := (v >> 3) & 0x7
	b5 := (v >> 2) & 0x1
	imm := (b11 << 11) | (b4 << 4) | (b98 << 8) | (b10 << 10) | (b6 << 6) | (b7 << 7) | (b31 << 1) | (b5 << 5)
	return int64(Sext(imm, 11))
}

func cBImm(h uint16) int64 {
	v := uint64(h)
	// imm[8|4:3|7:6|2:1|5] = h[12|11:10|6:5|4:3|2]
	b8 := (v >> 12) & 0x1
	b43 := (v >> 10) & 0x3
	b76 := (v >> 5) & 0x3
	b21 := (v >> 3) & 0x3
	b5 := (v >> 2) & 0x1
	imm := (b8 << 8) | (b43 << 3) | (b76 << 6) | (b21 << 1) | (b5 << 5)
	return int64(Sext(imm, 8))
}

func cLwspImm(h uint16) uint32 {
	v := uint32(h)
	// imm[5|4:2|7:6] = h[12|6:4|3:2]
	b5 := (v >> 12) & 0x1
	b42 := (v >> 4) & 0x7
	b76 := (v >> 2) & 0x3
	return (b5 << 5) | (b42 << 2) | (b76 << 6)
}

func cLdspImm(h uint16) uint32 {
	v := uint32(h)
	// imm[5|4:3|8:6] = h[12|6:5|4:2]
	b5 := (v >> 12) & 0x1
	b43 := (v >> 5) & 0x3
	b86 := (v >> 2) & 0x7
	return (b5 << 5) | (b43 << 3) | (b86 << 6)
}

func cSwspImm(h uint16) uint32 {
	v := uint32(h)
	// imm[5:2|7:6] = h[12:9|8:7]
	b52 := (v >> 9) & 0xf
	b76 := (v >> 7) & 0x3
	return (b52 << 2) | (b76 << 6)
}

func cSdspImm(h uint16) uint32 {
	v := uint32(h)
	// imm[5:3|8:6] = h[12:10|9:7]
	b53 := (v >> 10) & 0x7
	b86 := (v >> 7) & 0x7
	return (b53 << 3) | (b86 << 6)
}
