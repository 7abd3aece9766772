package rv64

import "testing"

func TestExecuteAddSub(t *testing.T) {
	h := newTestHart(t, 0x1000)
	h.X.WriteX(1, 10)
	h.X.WriteX(2, 3)
	f := h.execute(Instr{Op: OpADD, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	if f.Valid {
		t.Fatalf("unexpected fault %+v", f)
	}
	if got := h.X.ReadX(3); got != 13 {
		t.Errorf("ADD = %d, want 13", got)
	}

	h.execute(Instr{Op: OpSUB, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	if got := h.X.ReadX(3); got != 7 {
		t.Errorf("SUB = %d, want 7", got)
	}
}

func TestExecuteX0WriteDiscarded(t *testing.T) {
	h := newTestHart(t, 0x1000)
	h.X.WriteX(1, 99)
	h.execute(Instr{Op: OpADDI, Rd: 0, Rs1: 1, Imm: 1, Width: 4})
	if h.X.ReadX(0) != 0 {
		t.Errorf("x0 must stay zero even when targeted as rd")
	}
}

func TestExecuteDivByZero(t *testing.T) {
	h := newTestHart(t, 0x1000)
	h.X.WriteX(1, 42)
	h.X.WriteX(2, 0)
	h.execute(Instr{Op: OpDIV, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	if got := int64(h.X.ReadX(3)); got != -1 {
		t.Errorf("DIV by zero = %d, want -1", got)
	}
	h.execute(Instr{Op: OpDIVU, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	if got := h.X.ReadX(3); got != ^uint64(0) {
		t.Errorf("DIVU by zero = 0x%x, want all-ones", got)
	}
	h.execute(Instr{Op: OpREM, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	if got := h.X.ReadX(3); got != 42 {
		t.Errorf("REM by zero = %d, want dividend 42", got)
	}
}

func TestExecuteDivOverflow(t *testing.T) {
	h := newTestHart(t, 0x1000)
	dividend, divisor := minInt64, int64(-1)
	h.X.WriteX(1, uint64(dividend))
	h.X.WriteX(2, uint64(divisor))
	h.execute(Instr{Op: OpDIV, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	if got := int64(h.X.ReadX(3)); got != minInt64 {
		t.Errorf("DIV overflow = %d, want MinInt64", got)
	}
	h.execute(Instr{Op: OpREM, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	if got := h.X.ReadX(3); got != 0 {
		t.Errorf("REM overflow = %d, want 0", got)
	}
}

func TestExecuteWVariantsSignExtend(t *testing.T) {
	h := newTestHart(t, 0x1000)
	h.X.WriteX(1, 0xffff_ffff_7fff_ffff)
	h.X.WriteX(2, 1)
	h.execute(Instr{Op: OpADDW, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	// 0x7fffffff + 1 = 0x80000000, sign-extended as a 32-bit negative value.
	want := uint64(0xffff_ffff_8000_0000)
	if got := h.X.ReadX(3); got != want {
		t.Errorf("ADDW = 0x%x, want 0x%x", got, want)
	}
}

func TestExecuteAmoAddW(t *testing.T) {
	h := newTestHart(t, 0x1000)
	addr := uint64(DramBase + 0x100)
	h.storeX(addr, 4, 10)
	h.X.WriteX(1, addr)
	h.X.WriteX(2, 5)
	f := h.execute(Instr{Op: OpAMOADDW, Rd: 3, Rs1: 1, Rs2: 2, Width: 4})
	if f.Valid {
		t.Fatalf("unexpected fault %+v", f)
	}
	if got := h.X.ReadX(3); got != 10 {
		t.Errorf("AMOADD.W old value = %d, want 10", got)
	}
	v, _ := h.loadX(addr, 4, true)
	if v != 15 {
		t.Errorf("AMOADD.W memory result = %d, want 15", v)
	}
}

func TestExecuteLRSCRoundTrip(t *testing.T) {
	h := newTestHart(t, 0x1000)
	addr := uint64(DramBase + 0x200)
	h.storeX(addr, 8, 7)
	h.X.WriteX(1, addr)

	h.execute(Instr{Op: OpLRD, Rd: 2, Rs1: 1, Width: 4})
	if got := h.X.ReadX(2); got != 7 {
		t.Errorf("LR.D = %d, want 7", got)
	}

	h.X.WriteX(3, 99)
	h.execute(Instr{Op: OpSCD, Rd: 4, Rs1: 1, Rs2: 3, Width: 4})
	if got := h.X.ReadX(4); got != 0 {
		t.Errorf("SC.D after matching LR should report success (0), got %d", got)
	}
	v, _ := h.loadX(addr, 8, true)
	if v != 99 {
		t.Errorf("SC.D should have stored 99, memory holds %d", v)
	}

	// A second SC without an intervening LR must fail.
	h.execute(Instr{Op: OpSCD, Rd: 4, Rs1: 1, Rs2: 3, Width: 4})
	if got := h.X.ReadX(4); got != 1 {
		t.Errorf("SC.D without a fresh reservation should report failure (1), got %d", got)
	}
}

func TestExecuteBranchTaken(t *testing.T) {
	h := newTestHart(t, 0x1000)
	h.PC = DramBase
	h.X.WriteX(1, 5)
	h.X.WriteX(2, 5)
	h.execute(Instr{Op: OpBEQ, Rs1: 1, Rs2: 2, Imm: 16, Width: 4})
	if h.PC != DramBase+16 {
		t.Errorf("PC after taken branch = 0x%x, want 0x%x", h.PC, DramBase+16)
	}
	if !h.pcWasRedirected {
		t.Errorf("taken branch should set pcWasRedirected")
	}
}

func TestExecuteCSRRW(t *testing.T) {
	const mscratch = 0x340
	h := newTestHart(t, 0x1000)
	h.X.WriteX(1, 0xabc)
	h.execute(Instr{Op: OpCSRRW, Rd: 2, Rs1: 1, Imm: mscratch, Width: 4})
	if got := h.CSR.Read(mscratch); got != 0xabc {
		t.Errorf("CSRRW did not write CSR, got 0x%x", got)
	}
	if got := h.X.ReadX(2); got != 0 {
		t.Errorf("CSRRW should return prior value 0, got 0x%x", got)
	}
}
