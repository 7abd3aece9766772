package rv64

import "testing"

// newTestHart returns a hart in Bare (no-MMU) mode with DRAM mapped at
// DramBase, ready to have instructions poked directly into memory.
func newTestHart(t *testing.T, dramSize int) *Hart {
	t.Helper()
	uart := NewUart(fakeInput{}, fakeOutput{})
	clint := NewClint()
	plic := NewPlic()
	virtio := NewVirtioBlk(nil)
	bus := NewBus(dramSize, uart, clint, plic, virtio)
	virtio.AttachBus(bus)
	return NewHart(bus, plic, uart, clint, virtio, DramBase)
}

func (h *Hart) pokeWord(pa uint64, w uint32) {
	for i := 0; i < 4; i++ {
		h.Bus.Dram[pa-DramBase+uint64(i)] = byte(w >> (8 * i))
	}
}

func TestHartAddiImmediatePropagation(t *testing.T) {
	h := newTestHart(t, 0x1000)
	// addi x1, x0, 5
	h.pokeWord(DramBase, encodeI(0x13, 1, 0, 0, 5))
	if !h.Step() {
		t.Fatalf("hart should keep running after one ADDI")
	}
	if got := h.X.ReadX(1); got != 5 {
		t.Errorf("x1 = %d, want 5", got)
	}
	if h.PC != DramBase+4 {
		t.Errorf("PC = 0x%x, want 0x%x", h.PC, DramBase+4)
	}
}

func TestHartLuiAddiAssemblesImmediate(t *testing.T) {
	h := newTestHart(t, 0x1000)
	// lui x1, 0x12345 ; addi x1, x1, 0x678
	h.pokeWord(DramBase, encodeU(0x37, 1, 0x12345))
	h.pokeWord(DramBase+4, encodeI(0x13, 1, 0, 1, 0x678))
	h.Step()
	h.Step()
	want := uint64(0x12345678)
	if got := h.X.ReadX(1); got != want {
		t.Errorf("x1 = 0x%x, want 0x%x", got, want)
	}
}

func TestHartPCZeroTerminates(t *testing.T) {
	h := newTestHart(t, 0x1000)
	h.X.WriteX(10, 42)
	h.PC = 0
	if h.Step() {
		t.Fatalf("Step should report termination when PC==0")
	}
	if !h.Halted {
		t.Errorf("hart should be halted")
	}
	if h.ExitCode != 42 {
		t.Errorf("ExitCode = %d, want 42", h.ExitCode)
	}
}

func TestHartWFIWaitsForInterrupt(t *testing.T) {
	h := newTestHart(t, 0x1000)
	// wfi
	h.pokeWord(DramBase, 0x10500073)
	h.CSR.Write(CsrMie, 1<<IntMTI)
	h.Step()
	if !h.waiting {
		t.Fatalf("hart should be waiting after WFI")
	}
	// PC must not have advanced while waiting.
	pcDuringWait := h.PC
	h.Step()
	if h.PC != pcDuringWait {
		t.Errorf("PC should not move while waiting for an interrupt")
	}
}

func TestHartStopHaltsTickLoop(t *testing.T) {
	h := newTestHart(t, 0x1000)
	h.pokeWord(DramBase, encodeI(0x13, 1, 0, 0, 1)) // addi x1, x0, 1
	h.Stop()
	if h.Step() {
		t.Fatalf("Step should report stopped immediately after Stop")
	}
	if h.X.ReadX(1) != 0 {
		t.Errorf("no instruction should execute once stopped")
	}
}

func encodeI(opcode, rd, funct3, rs1 uint32, imm int64) uint32 {
	return (uint32(imm)&0xfff)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeU(opcode, rd uint32, imm20 uint32) uint32 {
	return imm20<<12 | rd<<7 | opcode
}
