package rv64

// PLIC register windows relative to PlicBase.
const (
	plicPriorityBase = 0x0004
	plicPriorityEnd  = 0x0ffc
	plicEnableOff    = 0x2080
	plicThresholdOff = 0x201000
	plicClaimOff     = 0x201004

	// IRQ source numbers.
	VirtioIRQ = 1
	UartIRQ   = 10
)

// Plic is a minimal platform-level interrupt controller arbitrating
// between the virtio-block and UART interrupt lines.
type Plic struct {
	priority  [32]uint32
	enable    uint64
	threshold uint32
	irq       uint32
}

// NewPlic returns a PLIC with all priorities/threshold zeroed (so nothing
// is enabled until firmware configures it).
func NewPlic() *Plic { return &Plic{} }

func (p *Plic) enabled(irq uint32) bool { return p.enable>>irq&1 != 0 }

// Tick arbitrates between the two fixed interrupt sources using the
// current pending state supplied by the caller, selecting the enabled
// source with the highest priority strictly above threshold. It returns
// true and the winning IRQ number if any source wins.
func (p *Plic) Tick(virtioPending, uartPending bool) (won bool, irq uint32) {
	type source struct {
		id       uint32
		pending  bool
		priority uint32
	}
	sources := [2]source{
		{VirtioIRQ, virtioPending, p.priority[VirtioIRQ]},
		{UartIRQ, uartPending, p.priority[UartIRQ]},
	}

	var bestPriority uint32
	var bestIRQ uint32
	found := false
	for _, s := range sources {
		if !s.pending || !p.enabled(s.id) {
			continue
		}
		if s.priority <= p.threshold {
			continue
		}
		if !found || s.priority > bestPriority {
			bestPriority = s.priority
			bestIRQ = s.id
			found = true
		}
	}
	if found {
		p.irq = bestIRQ
	}
	return found, bestIRQ
}

func (p *Plic) LoadByte(off uint64) (uint8, Fault) {
	switch {
	case off >= plicPriorityBase && off <= plicPriorityEnd:
		idx := (off - plicPriorityBase + 4) / 4
		return byteOf32(p.priority[idx&0x1f], (off-plicPriorityBase+4)%4), NoFault
	case off >= plicEnableOff && off < plicEnableOff+8:
		return byteOf64(p.enable, off-plicEnableOff), NoFault
	case off >= plicThresholdOff && off < plicThresholdOff+4:
		return byteOf32(p.threshold, off-plicThresholdOff), NoFault
	case off >= plicClaimOff && off < plicClaimOff+4:
		return byteOf32(p.irq, off-plicClaimOff), NoFault
	}
	return 0, NoFault
}

func (p *Plic) StoreByte(off uint64, v uint8) Fault {
	switch {
	case off >= plicPriorityBase && off <= plicPriorityEnd:
		idx := (off - plicPriorityBase + 4) / 4
		if idx < uint64(len(p.priority)) {
			p.priority[idx] = setByteOf32(p.priority[idx], (off-plicPriorityBase+4)%4, v)
		}
	case off >= plicEnableOff && off < plicEnableOff+8:
		p.enable = setByteOf64(p.enable, off-plicEnableOff, v)
	case off >= plicThresholdOff && off < plicThresholdOff+4:
		p.threshold = setByteOf32(p.threshold, off-plicThresholdOff, v)
	case off >= plicClaimOff && off < plicClaimOff+4:
		p.irq = setByteOf32(p.irq, off-plicClaimOff, v)
	}
	return NoFault
}
