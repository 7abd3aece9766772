package rv64

// 16550-subset register offsets.
const (
	uartTHR = 0 // THR/RBR
	uartIER = 1
	uartIIR = 2
	uartLCR = 3
	uartMCR = 4
	uartLSR = 5
	uartMSR = 6
	uartSCR = 7
)

const (
	lcrDLAB = 1 << 7

	lsrDR   = 1 << 0
	lsrTHRE = 1 << 5

	ierRxReady = 1 << 0
	ierTHRE    = 1 << 1
)

// InputSource is polled once per Uart.Tick for an available host
// keystroke; it must not block. OutputSink receives bytes the guest
// writes to THR.
type InputSource interface {
	// ReadByte returns a byte and true if one is available without
	// blocking, or (0, false) otherwise.
	ReadByte() (byte, bool)
}

// OutputSink receives a single transmitted byte.
type OutputSink interface {
	WriteByte(b byte) error
}

// Uart is a 16550-subset serial device. Lifecycle: construct at boot with
// NewUart, wire an InputSource/OutputSink, call Tick once per hart cycle.
type Uart struct {
	rbr, thr, ier, iir, lcr, mcr, lsr, msr, scr uint8

	in  InputSource
	out OutputSink
}

// NewUart creates a UART with the reset LSR state (THR empty).
func NewUart(in InputSource, out OutputSink) *Uart {
	return &Uart{
		lsr: lsrTHRE,
		iir: 0x0f,
		in:  in,
		out: out,
	}
}

// Tick polls the input source and, if a byte is available and rbr is
// empty, latches it and asserts lsr.DR. It also re-asserts lsr.THRE after
// a transmitted byte has had one tick to be "in flight".
func (u *Uart) Tick() {
	if u.lsr&lsrDR == 0 {
		if b, ok := u.in.ReadByte(); ok {
			u.rbr = b
			u.lsr |= lsrDR
		}
	}
	u.lsr |= lsrTHRE
}

// Interrupting reports whether PLIC input 10 should be asserted this
// tick, updating iir as a side effect.
func (u *Uart) Interrupting() bool {
	if u.ier&ierRxReady != 0 && u.rbr != 0 {
		u.iir = 0x04
		return true
	}
	if u.ier&ierTHRE != 0 && u.thr == 0 {
		u.iir = 0x02
		return true
	}
	u.iir = 0x0f
	return false
}

func (u *Uart) dlab() bool { return u.lcr&lcrDLAB != 0 }

// LoadByte implements byteDevice.
func (u *Uart) LoadByte(off uint64) (uint8, Fault) {
	switch off {
	case uartTHR:
		if !u.dlab() {
			v := u.rbr
			u.rbr = 0
			u.lsr &^= lsrDR
			return v, NoFault
		}
	case uartIER:
		if !u.dlab() {
			return u.ier, NoFault
		}
	case uartIIR:
		return u.iir, NoFault
	case uartLCR:
		return u.lcr, NoFault
	case uartMCR:
		return u.mcr, NoFault
	case uartLSR:
		return u.lsr, NoFault
	case uartMSR:
		return u.msr, NoFault
	case uartSCR:
		return u.scr, NoFault
	}
	return 0, NoFault
}

// StoreByte implements byteDevice.
func (u *Uart) StoreByte(off uint64, v uint8) Fault {
	switch off {
	case uartTHR:
		if !u.dlab() {
			u.thr = v
			if u.out != nil {
				_ = u.out.WriteByte(v)
			}
			u.lsr &^= lsrTHRE
			u.thr = 0
		}
	case uartIER:
		if !u.dlab() {
			u.ier = v
		}
	case uartLCR:
		u.lcr = v
	case uartMCR:
		u.mcr = v
	case uartSCR:
		u.scr = v
	}
	return NoFault
}
