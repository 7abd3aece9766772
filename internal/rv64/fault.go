package rv64

// Exception codes. Interrupt codes share the same numbering
// space with bit 63 set (see InterruptBit).
const (
	ExcInstructionMisaligned = 0
	ExcInstructionAccess     = 1
	ExcIllegalInstruction    = 2
	ExcBreakpoint            = 3
	ExcLoadMisaligned        = 4
	ExcLoadAccess            = 5
	ExcStoreMisaligned       = 6
	ExcStoreAMOAccess        = 7
	ExcEcallFromU            = 8
	ExcEcallFromS            = 9
	ExcEcallFromM            = 11
	ExcInstructionPageFault  = 12
	ExcLoadPageFault         = 13
	ExcStoreAMOPageFault     = 15
)

// Interrupt causes (low bits; InterruptBit marks them as asynchronous).
const (
	IntSSI = 1 // supervisor software interrupt
	IntMSI = 3 // machine software interrupt
	IntSTI = 5 // supervisor timer interrupt
	IntMTI = 7 // machine timer interrupt
	IntSEI = 9 // supervisor external interrupt
	IntMEI = 11
)

// InterruptBit, when set in a cause value, marks the cause as an
// asynchronous interrupt rather than a synchronous exception.
const InterruptBit = uint64(1) << 63

// AccessKind distinguishes the three ways the hart can touch memory; the
// MMU and the bus both branch on it to pick the right fault code.
type AccessKind int

const (
	AccessFetch AccessKind = iota
	AccessLoad
	AccessStore
)

// Fault is a guest-visible trap condition raised by a "may-fail" memory,
// MMU, or execute operation. It is a plain value, not an error: the
// execute layer short-circuits on a non-zero Fault.Valid and the trap
// controller is the only consumer that clears it. stval/mtval are always
// written as zero on trap entry (spec.md's trap-entry step 4), so no
// faulting-address payload is carried here.
type Fault struct {
	Valid bool
	Code  uint64 // exception code, or InterruptBit|code for interrupts
}

// NoFault is the zero value meaning "the operation completed".
var NoFault = Fault{}

func faultFor(kind AccessKind, pageFault bool) Fault {
	var code uint64
	switch kind {
	case AccessFetch:
		if pageFault {
			code = ExcInstructionPageFault
		} else {
			code = ExcInstructionAccess
		}
	case AccessLoad:
		if pageFault {
			code = ExcLoadPageFault
		} else {
			code = ExcLoadAccess
		}
	case AccessStore:
		if pageFault {
			code = ExcStoreAMOPageFault
		} else {
			code = ExcStoreAMOAccess
		}
	}
	return Fault{Valid: true, Code: code}
}
