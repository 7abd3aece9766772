package rv64

// RegFile models the hart's 32 general-purpose integer registers. x[0] is
// hard-wired to zero: ReadX always returns 0 for index 0, and WriteX is a
// no-op for index 0 so that decode-time references to rd=0 still see a
// consistent write discarded at the end of the step, per spec.
type RegFile struct {
	x [32]uint64
}

// ReadX returns the signed 64-bit value of register i (x0 reads as 0).
func (r *RegFile) ReadX(i uint32) uint64 {
	if i == 0 {
		return 0
	}
	return r.x[i&0x1f]
}

// WriteX stores v into register i; writes to x0 are discarded.
func (r *RegFile) WriteX(i uint32, v uint64) {
	if i == 0 {
		return
	}
	r.x[i&0x1f] = v
}
