package rv64

import "log"

// Legacy MMIO v1 register offsets relative to VirtioBase.
const (
	virtioMagicOff        = 0x000
	virtioVersionOff       = 0x004
	virtioDeviceIDOff      = 0x008
	virtioVendorIDOff      = 0x00c
	virtioHostFeaturesOff  = 0x010
	virtioGuestFeatOff     = 0x020
	virtioGuestPageSizeOff = 0x028
	virtioQueueNumMaxOff   = 0x034
	virtioQueueNumOff      = 0x038
	virtioQueueAlignOff    = 0x03c
	virtioQueuePFNOff      = 0x040
	virtioQueueNotifyOff   = 0x050
	virtioIntStatusOff     = 0x060
	virtioIntAckOff        = 0x064
	virtioStatusOff        = 0x070

	virtioMagicValue   = 0x74726976
	virtioVersion      = 1
	virtioDeviceIDBlk  = 2
	virtioVendorID     = 0x554d4551
	virtioQueueNumMax  = 0x2000
	virtioNotifySentinel = 0x1234

	vringDescSize = 16 // addr(8) + len(4) + flags(2) + next(2)
	descFlagWrite = 1 << 1
)

// VirtioBlk is a legacy MMIO v1 virtio block device: the config-space
// registers, a request sequence counter, and the backing disk bytes.
type VirtioBlk struct {
	hostFeatures  uint32
	guestFeatures uint32
	guestPageSize uint32
	queueNum      uint32
	queueAlign    uint32
	queuePFN      uint32
	queueNotify   uint32
	intStatus     uint32
	intAck        uint32
	status        uint32

	id   uint64
	disk []byte

	bus *Bus // set post-construction to reach guest memory for the virtqueue walk
}

// NewVirtioBlk returns a virtio-block device backed by disk (size must be
// a multiple of 512).
func NewVirtioBlk(disk []byte) *VirtioBlk {
	return &VirtioBlk{
		queueNotify: virtioNotifySentinel,
		disk:        disk,
	}
}

// AttachBus lets the device reach guest DRAM through the shared bus to
// walk the virtqueue; it must be called once the owning Bus exists.
func (v *VirtioBlk) AttachBus(b *Bus) { v.bus = b }

// Interrupting reports whether virtio's line is currently pending,
// without side effects (PLIC input 1).
func (v *VirtioBlk) Interrupting() bool { return v.intStatus&1 != 0 }

func (v *VirtioBlk) descAddr() uint64 {
	return uint64(v.queuePFN) * uint64(v.guestPageSize)
}

// process walks exactly one descriptor chain off the avail ring and
// completes the corresponding disk I/O.
func (v *VirtioBlk) process() {
	if v.bus == nil || v.queueNum == 0 {
		return
	}
	base := v.descAddr()
	availAddr := base + vringDescSize*16
	usedAddr := base + 4096

	avail0, _ := v.bus.LoadHalf(availAddr) // flags, unused
	_ = avail0
	ringIndexAddr := availAddr + 4 + (v.id%uint64(v.queueNum))*2
	ringVal, _ := v.bus.LoadHalf(ringIndexAddr)
	headIndex := ringVal % uint64(v.queueNum)

	descAddr0 := base + vringDescSize*headIndex
	next0raw, _ := v.bus.LoadHalf(descAddr0 + 14)
	next0 := next0raw % uint64(v.queueNum)

	descAddr1 := base + vringDescSize*next0
	addr1, _ := v.bus.LoadDWord(descAddr1)
	len1raw, _ := v.bus.LoadWord(descAddr1 + 8)
	len1 := uint64(len1raw)
	flags1, _ := v.bus.LoadHalf(descAddr1 + 12)
	next1raw, _ := v.bus.LoadHalf(descAddr1 + 14)
	next1 := next1raw % uint64(v.queueNum)

	descAddr2 := base + vringDescSize*next1
	addr2, _ := v.bus.LoadDWord(descAddr2)
	flags2, _ := v.bus.LoadHalf(descAddr2 + 12)

	addr0, _ := v.bus.LoadDWord(descAddr0)
	sector, _ := v.bus.LoadDWord(addr0 + 8)

	if flags1&descFlagWrite == 0 {
		for i := uint64(0); i < len1; i++ {
			b, f := v.bus.LoadByteBus(addr1 + i)
			if f.Valid {
				break
			}
			diskOff := sector*512 + i
			if diskOff < uint64(len(v.disk)) {
				v.disk[diskOff] = byte(b)
			}
		}
	} else {
		for i := uint64(0); i < len1; i++ {
			diskOff := sector*512 + i
			var b byte
			if diskOff < uint64(len(v.disk)) {
				b = v.disk[diskOff]
			}
			v.bus.StoreByteBus(addr1+i, uint64(b))
		}
	}

	if flags2&descFlagWrite == 0 {
		log.Fatalf("rv64: virtio-block: third descriptor must be device-writable")
	}
	v.bus.StoreByteBus(addr2, 0)

	v.id++
	newIdx := v.id % uint64(v.queueNum)
	v.bus.StoreHalf(usedAddr+2, newIdx)

	v.intStatus |= 1
}

func (v *VirtioBlk) LoadByte(off uint64) (uint8, Fault) {
	switch {
	case off >= virtioMagicOff && off < virtioMagicOff+4:
		return byteOf32(virtioMagicValue, off-virtioMagicOff), NoFault
	case off >= virtioVersionOff && off < virtioVersionOff+4:
		return byteOf32(virtioVersion, off-virtioVersionOff), NoFault
	case off >= virtioDeviceIDOff && off < virtioDeviceIDOff+4:
		return byteOf32(virtioDeviceIDBlk, off-virtioDeviceIDOff), NoFault
	case off >= virtioVendorIDOff && off < virtioVendorIDOff+4:
		return byteOf32(virtioVendorID, off-virtioVendorIDOff), NoFault
	case off >= virtioHostFeaturesOff && off < virtioHostFeaturesOff+4:
		return byteOf32(v.hostFeatures, off-virtioHostFeaturesOff), NoFault
	case off >= virtioQueueNumMaxOff && off < virtioQueueNumMaxOff+4:
		return byteOf32(virtioQueueNumMax, off-virtioQueueNumMaxOff), NoFault
	case off >= virtioQueuePFNOff && off < virtioQueuePFNOff+4:
		return byteOf32(v.queuePFN, off-virtioQueuePFNOff), NoFault
	case off >= virtioIntStatusOff && off < virtioIntStatusOff+4:
		return byteOf32(v.intStatus, off-virtioIntStatusOff), NoFault
	case off >= virtioStatusOff && off < virtioStatusOff+4:
		return byteOf32(v.status, off-virtioStatusOff), NoFault
	}
	return 0, NoFault
}

func (v *VirtioBlk) StoreByte(off uint64, val uint8) Fault {
	switch {
	case off >= virtioGuestFeatOff && off < virtioGuestFeatOff+4:
		v.guestFeatures = setByteOf32(v.guestFeatures, off-virtioGuestFeatOff, val)
	case off >= virtioGuestPageSizeOff && off < virtioGuestPageSizeOff+4:
		v.guestPageSize = setByteOf32(v.guestPageSize, off-virtioGuestPageSizeOff, val)
	case off >= virtioQueueNumOff && off < virtioQueueNumOff+4:
		v.queueNum = setByteOf32(v.queueNum, off-virtioQueueNumOff, val)
	case off >= virtioQueueAlignOff && off < virtioQueueAlignOff+4:
		v.queueAlign = setByteOf32(v.queueAlign, off-virtioQueueAlignOff, val)
	case off >= virtioQueuePFNOff && off < virtioQueuePFNOff+4:
		v.queuePFN = setByteOf32(v.queuePFN, off-virtioQueuePFNOff, val)
	case off >= virtioQueueNotifyOff && off < virtioQueueNotifyOff+4:
		v.queueNotify = setByteOf32(v.queueNotify, off-virtioQueueNotifyOff, val)
		if v.queueNotify != virtioNotifySentinel {
			v.process()
			v.queueNotify = virtioNotifySentinel
		}
	case off >= virtioIntAckOff && off < virtioIntAckOff+4:
		v.intAck = setByteOf32(v.intAck, off-virtioIntAckOff, val)
		if v.intAck&1 != 0 {
			v.intStatus &^= 1
		}
	case off >= virtioStatusOff && off < virtioStatusOff+4:
		v.status = setByteOf32(v.status, off-virtioStatusOff, val)
	}
	return NoFault
}
