package rv64

import (
	"debug/elf"
	"fmt"
)

// LoadELF copies every PROGBITS section with a non-zero load address from
// f into dram at sh_addr-DramBase, and returns the entry point. Only
// ET_EXEC binaries are accepted: this emulator has no loader for
// position-independent executables.
func LoadELF(f *elf.File, dram []byte) (entry uint64, err error) {
	if f.Type != elf.ET_EXEC {
		return 0, fmt.Errorf("rv64: not an executable ELF (type %s)", f.Type)
	}
	if f.Machine != elf.EM_RISCV || f.Class != elf.ELFCLASS64 {
		return 0, fmt.Errorf("rv64: not a 64-bit RISC-V ELF")
	}

	for _, sec := range f.Sections {
		if sec.Type != elf.SHT_PROGBITS || sec.Addr == 0 {
			continue
		}
		if sec.Addr < DramBase {
			return 0, fmt.Errorf("rv64: section %s loads below DRAM base", sec.Name)
		}
		off := sec.Addr - DramBase
		if off+sec.Size > uint64(len(dram)) {
			return 0, fmt.Errorf("rv64: section %s overruns DRAM (size %d)", sec.Name, len(dram))
		}
		data, err := sec.Data()
		if err != nil {
			return 0, fmt.Errorf("rv64: reading section %s: %w", sec.Name, err)
		}
		copy(dram[off:], data)
	}
	return f.Entry, nil
}
