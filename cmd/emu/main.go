package main

import (
	"debug/elf"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SchawnnDev/rve64/internal/console"
	"github.com/SchawnnDev/rve64/internal/rv64"
)

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	memoryFlag := flag.Uint64("memory", 128<<20, "guest DRAM size in bytes")
	diskPath := flag.String("disk", "", "optional virtio-block disk image")
	debugCycles := flag.Uint64("debug", 0, "stop after N cycles even if the guest has not halted (0 = unlimited)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <elf>\n", os.Args[0])
		os.Exit(2)
	}

	printIfVerbose(*verbose, "Starting RV64 emulator...")

	f, err := elf.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("opening ELF: %v", err)
	}
	defer f.Close()

	var disk []byte
	if *diskPath != "" {
		disk, err = os.ReadFile(*diskPath)
		if err != nil {
			log.Fatalf("reading disk image: %v", err)
		}
		if len(disk)%512 != 0 {
			log.Fatalf("disk image %s is not a multiple of 512 bytes", *diskPath)
		}
	}

	con, err := console.Open()
	if err != nil {
		log.Fatalf("opening console: %v", err)
	}
	defer con.Close()

	if w, h, ok := con.Size(); ok {
		printIfVerbose(*verbose, "Console size: %dx%d", w, h)
	}

	uart := rv64.NewUart(con, con)
	clint := rv64.NewClint()
	plic := rv64.NewPlic()
	virtio := rv64.NewVirtioBlk(disk)

	printIfVerbose(*verbose, "Allocating %d bytes of DRAM...", *memoryFlag)
	bus := rv64.NewBus(int(*memoryFlag), uart, clint, plic, virtio)
	virtio.AttachBus(bus)

	entry, err := rv64.LoadELF(f, bus.Dram)
	if err != nil {
		con.Close()
		log.Fatalf("loading ELF: %v", err)
	}
	printIfVerbose(*verbose, "Entry point: 0x%016x", entry)

	hart := rv64.NewHart(bus, plic, uart, clint, virtio, entry)

	done := make(chan struct{})
	printIfVerbose(*verbose, "Running hart...")
	start := time.Now()

	go func() {
		for hart.Step() {
			if *debugCycles != 0 && hart.Clock >= *debugCycles {
				break
			}
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		printIfVerbose(*verbose, "Signal received, stopping hart...")
		hart.Stop()
	case <-done:
	}

	elapsed := time.Since(start)
	printIfVerbose(*verbose, "Hart stopped after %s (%d cycles).", elapsed, hart.Clock)

	// os.Exit skips deferred calls, so restore the terminal explicitly.
	con.Close()
	dumpRegisters(hart)
	os.Exit(int(hart.ExitCode))
}

func dumpRegisters(h *rv64.Hart) {
	fmt.Fprintf(os.Stderr, "pc=0x%016x  exit=%d\n", h.PC, h.ExitCode)
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(os.Stderr, "x%-2d=0x%016x  x%-2d=0x%016x  x%-2d=0x%016x  x%-2d=0x%016x\n",
			i, h.X.ReadX(uint32(i)),
			i+1, h.X.ReadX(uint32(i+1)),
			i+2, h.X.ReadX(uint32(i+2)),
			i+3, h.X.ReadX(uint32(i+3)))
	}
}

func printIfVerbose(verbose bool, format string, v ...interface{}) {
	if verbose {
		log.Printf(format, v...)
	}
}
