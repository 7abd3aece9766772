// Package console adapts a real terminal to the rv64.Uart's
// InputSource/OutputSink pair: raw mode so keystrokes arrive unbuffered
// and unechoed, and a background reader so polling the UART never blocks
// the hart's tick loop.
package console

import (
	"bufio"
	"os"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"
)

// Console owns the terminal's raw-mode state and a buffered keystroke
// channel feeding the emulated UART.
type Console struct {
	oldState *term.State
	keys     <-chan keyboard.KeyEvent
	out      *bufio.Writer
}

// Open puts the controlling terminal into raw mode and starts the
// background keystroke reader. Callers must defer Close.
func Open() (*Console, error) {
	var oldState *term.State
	if term.IsTerminal(int(os.Stdin.Fd())) {
		s, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return nil, err
		}
		oldState = s
	}

	if err := keyboard.Open(); err != nil {
		if oldState != nil {
			term.Restore(int(os.Stdin.Fd()), oldState)
		}
		return nil, err
	}

	keys, err := keyboard.GetKeys(64)
	if err != nil {
		keyboard.Close()
		if oldState != nil {
			term.Restore(int(os.Stdin.Fd()), oldState)
		}
		return nil, err
	}

	return &Console{
		oldState: oldState,
		keys:     keys,
		out:      bufio.NewWriter(os.Stdout),
	}, nil
}

// Size reports the controlling terminal's dimensions, for callers that
// want to size a status banner. It returns false if stdout is not a
// terminal.
func (c *Console) Size() (width, height int, ok bool) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// Close restores the terminal to its prior state.
func (c *Console) Close() {
	c.out.Flush()
	keyboard.Close()
	if c.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), c.oldState)
	}
}

// ReadByte implements rv64.InputSource: it drains at most one buffered
// keystroke without blocking.
func (c *Console) ReadByte() (byte, bool) {
	select {
	case ev, ok := <-c.keys:
		if !ok {
			return 0, false
		}
		if ev.Err != nil {
			return 0, false
		}
		if ev.Key == keyboard.KeyCtrlC {
			return 0x03, true
		}
		if ev.Key == keyboard.KeyEnter {
			return '\r', true
		}
		if ev.Rune != 0 {
			return byte(ev.Rune), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// WriteByte implements rv64.OutputSink: it forwards one transmitted byte
// straight to stdout, flushing eagerly since UART output is interactive.
func (c *Console) WriteByte(b byte) error {
	if err := c.out.WriteByte(b); err != nil {
		return err
	}
	return c.out.Flush()
}
