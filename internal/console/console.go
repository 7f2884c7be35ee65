// Package console adapts the simulator's keyboard and display devices to a real terminal, using
// raw mode so keystrokes reach the virtual keyboard one byte at a time instead of line-buffered.
// Grounded directly on the teacher's internal/tty package: the same golang.org/x/term raw-mode
// setup, the same unix.IoctlGetTermios/IoctlSetTermios VMIN/VTIME tuning to make reads block on a
// single byte, and the same read-loop-plus-channel shape, re-pointed at this module's Keyboard/
// Display device types.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/patt3/lc3core/internal/vm"
)

// ErrNoTTY is returned by New if standard input is not a terminal.
var ErrNoTTY = errors.New("console: not a tty")

// Console wires a real terminal's stdin/stdout to a simulator's Keyboard and Display devices.
type Console struct {
	in    *os.File
	out   io.Writer
	fd    int
	state *term.State

	keyCh  chan byte
	termCh chan byte
}

// New puts sin into raw mode and returns a Console that is not yet wired to any devices; call Run
// to start pumping bytes. Callers must call Restore to return the terminal to its original state.
func New(sin *os.File, sout io.Writer) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	c := &Console{
		fd:     fd,
		in:     sin,
		out:    sout,
		state:  saved,
		keyCh:  make(chan byte, 1),
		termCh: make(chan byte, 80),
	}

	if err := c.setTerminalParams(1, 0); err != nil {
		return nil, err
	}

	return c, nil
}

// Restore returns the terminal to its state before New was called.
func (c *Console) Restore() error {
	_ = c.in.SetReadDeadline(time.Now())
	return term.Restore(c.fd, c.state)
}

// Run wires keyboard and display to the terminal and pumps bytes until ctx is cancelled.
func (c *Console) Run(ctx context.Context, kbd *vm.Keyboard, disp *vm.Display) {
	disp.SetListener(func(b byte) {
		select {
		case c.termCh <- b:
		default:
			// Drop the byte rather than block the simulator's own goroutine on a full channel.
		}
	})

	go c.readTerminal(ctx)
	go c.pumpKeyboard(ctx, kbd)
	c.pumpDisplay(ctx)
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, ioctlGetTermios)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, ioctlSetTermios, termIO); err != nil {
		return err
	}

	_ = c.in.SetReadDeadline(time.Time{})

	return nil
}

func (c *Console) readTerminal(ctx context.Context) {
	buf := bufio.NewReader(c.in)
	_ = syscall.SetNonblock(c.fd, false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, err := buf.ReadByte()
		if err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case c.keyCh <- b:
		}
	}
}

func (c *Console) pumpKeyboard(ctx context.Context, kbd *vm.Keyboard) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-c.keyCh:
			kbd.Push(vm.Word(b))
		}
	}
}

func (c *Console) pumpDisplay(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-c.termCh:
			if _, err := fmt.Fprintf(c.out, "%c", b); err != nil {
				return
			}
		}
	}
}
