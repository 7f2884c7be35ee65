// Package session implements the execution controller: the three-valued Idle/Running/Poisoned
// state machine that owns the simulator, spawning a worker goroutine to run it and handing
// ownership back on completion, pause, or a panic. Grounded on the teacher's cli/cmd/exec.go
// run-in-a-goroutine-plus-cancel pattern, generalized from a one-shot context.Context cancellation
// to the spec's own pause-by-clearing-MCR-and-joining contract.
package session

import (
	"fmt"
	"sync"

	"github.com/patt3/lc3core/internal/log"
	"github.com/patt3/lc3core/internal/vm"
)

type state uint8

const (
	stateIdle state = iota
	stateRunning
	statePoisoned
)

// Controller owns exactly one *vm.CPU at a time, either directly (Idle) or on loan to a worker
// goroutine (Running). Callers never touch the CPU concurrently with the worker: Simulator only
// returns a handle while Idle.
type Controller struct {
	mu   sync.Mutex
	st   state
	sim  *vm.CPU
	done chan struct{}
	log  *log.Logger

	// lastMCR/lastKeyboard cache the loaned simulator's stable sub-objects so Pause can reach them
	// while sim itself is nil (on loan to the worker). lastSim additionally keeps the loaned
	// simulator reachable for a read-only ListBreakpoints() call if the worker panics: Reset must
	// still preserve breakpoints across a Poisoned recovery, and the worker never mutates the
	// breakpoint set itself, so reading it post-panic is safe without further synchronization.
	lastMCR      *vm.ControlRegister
	lastKeyboard *vm.Keyboard
	lastSim      *vm.CPU

	initFlags vm.Flags
}

// New creates a controller owning a freshly built simulator.
func New(flags vm.Flags, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	sim := vm.New(flags)

	return &Controller{
		sim:          sim,
		st:           stateIdle,
		log:          logger,
		lastMCR:      sim.MCR,
		lastKeyboard: sim.Keyboard,
		initFlags:    flags,
	}
}

// Simulator returns the owned simulator while Idle. It returns ErrNotAvailable while Running and
// ErrPoisoned once a worker has panicked.
func (c *Controller) Simulator() (*vm.CPU, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.st {
	case stateIdle:
		return c.sim, nil
	case statePoisoned:
		return nil, ErrPoisoned
	default:
		return nil, ErrNotAvailable
	}
}

// Execute requires Idle, applies flags to the simulator, and transfers ownership to a newly
// spawned worker goroutine that calls execFn(sim). Once execFn returns (or panics), the simulator
// is deposited back for reacquisition and closeFn is called with the result. Execute returns
// immediately; closeFn runs on the worker goroutine, not the caller's.
func (c *Controller) Execute(flags vm.Flags, execFn func(*vm.CPU) error, closeFn func(error)) error {
	c.mu.Lock()

	switch c.st {
	case statePoisoned:
		c.mu.Unlock()
		return ErrPoisoned
	case stateRunning:
		c.mu.Unlock()
		return ErrNotAvailable
	}

	sim := c.sim
	sim.Flags = flags
	c.sim = nil
	c.lastSim = sim
	c.st = stateRunning
	done := make(chan struct{})
	c.done = done

	c.mu.Unlock()

	go c.work(sim, done, execFn, closeFn)

	return nil
}

func (c *Controller) work(sim *vm.CPU, done chan struct{}, execFn func(*vm.CPU) error, closeFn func(error)) {
	defer close(done)

	var runErr error

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("session worker panicked", "recover", r)

			c.mu.Lock()
			c.st = statePoisoned
			c.mu.Unlock()

			closeFn(fmt.Errorf("session: worker panicked: %v", r))

			return
		}

		c.mu.Lock()
		c.sim = sim
		c.st = stateIdle
		c.mu.Unlock()

		closeFn(runErr)
	}()

	runErr = execFn(sim)
}

// Pause clears the running simulator's MCR, which the run loop polls at every instruction
// boundary, wakes any goroutine blocked on a keyboard read so it observes the clear promptly, and
// joins the worker. It is idempotent while Idle or Poisoned.
func (c *Controller) Pause() {
	c.mu.Lock()

	if c.st != stateRunning {
		c.mu.Unlock()
		return
	}

	done := c.done

	c.mu.Unlock()

	// The simulator handle itself is on loan to the worker, but MCR and Keyboard are reachable
	// without it: MCR is the spec's atomic shared cell, and Keyboard's Wake is safe to call from
	// any goroutine by construction.
	c.mcr().Halt()
	c.keyboard().Wake()

	<-done
}

// mcr and keyboard read the loaned simulator's stable sub-objects. They race benignly with the
// worker's own field reads/writes on PC, registers, and memory because MCR and Keyboard are
// themselves internally synchronized (atomic.Bool, mutex+cond respectively) and the *CPU pointer
// and its MCR/Keyboard fields are set once at construction and never reassigned for the lifetime
// of a run.
func (c *Controller) mcr() *vm.ControlRegister {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sim != nil {
		return c.sim.MCR
	}

	return c.lastMCR
}

func (c *Controller) keyboard() *vm.Keyboard {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sim != nil {
		return c.sim.Keyboard
	}

	return c.lastKeyboard
}

// Reset rebuilds the simulator per machine_init, reloading the OS image and clearing registers,
// PSR, and the frame stack, while preserving breakpoints across the swap. It is valid from Idle or
// Poisoned; it returns ErrNotAvailable while Running, since pausing first is the caller's
// responsibility.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st == stateRunning {
		return ErrNotAvailable
	}

	var breakpoints []vm.Word

	switch {
	case c.sim != nil:
		breakpoints = c.sim.ListBreakpoints()
	case c.lastSim != nil:
		breakpoints = c.lastSim.ListBreakpoints()
	}

	next := vm.New(c.initFlags)

	for _, addr := range breakpoints {
		next.SetBreakpoint(addr)
	}

	c.sim = next
	c.lastSim = next
	c.lastMCR = next.MCR
	c.lastKeyboard = next.Keyboard
	c.st = stateIdle

	return nil
}

// IsRunning reports whether the worker currently owns the simulator.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.st == stateRunning
}
