package session

import (
	"errors"
	"testing"
	"time"

	"github.com/patt3/lc3core/internal/vm"
)

func TestController_SimulatorIdleByDefault(t *testing.T) {
	t.Parallel()

	c := New(vm.Flags{}, nil)

	sim, err := c.Simulator()
	if err != nil {
		t.Fatalf("Simulator: %v", err)
	}

	if sim == nil {
		t.Fatalf("Simulator returned nil")
	}
}

func TestController_ExecuteThenIdleAgain(t *testing.T) {
	t.Parallel()

	c := New(vm.Flags{}, nil)

	if _, err := c.Simulator(); err != nil {
		t.Fatalf("Simulator before execute: %v", err)
	}

	closed := make(chan error, 1)

	err := c.Execute(vm.Flags{}, func(sim *vm.CPU) error {
		return nil
	}, func(runErr error) {
		closed <- runErr
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	select {
	case runErr := <-closed:
		if runErr != nil {
			t.Fatalf("closeFn err = %v", runErr)
		}
	case <-time.After(time.Second):
		t.Fatalf("closeFn never called")
	}

	if _, err := c.Simulator(); err != nil {
		t.Fatalf("Simulator after execute: %v", err)
	}
}

func TestController_NotAvailableWhileRunning(t *testing.T) {
	t.Parallel()

	c := New(vm.Flags{}, nil)

	release := make(chan struct{})
	closed := make(chan error, 1)

	err := c.Execute(vm.Flags{}, func(sim *vm.CPU) error {
		<-release
		return nil
	}, func(runErr error) { closed <- runErr })
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := c.Simulator(); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("Simulator while running: %v", err)
	}

	if err := c.Execute(vm.Flags{}, func(*vm.CPU) error { return nil }, func(error) {}); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("Execute while running: %v", err)
	}

	close(release)
	<-closed
}

func TestController_PauseJoinsWorker(t *testing.T) {
	t.Parallel()

	c := New(vm.Flags{UseRealTraps: false}, nil)

	closed := make(chan error, 1)

	err := c.Execute(vm.Flags{}, func(sim *vm.CPU) error {
		return sim.Run()
	}, func(runErr error) { closed <- runErr })
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	c.Pause()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatalf("worker did not finish after Pause")
	}

	if c.IsRunning() {
		t.Fatalf("IsRunning() = true after Pause")
	}
}

func TestController_PanicPoisons(t *testing.T) {
	t.Parallel()

	c := New(vm.Flags{}, nil)

	closed := make(chan error, 1)

	err := c.Execute(vm.Flags{}, func(sim *vm.CPU) error {
		panic("boom")
	}, func(runErr error) { closed <- runErr })
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	select {
	case runErr := <-closed:
		if runErr == nil {
			t.Fatalf("expected panic error")
		}
	case <-time.After(time.Second):
		t.Fatalf("closeFn never called after panic")
	}

	if _, err := c.Simulator(); !errors.Is(err, ErrPoisoned) {
		t.Fatalf("Simulator after panic: %v", err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset after poison: %v", err)
	}

	if _, err := c.Simulator(); err != nil {
		t.Fatalf("Simulator after reset: %v", err)
	}
}

func TestController_ResetAfterPoisonPreservesBreakpoints(t *testing.T) {
	t.Parallel()

	c := New(vm.Flags{}, nil)

	sim, err := c.Simulator()
	if err != nil {
		t.Fatalf("Simulator: %v", err)
	}

	sim.SetBreakpoint(0x4000)

	closed := make(chan error, 1)

	if err := c.Execute(vm.Flags{}, func(*vm.CPU) error {
		panic("boom")
	}, func(runErr error) { closed <- runErr }); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	<-closed

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset after poison: %v", err)
	}

	sim, err = c.Simulator()
	if err != nil {
		t.Fatalf("Simulator after reset: %v", err)
	}

	bps := sim.ListBreakpoints()
	if len(bps) != 1 || bps[0] != 0x4000 {
		t.Fatalf("ListBreakpoints() after poisoned reset = %v, want [0x4000]", bps)
	}
}

func TestController_ResetPreservesBreakpoints(t *testing.T) {
	t.Parallel()

	c := New(vm.Flags{}, nil)

	sim, err := c.Simulator()
	if err != nil {
		t.Fatalf("Simulator: %v", err)
	}

	sim.SetBreakpoint(0x3005)

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	sim, err = c.Simulator()
	if err != nil {
		t.Fatalf("Simulator after reset: %v", err)
	}

	found := false

	for _, addr := range sim.ListBreakpoints() {
		if addr == 0x3005 {
			found = true
		}
	}

	if !found {
		t.Fatalf("breakpoint at 0x3005 not preserved across reset")
	}
}
