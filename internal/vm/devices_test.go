package vm

import "testing"

type stubDevice struct {
	addrs    []Word
	vect     Word
	priority Priority
	pending  bool
}

func (d *stubDevice) Addrs() []Word                          { return d.addrs }
func (d *stubDevice) Read(Word) (Word, error)                { return 0, nil }
func (d *stubDevice) Write(Word, Word) (WriteEffect, error)  { return EffectNone, nil }
func (d *stubDevice) Reset()                                 {}

func (d *stubDevice) PollInterrupt() (Word, Priority, bool) {
	return d.vect, d.priority, d.pending
}

func TestDeviceBus_MapRejectsAddressCollision(t *testing.T) {
	t.Parallel()

	bus := NewDeviceBus()

	if err := bus.Map(&stubDevice{addrs: []Word{0xfe00}}); err != nil {
		t.Fatalf("first Map: %v", err)
	}

	if err := bus.Map(&stubDevice{addrs: []Word{0xfe00}}); err == nil {
		t.Fatalf("second Map at same address succeeded, want collision error")
	}
}

func TestDeviceBus_PollInterruptsPicksHighestPriority(t *testing.T) {
	t.Parallel()

	bus := NewDeviceBus()

	low := &stubDevice{addrs: []Word{0x1000}, vect: 0x10, priority: PL2, pending: true}
	high := &stubDevice{addrs: []Word{0x2000}, vect: 0x20, priority: PL6, pending: true}

	if err := bus.Map(low); err != nil {
		t.Fatalf("Map low: %v", err)
	}

	if err := bus.Map(high); err != nil {
		t.Fatalf("Map high: %v", err)
	}

	vect, pri, ok := bus.PollInterrupts()
	if !ok {
		t.Fatalf("PollInterrupts reported nothing pending")
	}

	if vect != 0x20 || pri != PL6 {
		t.Fatalf("PollInterrupts = (%s, %s), want (0x20, PL6)", vect, pri)
	}
}

func TestDeviceBus_PollInterruptsNoneWhenIdle(t *testing.T) {
	t.Parallel()

	bus := NewDeviceBus()

	if err := bus.Map(&stubDevice{addrs: []Word{0x1000}}); err != nil {
		t.Fatalf("Map: %v", err)
	}

	if _, _, ok := bus.PollInterrupts(); ok {
		t.Fatalf("PollInterrupts reported pending with no device asserting")
	}
}

func TestDeviceBus_ResetRestoresAllDevices(t *testing.T) {
	t.Parallel()

	bus := NewDeviceBus()
	kb := NewKeyboard(0x80, PriorityNormal)

	if err := bus.Map(kb); err != nil {
		t.Fatalf("Map: %v", err)
	}

	kb.Push('x')
	bus.Reset()

	if kb.Pending() {
		t.Fatalf("keyboard still has pending input after bus Reset")
	}
}
