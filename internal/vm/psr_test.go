package vm

import "testing"

func TestProcessorStatus_Set(t *testing.T) {
	t.Parallel()

	cases := []struct {
		reg  Register
		want Condition
	}{
		{0, ConditionZero},
		{1, ConditionPositive},
		{0xffff, ConditionNegative},
	}

	for _, c := range cases {
		var ps ProcessorStatus

		ps.Set(c.reg)

		if ps.Cond() != c.want {
			t.Errorf("Set(%#04x).Cond() = %s, want %s", uint16(c.reg), ps.Cond(), c.want)
		}
	}
}

func TestProcessorStatus_PriorityAndPrivilege(t *testing.T) {
	t.Parallel()

	ps := StatusUser | StatusHigh | StatusPositive

	if ps.Privilege() != PrivilegeUser {
		t.Errorf("Privilege() = %s, want USER", ps.Privilege())
	}

	if ps.Priority() != PL7 {
		t.Errorf("Priority() = %s, want PL7", ps.Priority())
	}

	if !ps.Positive() || ps.Negative() || ps.Zero() {
		t.Errorf("condition flags wrong: %s", ps)
	}
}

func TestPriority_Clamp(t *testing.T) {
	t.Parallel()

	if got := Priority(9).Clamp(); got != PL7 {
		t.Fatalf("Clamp(9) = %s, want PL7", got)
	}

	if got := Priority(3).Clamp(); got != PL3 {
		t.Fatalf("Clamp(3) = %s, want PL3", got)
	}
}

func TestControlRegister_RunStopRoundTrip(t *testing.T) {
	t.Parallel()

	cr := NewControlRegister()
	if !cr.Running() {
		t.Fatalf("fresh control register is not running")
	}

	if cr.Get() != 0x8000 {
		t.Fatalf("Get() = %#04x, want 0x8000", uint16(cr.Get()))
	}

	cr.Halt()

	if cr.Running() {
		t.Fatalf("Halt() did not stop the register")
	}

	if cr.Get() != 0 {
		t.Fatalf("Get() after Halt = %#04x, want 0", uint16(cr.Get()))
	}

	cr.Put(0x8000)

	if !cr.Running() {
		t.Fatalf("Put(0x8000) did not restart the register")
	}
}
