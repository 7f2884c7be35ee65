package vm

// observer.go records every memory access made during a step or run, so the host can refresh its
// disassembly annotations for only the addresses that actually changed.

import "sync"

// Observer accumulates AccessEvents as memory is read and written. It is drained, not polled: a
// call to Take returns everything recorded since the previous Take.
type Observer struct {
	mu     sync.Mutex
	events []AccessEvent
}

// NewObserver returns an empty observer.
func NewObserver() *Observer { return &Observer{} }

func (o *Observer) record(ev AccessEvent) {
	o.mu.Lock()
	o.events = append(o.events, ev)
	o.mu.Unlock()
}

// Take drains and returns every access recorded since the last call to Take.
func (o *Observer) Take() []AccessEvent {
	o.mu.Lock()
	defer o.mu.Unlock()

	events := o.events
	o.events = nil

	return events
}

// ModifiedAddrs drains the observer and returns the distinct set of addresses that were written,
// in the order they were first touched.
func (o *Observer) ModifiedAddrs() []Word {
	events := o.Take()

	seen := make(map[Word]bool, len(events))

	addrs := make([]Word, 0, len(events))

	for _, ev := range events {
		if !ev.Modified || seen[ev.Addr] {
			continue
		}

		seen[ev.Addr] = true

		addrs = append(addrs, ev.Addr)
	}

	return addrs
}
