package session

import "errors"

// ErrNotAvailable is returned by Simulator/Execute/Reset when the simulator is owned by a running
// worker; it is transient and goes away once that worker finishes or is paused.
var ErrNotAvailable = errors.New("session: simulator not available while running")

// ErrPoisoned is returned once the worker goroutine has panicked; it is durable until Reset.
var ErrPoisoned = errors.New("session: simulator poisoned, reset required")
