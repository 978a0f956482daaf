// Package serialpool implements the bounded UART handle pool referenced by
// spec.md §5: a process may have several serial links configured, but the
// number of real UART devices is finite and opening the same device twice
// from two adapters is almost always a configuration mistake, not an
// intentional share. The pool configures ports exactly the way the
// teacher's OpenSerialConnection does (8N1), just keyed and capped.
package serialpool

import (
	"errors"
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// ErrPoolExhausted is returned when Checkout would exceed the pool's
// configured handle limit.
var ErrPoolExhausted = errors.New("serialpool: handle limit reached")

// ErrAlreadyOpen is returned when Checkout is called twice for the same
// device path without an intervening Checkin.
var ErrAlreadyOpen = errors.New("serialpool: device already checked out")

// Pool bounds the number of simultaneously open serial.Port handles.
type Pool struct {
	mu   sync.Mutex
	max  int
	open map[string]serial.Port
}

// New builds a pool that allows at most max concurrently open ports.
func New(max int) *Pool {
	return &Pool{max: max, open: make(map[string]serial.Port)}
}

// Checkout opens device at the given baud rate (8 data bits, no parity,
// one stop bit, matching the teacher's OpenSerialConnection) and returns
// the handle, or an error if the device is already checked out or the
// pool is at capacity.
func (p *Pool) Checkout(device string, baud int) (serial.Port, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.open[device]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, device)
	}
	if len(p.open) >= p.max {
		return nil, fmt.Errorf("%w: %d handles in use", ErrPoolExhausted, p.max)
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("serialpool: open %s: %w", device, err)
	}
	p.open[device] = port
	return port, nil
}

// Checkin closes and releases device's handle. A no-op if the device isn't
// currently checked out, so adapter shutdown paths can call it
// unconditionally.
func (p *Pool) Checkin(device string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	port, ok := p.open[device]
	if !ok {
		return nil
	}
	delete(p.open, device)
	return port.Close()
}

// InUse reports how many handles are currently checked out.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.open)
}
