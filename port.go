package main

import "sync"

// pin numbering: 0..maxGPIO are SoC GPIOs, minExpanderPin..maxExpanderPin
// are the 16 port expander lines, anything else is disabled
const (
	maxGPIO        = 27
	minExpanderPin = 100
	maxExpanderPin = 115
	pinDisabled    = 99
)

// port backends
const (
	portRpio     = "rpio"
	portKeyboard = "keyboard"
	portNone     = "none"
)

func isGPIO(pin int) bool {
	return pin >= 0 && pin <= maxGPIO
}

func isExpanderPin(pin int) bool {
	return pin >= minExpanderPin && pin <= maxExpanderPin
}

func isValidPin(pin int) bool {
	return isGPIO(pin) || isExpanderPin(pin)
}

// port reads button levels. true means released (pull-up, active low), and
// a pin that is invalid or not wired always reads released.
type port interface {
	read(pin int) bool
	// cyclic refreshes expander-backed pins, once per sampling pass
	cyclic()
	close()
}

// noPort is a port without hardware, levels are set by hand
type noPort struct {
	mu      sync.Mutex
	pressed map[int]bool
	cycles  int
}

func newNoPort() *noPort {
	return &noPort{pressed: make(map[int]bool)}
}

func (np *noPort) read(pin int) bool {
	if !isValidPin(pin) {
		return true
	}
	np.mu.Lock()
	defer np.mu.Unlock()
	return !np.pressed[pin]
}

func (np *noPort) cyclic() {
	np.mu.Lock()
	np.cycles++
	np.mu.Unlock()
}

func (np *noPort) close() {}

func (np *noPort) set(pin int, pressed bool) {
	np.mu.Lock()
	np.pressed[pin] = pressed
	np.mu.Unlock()
}

func (np *noPort) clear() {
	np.mu.Lock()
	np.pressed = make(map[int]bool)
	np.mu.Unlock()
}
