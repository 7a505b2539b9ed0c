package main

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio"

	"dscheirer.com/piplayer/pca9555"
)

var (
	gpioOnce sync.Once
	gpioErr  error
)

// openGPIO maps the GPIO registers, the port and the LED strip share it
func openGPIO() error {
	gpioOnce.Do(func() {
		gpioErr = rpio.Open()
	})
	return gpioErr
}

// expander is what the port needs from the PCA9555
type expander interface {
	ReadInputs() (uint16, error)
	Close() error
}

type rpioPort struct {
	expander expander
	mu       sync.Mutex
	levels   uint16 // last expander read, bit n is pin minExpanderPin+n
	logger   flogger
}

func newRpioPort(settings configSettings, pins []int) (*rpioPort, error) {
	rp := &rpioPort{logger: newLogger(settings, "Port"), levels: 0xffff}

	if err := openGPIO(); err != nil {
		return nil, errors.Wrap(err, "open gpio")
	}

	needExpander := false
	for _, pin := range pins {
		switch {
		case isGPIO(pin):
			p := rpio.Pin(pin)
			p.Input()  // Input mode
			p.PullUp() // GND => button press
		case isExpanderPin(pin):
			needExpander = true
		default:
			rp.logger.Printf("pin %d is disabled", pin)
		}
	}

	if needExpander {
		dev, err := pca9555.Open(settings.GetByte(sExpanderAddress), settings.GetInt(sExpanderBus), false)
		if err != nil {
			return nil, errors.Wrap(err, "open port expander")
		}
		rp.expander = dev
	}

	return rp, nil
}

func (rp *rpioPort) read(pin int) bool {
	switch {
	case isGPIO(pin):
		return rpio.Pin(pin).Read() == rpio.High
	case isExpanderPin(pin):
		rp.mu.Lock()
		defer rp.mu.Unlock()
		return rp.levels&(1<<uint(pin-minExpanderPin)) != 0
	default:
		return true
	}
}

func (rp *rpioPort) cyclic() {
	if rp.expander == nil {
		return
	}
	levels, err := rp.expander.ReadInputs()
	if err != nil {
		// keep the previous levels, a glitch must not look like a press
		rp.logger.Printf("expander read: %v", err)
		return
	}
	rp.mu.Lock()
	rp.levels = levels
	rp.mu.Unlock()
}

func (rp *rpioPort) close() {
	if rp.expander != nil {
		rp.expander.Close()
	}
}
