package main

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

type fakeExpander struct {
	levels uint16
	err    error
	closed bool
}

func (fe *fakeExpander) ReadInputs() (uint16, error) {
	return fe.levels, fe.err
}

func (fe *fakeExpander) Close() error {
	fe.closed = true
	return nil
}

func TestExpanderPins(t *testing.T) {
	fe := &fakeExpander{levels: 0xffff}
	rp := &rpioPort{expander: fe, levels: 0xffff, logger: &ThreadLogger{name: "Port"}}

	// nothing is read until the cyclic refresh
	fe.levels = 0xfffd
	assert.Equal(t, rp.read(101), true)
	rp.cyclic()
	assert.Equal(t, rp.read(100), true)
	assert.Equal(t, rp.read(101), false)

	// a failed read keeps the last levels
	fe.levels = 0xffff
	fe.err = errors.New("nack")
	rp.cyclic()
	assert.Equal(t, rp.read(101), false)

	assert.Equal(t, rp.read(pinDisabled), true)
	assert.Equal(t, rp.read(maxExpanderPin+1), true)

	rp.close()
	assert.Assert(t, fe.closed)
}

func TestPinRanges(t *testing.T) {
	assert.Assert(t, isValidPin(0))
	assert.Assert(t, isValidPin(maxGPIO))
	assert.Assert(t, !isValidPin(maxGPIO+1))
	assert.Assert(t, !isValidPin(pinDisabled))
	assert.Assert(t, isValidPin(minExpanderPin))
	assert.Assert(t, isValidPin(maxExpanderPin))
	assert.Assert(t, !isValidPin(-1))

	np := newNoPort()
	np.set(pinDisabled, true)
	assert.Equal(t, np.read(pinDisabled), true)
	np.set(4, true)
	assert.Equal(t, np.read(4), false)
	np.clear()
	assert.Equal(t, np.read(4), true)
}
