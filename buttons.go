package main

import (
	"sync/atomic"
	"time"
)

// button is one logical input slot. The sampler owns every field, the
// renderer only loads the atomics.
type button struct {
	pin   int
	short actionCode
	long  actionCode

	released     atomic.Bool  // current level, true = released
	firstPressed atomic.Int64 // unix nanos of the start of the hold, zero when not held

	lastState       bool
	isPressed       bool
	isReleased      bool
	lastPressed     time.Time
	lastReleased    time.Time
	repeatRemainder time.Duration
}

func newButton(pin int, short, long actionCode) *button {
	b := &button{pin: pin, short: short, long: long, lastState: true}
	b.released.Store(true)
	return b
}

// heldSince returns the start of the current hold
func (b *button) heldSince() (time.Time, bool) {
	ns := b.firstPressed.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

// buttonPad holds the configured buttons followed by one dummy slot that is
// never wired. The dummy stands in for the shutdown button when no button
// has the sleep action on a long press.
type buttonPad struct {
	buttons     []*button
	chords      []actionCode
	shutdown    int
	initialized atomic.Bool
	debounce    time.Duration
	longPress   time.Duration
	logger      flogger
}

func newButtonPad(settings configSettings) *buttonPad {
	pins := settings.GetIntList(sButtonPins)
	shorts := settings.GetIntList(sShortActions)
	longs := settings.GetIntList(sLongActions)

	bp := &buttonPad{
		debounce:  settings.GetDuration(sDebounce),
		longPress: settings.GetDuration(sLongPress),
		logger:    newLogger(settings, "Buttons"),
	}
	for i, pin := range pins {
		bp.buttons = append(bp.buttons, newButton(pin, actionCode(shorts[i]), actionCode(longs[i])))
	}
	bp.buttons = append(bp.buttons, newButton(pinDisabled, cmdNothing, cmdNothing))

	// the last wired button with sleep on a long press is the shutdown button
	bp.shutdown = len(pins)
	for i, b := range bp.buttons[:len(pins)] {
		if isValidPin(b.pin) && b.long == cmdSleepMode {
			bp.shutdown = i
		}
	}

	for _, c := range settings.GetIntList(sChordActions) {
		bp.chords = append(bp.chords, actionCode(c))
	}
	return bp
}

// count is the number of configured buttons, the dummy excluded
func (bp *buttonPad) count() int {
	return len(bp.buttons) - 1
}

func (bp *buttonPad) hasShutdownButton() bool {
	return bp.shutdown < bp.count()
}

func (bp *buttonPad) shutdownButton() *button {
	return bp.buttons[bp.shutdown]
}

func (bp *buttonPad) pins() []int {
	ret := make([]int, 0, bp.count())
	for _, b := range bp.buttons[:bp.count()] {
		ret = append(ret, b.pin)
	}
	return ret
}
