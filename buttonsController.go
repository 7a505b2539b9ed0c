package main

// sample takes a pending tick, if there is one, and updates the debounced
// state of every configured button
func (bp *buttonPad) sample(rt runtimeConfig) {
	select {
	case <-rt.comms.tick:
	default:
		// no tick, gestures still run on the last sample
		return
	}

	rt.port.cyclic()
	if rt.system.controlsLocked() {
		return
	}

	now := rt.clock.Now()
	for i, b := range bp.buttons[:bp.count()] {
		current := rt.port.read(b.pin)
		b.released.Store(current)

		// the gate is the last press for both directions
		if current != b.lastState && now.Sub(b.lastPressed) > bp.debounce {
			if !current {
				b.isPressed = true
				b.lastPressed = now
				if b.firstPressed.Load() == 0 {
					b.firstPressed.Store(now.UnixNano())
				}
				b.repeatRemainder = bp.longPress
				bp.logger.Debugf("button %d pressed", i)
			} else {
				b.isReleased = true
				b.lastReleased = now
				b.firstPressed.Store(0)
				bp.logger.Debugf("button %d released after %v", i, now.Sub(b.lastPressed))
			}
		}
		b.lastState = current
	}
}

// cycle is one pass of the button task
func (bp *buttonPad) cycle(rt runtimeConfig) {
	bp.sample(rt)
	bp.initialized.Store(true)
	bp.resolve(rt)
}

func runWatchButtons(rt runtimeConfig) {
	defer func() {
		rt.logger.Println("exiting runWatchButtons")
	}()

	pad := rt.pad
	for {
		if rt.comms.quitting() {
			return
		}
		pad.cycle(rt)
		rt.clock.Sleep(dButtonSleep)
	}
}
