package main

// chordIndex is the position of the pair (a, b) in a chord table over n
// buttons laid out as (0,1),(0,2)...(0,n-1),(1,2)...
func chordIndex(a, b, n int) int {
	if a > b {
		a, b = b, a
	}
	return a*(2*n-a-1)/2 + (b - a - 1)
}

func (bp *buttonPad) dispatch(rt runtimeConfig, code actionCode) {
	if code == cmdNothing {
		return
	}
	bp.logger.Printf("dispatch %v", code)
	rt.cmd.action(code)
}

// resolve turns the current button state into actions. A chord ends the
// pass, so a third pressed button waits for the next one.
func (bp *buttonPad) resolve(rt runtimeConfig) {
	n := bp.count()

	idx := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := bp.buttons[i], bp.buttons[j]
			if a.isPressed && b.isPressed {
				a.isPressed = false
				b.isPressed = false
				bp.dispatch(rt, bp.chords[idx])
				return
			}
			idx++
		}
	}

	now := rt.clock.Now()
	for _, b := range bp.buttons[:n] {
		if !b.isPressed {
			continue
		}

		if b.lastReleased.After(b.lastPressed) {
			held := b.lastReleased.Sub(b.lastPressed)
			if held < bp.longPress {
				bp.dispatch(rt, b.short)
			} else if !isRepeatAction(b.long) {
				bp.dispatch(rt, b.long)
			}
			b.isPressed = false
			b.isReleased = false
			continue
		}

		if !isRepeatAction(b.long) {
			continue
		}
		elapsed := now.Sub(b.lastPressed)
		if elapsed < bp.longPress {
			continue
		}
		// fire each time the remainder wraps around
		rem := elapsed % bp.longPress
		if rem < b.repeatRemainder {
			bp.dispatch(rt, b.long)
		}
		b.repeatRemainder = rem
	}
}
