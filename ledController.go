package main

import (
	"image/color"
	"iter"
	"sync/atomic"
	"time"
)

// renderer timings
const (
	dPauseHold        = 10 * time.Millisecond
	dSleepHold        = 10 * time.Millisecond
	dBootBlink        = 500 * time.Millisecond
	dBootAlarm        = 10 * time.Second
	dShutdownMinHold  = 150 * time.Millisecond
	dShutdownBlink    = 50 * time.Millisecond
	dShutdownSkip     = 20 * time.Millisecond
	dErrorFlash       = 200 * time.Millisecond
	dOkFlash          = 400 * time.Millisecond
	dSingleLedToggle  = 100 * time.Millisecond
	dVoltageWarning   = 200 * time.Millisecond
	dVoltageStep      = 20 * time.Millisecond
	dVoltageHold      = 2 * time.Second
	dVolumeHold       = time.Second
	dRingStep         = 30 * time.Millisecond
	dProgressHold     = 1500 * time.Millisecond
	dIdleRotate       = 500 * time.Millisecond
	dBusyRotate       = 50 * time.Millisecond
	dBusyBlink        = 100 * time.Millisecond
	dWebstreamSwitch  = 5 * time.Second
	dPlayingRefresh   = 5 * time.Millisecond
	dPlaylistFinished = 5 * time.Millisecond
)

// ledController is the face of the LED task to the rest of the box. All
// of it is safe to call from any goroutine.
type ledController struct {
	n          int
	reversed   bool
	initial    uint8
	night      uint8
	brightness atomic.Uint32
	paused     atomic.Bool
	ind        *indicators
	strip      ledStrip
	logger     flogger
}

func newLedController(settings configSettings, strip ledStrip, ind *indicators) *ledController {
	lc := &ledController{
		n:        settings.GetInt(sNumLeds),
		reversed: settings.GetBool(sReverseRotation),
		initial:  uint8(settings.GetInt(sInitialBrightness)),
		night:    uint8(settings.GetInt(sNightBrightness)),
		ind:      ind,
		strip:    strip,
		logger:   newLogger(settings, "LEDs"),
	}
	lc.brightness.Store(uint32(lc.initial))
	return lc
}

func (lc *ledController) indicate(i indicator) {
	lc.ind.set(i)
}

// setPause stops all drawing while set
func (lc *ledController) setPause(v bool) {
	lc.paused.Store(v)
}

func (lc *ledController) setBrightness(v uint8) {
	lc.brightness.Store(uint32(v))
}

func (lc *ledController) getBrightness() uint8 {
	return uint8(lc.brightness.Load())
}

func (lc *ledController) resetToInitialBrightness() {
	lc.setBrightness(lc.initial)
	lc.logger.Printf("brightness back to %d", lc.initial)
}

func (lc *ledController) resetToNightBrightness() {
	lc.setBrightness(lc.night)
	lc.logger.Printf("brightness dimmed to %d for the night", lc.night)
}

// exit turns every LED off. Call it once the renderer is gone.
func (lc *ledController) exit() {
	off := make([]color.RGBA, lc.n)
	for i := range off {
		off[i] = cBlack
	}
	lc.strip.write(off)
	if err := lc.strip.show(); err != nil {
		lc.logger.Printf("exit: %v", err)
	}
}

// address maps a logical LED to its place on the strip
func (lc *ledController) address(i int) int {
	if lc.reversed {
		return lc.n - 1 - i
	}
	return i
}

// step is one element of an animation: optionally push the frame, then
// wait. Animations edit the frame before they yield.
type step struct {
	show bool
	hold time.Duration
}

type animation = iter.Seq[step]

func showFor(d time.Duration) step {
	return step{show: true, hold: d}
}

func idleFor(d time.Duration) step {
	return step{hold: d}
}

type renderMode struct {
	name        string
	ready       func() bool // first ready mode wins the pass, may consume a flag
	preemptible bool
	animate     func() animation
}

// watch is what an animation started with, any difference preempts it
type watch struct {
	volume           uint8
	playMode         int
	shutdownReleased bool
}

// renderer is the state of the LED task, owned by runLEDController
type renderer struct {
	rt         runtimeConfig
	lc         *ledController
	pad        *buttonPad
	ind        *indicators
	fr         frame
	phys       []color.RGBA
	brightness uint8
	start      time.Time
	w          watch
	modes      []renderMode

	lastVolume        uint8
	turnedOff         bool
	showEven          bool
	singleLedOn       bool
	notificationShown bool
	volumeChangeShown bool
	busyShown         bool
	lastPlayState     bool
	lastLockState     bool
	lastPos           uint8
	redrawProgress    bool
	webstreamPos      int
	webstreamHue      uint8
	lastSwitch        time.Time
}

func newRenderer(rt runtimeConfig) *renderer {
	lc := rt.leds
	r := &renderer{
		rt:         rt,
		lc:         lc,
		pad:        rt.pad,
		ind:        rt.indicators,
		fr:         newFrame(lc.n),
		phys:       make([]color.RGBA, lc.n),
		brightness: lc.getBrightness(),
		start:      rt.clock.Now(),
		lastVolume: rt.player.currentVolume(),
		lastPos:    rt.player.properties().currentRelPos,
	}
	rt.led.setBrightness(r.brightness)

	r.modes = []renderMode{
		{name: "pause", ready: lc.paused.Load, animate: r.pause},
		{name: "sleep", ready: rt.system.sleepRequested, animate: r.sleep},
		{name: "boot", ready: r.booting, animate: r.boot},
		{name: "shutdown-hold", ready: r.shutdownHeld, preemptible: true, animate: r.shutdownProgress},
		{name: "error", ready: r.notify(indError), preemptible: true, animate: r.flash(cRed, dErrorFlash)},
		{name: "ok", ready: r.notify(indOk), preemptible: true, animate: r.flash(cGreen, dOkFlash)},
	}
	if rt.battery != nil {
		r.modes = append(r.modes,
			renderMode{name: "voltage-warning", ready: r.notify(indVoltageWarning), preemptible: true, animate: r.voltageWarning},
			renderMode{name: "voltage", ready: r.notify(indVoltage), preemptible: true, animate: r.voltageGauge},
		)
	}
	r.modes = append(r.modes,
		renderMode{name: "volume", ready: r.volumeChanged, preemptible: true, animate: r.volumeGauge},
		renderMode{name: "rewind", ready: r.consume(indRewind), preemptible: true, animate: r.rewind},
		renderMode{name: "playlist-progress", ready: r.consume(indPlaylistProgress), preemptible: true, animate: r.playlistProgress},
		renderMode{name: "shutdown-pressed", ready: r.shutdownPressed, animate: r.shutdownPressedIdle},
		renderMode{name: "steady", ready: func() bool { return true }, preemptible: true, animate: r.steady},
	)
	return r
}

func runLEDController(rt runtimeConfig) {
	defer func() {
		rt.logger.Println("exiting runLEDController")
	}()

	r := newRenderer(rt)
	for {
		if rt.comms.quitting() {
			return
		}
		r.pass()
	}
}

// pass renders exactly one mode
func (r *renderer) pass() {
	if !r.pad.hasShutdownButton() {
		// the dummy stands in for the shutdown button and is never held
		r.pad.shutdownButton().released.Store(true)
	}
	for _, m := range r.modes {
		if !m.ready() {
			continue
		}
		if !r.play(m) {
			r.rt.clock.Sleep(dRenderIdle)
		}
		return
	}
}

// play runs one animation to its end, a quit or a preemption. It reports
// whether the animation produced any step.
func (r *renderer) play(m renderMode) bool {
	r.w = r.snapshot()
	stepped := false
	for s := range m.animate() {
		stepped = true
		if s.show {
			r.flush()
		}
		if !r.hold(s.hold, m.preemptible) {
			r.rt.logger.Debugf("%s interrupted", m.name)
			break
		}
	}
	return stepped
}

func (r *renderer) snapshot() watch {
	return watch{
		volume:           r.rt.player.currentVolume(),
		playMode:         r.rt.player.properties().playMode,
		shutdownReleased: r.pad.shutdownButton().released.Load(),
	}
}

func (r *renderer) notifications() []indicator {
	if r.rt.battery != nil {
		return []indicator{indError, indOk, indVoltageWarning, indVoltage, indRewind, indPlaylistProgress}
	}
	return []indicator{indError, indOk, indRewind, indPlaylistProgress}
}

// preempted reports whether something more important than the running
// animation happened
func (r *renderer) preempted() bool {
	if r.rt.player.currentVolume() != r.w.volume {
		return true
	}
	for _, i := range r.notifications() {
		if r.ind.isSet(i) {
			return true
		}
	}
	if r.pad.shutdownButton().released.Load() != r.w.shutdownReleased {
		return true
	}
	if r.rt.system.sleepRequested() || r.lc.paused.Load() {
		return true
	}
	return r.rt.player.properties().playMode != r.w.playMode
}

// hold waits d in slices no longer than a render tick. A quit or a
// preemption ends the wait early. A brightness change is not a preemption,
// it is shown in place and the animation carries on.
func (r *renderer) hold(d time.Duration, preemptible bool) bool {
	for {
		if r.rt.comms.quitting() {
			return false
		}
		if preemptible && r.preempted() {
			return false
		}
		if d <= 0 {
			return true
		}
		slice := min(d, dRenderTick)
		r.rt.clock.Sleep(slice)
		d -= slice
		if r.applyBrightness() {
			r.show()
		}
	}
}

func (r *renderer) applyBrightness() bool {
	b := r.lc.getBrightness()
	if b == r.brightness {
		return false
	}
	r.brightness = b
	r.rt.led.setBrightness(b)
	return true
}

// flush pushes the logical frame to the strip through the addressing
func (r *renderer) flush() {
	r.applyBrightness()
	for i, c := range r.fr {
		r.phys[r.lc.address(i)] = c
	}
	r.rt.led.write(r.phys)
	r.show()
}

func (r *renderer) show() {
	if err := r.rt.led.show(); err != nil {
		r.rt.logger.Printf("show: %v", err)
	}
}

func (r *renderer) single() bool {
	return len(r.fr) == 1
}

// notify consumes a one-shot flag and remembers that a notification hid the
// steady state
func (r *renderer) notify(i indicator) func() bool {
	return func() bool {
		if !r.ind.testAndClear(i) {
			return false
		}
		r.notificationShown = true
		return true
	}
}

func (r *renderer) consume(i indicator) func() bool {
	return func() bool {
		return r.ind.testAndClear(i)
	}
}

func (r *renderer) pause() animation {
	return func(yield func(step) bool) {
		yield(idleFor(dPauseHold))
	}
}

func (r *renderer) sleep() animation {
	return func(yield func(step) bool) {
		if !r.turnedOff {
			r.turnedOff = true
			r.fr.clear()
			yield(showFor(dSleepHold))
			return
		}
		yield(idleFor(dSleepHold))
	}
}

func (r *renderer) booting() bool {
	return !r.ind.isSet(indBootComplete)
}

// boot blinks the odd and even LEDs orange by turns. Without a boot after
// dBootAlarm the ring goes steady red.
func (r *renderer) boot() animation {
	return func(yield func(step) bool) {
		r.fr.clear()
		if r.rt.clock.Now().Sub(r.start) >= dBootAlarm {
			r.fr.fill(cRed)
		} else {
			parity := 1
			if r.showEven {
				parity = 0
			}
			for i := range r.fr {
				if r.lc.address(i)%2 == parity {
					r.fr[i] = cOrange
				}
			}
		}
		r.showEven = !r.showEven
		yield(showFor(dBootBlink))
	}
}

func (r *renderer) shutdownHeld() bool {
	if !r.pad.hasShutdownButton() || !r.pad.initialized.Load() {
		return false
	}
	btn := r.pad.shutdownButton()
	if btn.released.Load() {
		// a release lost to the debounce gate leaves firstPressed set
		return false
	}
	since, held := btn.heldSince()
	return held && r.rt.clock.Now().Sub(since) >= dShutdownMinHold
}

// shutdownProgress fills the ring red while the shutdown button is held, one
// frame per pass. A single LED is steady red and blinks once the hold is
// long enough.
func (r *renderer) shutdownProgress() animation {
	return func(yield func(step) bool) {
		btn := r.pad.shutdownButton()
		since, held := btn.heldSince()
		if !held || btn.released.Load() {
			return
		}
		elapsed := r.rt.clock.Now().Sub(since)
		long := r.pad.longPress

		if r.single() {
			if elapsed <= long {
				r.fr[0] = cRed
				yield(showFor(dRenderTick))
				return
			}
			r.fr[0] = cBlack
			if r.singleLedOn {
				r.fr[0] = cRed
			}
			r.singleLedOn = !r.singleLedOn
			yield(showFor(dShutdownBlink))
			return
		}

		if elapsed >= long {
			r.fr.fill(cRed)
			yield(showFor(dShutdownBlink))
			return
		}
		n := len(r.fr)
		lit := int((int64(elapsed)*int64(n) + int64(long) - 1) / int64(long))
		r.fr.clear()
		for i := 0; i < lit && i < n; i++ {
			r.fr[i] = cRed
		}
		yield(showFor(dRenderTick))
	}
}

// flash shows a one-shot notification, the whole ring once or a single LED
// toggled five times
func (r *renderer) flash(c color.RGBA, d time.Duration) func() animation {
	return func() animation {
		return func(yield func(step) bool) {
			if r.single() {
				for range 5 {
					r.fr[0] = cBlack
					if r.singleLedOn {
						r.fr[0] = c
					}
					r.singleLedOn = !r.singleLedOn
					if !yield(showFor(dSingleLedToggle)) {
						return
					}
				}
				return
			}
			r.fr.fill(c)
			yield(showFor(d))
		}
	}
}

func (r *renderer) voltageWarning() animation {
	return func(yield func(step) bool) {
		for range 3 {
			r.fr.fill(cRed)
			if !yield(showFor(dVoltageWarning)) {
				return
			}
			r.fr.clear()
			if !yield(showFor(dVoltageWarning)) {
				return
			}
		}
	}
}

func voltageColor(ratio float64) color.RGBA {
	switch {
	case ratio >= 0.6:
		return cGreen
	case ratio >= 0.3:
		return cOrange
	default:
		return cRed
	}
}

// voltageGauge lights a share of the ring proportional to the charge. A
// reading below the range means no battery and turns into an error.
func (r *renderer) voltageGauge() animation {
	return func(yield func(step) bool) {
		low := r.rt.settings.GetFloat(sVoltageLow)
		high := r.rt.settings.GetFloat(sVoltageHigh)
		v := r.rt.battery.voltage()
		if v < low {
			r.rt.logger.Printf("implausible battery reading %.2fV", v)
			r.ind.set(indError)
			return
		}
		ratio := (v - low) / (high - low)

		r.fr.clear()
		if r.single() {
			r.fr[0] = voltageColor(ratio)
			if !yield(showFor(0)) {
				return
			}
		} else {
			n := len(r.fr)
			lit := min(int(ratio*float64(n)), n)
			c := voltageColor(float64(lit) / float64(n))
			for i := 0; i < lit; i++ {
				r.fr[i] = c
				if !yield(showFor(dVoltageStep)) {
					return
				}
			}
		}
		yield(idleFor(dVoltageHold))
	}
}

func (r *renderer) volumeChanged() bool {
	return r.rt.player.currentVolume() != r.lastVolume
}

// volumeGauge lights a share of the ring proportional to the volume, green
// towards red
func (r *renderer) volumeGauge() animation {
	return func(yield func(step) bool) {
		p := r.rt.player
		v := r.w.volume
		r.lastVolume = v
		r.volumeChangeShown = true

		r.fr.clear()
		if r.single() {
			spk := max(int(p.maxVolumeSpeaker()), 1)
			r.fr[0] = hue(gaugeHue(int(v), spk))
		} else {
			n := len(r.fr)
			lit := min(mapRange(int(v), 0, int(p.maxVolume()), 0, n), n)
			for i := 0; i < lit; i++ {
				r.fr[i] = hue(gaugeHue(i, n))
			}
		}
		if !yield(showFor(dVolumeHold)) && p.currentVolume() != r.lastVolume {
			// the next gauge takes over, the steady state has not been hidden yet
			r.volumeChangeShown = false
		}
	}
}

// rewind collapses a blue ring towards the first LED
func (r *renderer) rewind() animation {
	return func(yield func(step) bool) {
		n := len(r.fr)
		if n < 4 {
			return
		}
		r.fr.fill(cBlue)
		if !yield(showFor(dRingStep)) {
			return
		}
		for i := n - 1; i > 0; i-- {
			r.fr[i] = cBlack
			if !yield(showFor(dRingStep)) {
				return
			}
		}
	}
}

// playlistProgress grows a blue ring to the position of the track in the
// playlist, holds it and collapses it again
func (r *renderer) playlistProgress() animation {
	return func(yield func(step) bool) {
		n := len(r.fr)
		pp := r.rt.player.properties()
		if n < 4 || pp.numberOfTracks <= 1 || pp.currentTrackNumber >= pp.numberOfTracks {
			return
		}
		lit := min(mapRange(pp.currentTrackNumber, 0, pp.numberOfTracks-1, 0, n), n)

		r.fr.clear()
		for i := 0; i < lit; i++ {
			r.fr[i] = cBlue
			if !yield(showFor(dRingStep)) {
				return
			}
		}
		if !yield(idleFor(dProgressHold)) {
			return
		}
		for i := lit; i > 0; i-- {
			r.fr[i-1] = cBlack
			if !yield(showFor(dRingStep)) {
				return
			}
		}
	}
}

func (r *renderer) shutdownPressed() bool {
	return !r.pad.shutdownButton().released.Load()
}

func (r *renderer) shutdownPressedIdle() animation {
	return func(yield func(step) bool) {
		yield(idleFor(dShutdownSkip))
	}
}

func (r *renderer) steady() animation {
	switch r.rt.player.properties().playMode {
	case noPlaylist:
		return r.idle()
	case busy:
		return r.busy()
	default:
		return r.playing()
	}
}

func (r *renderer) idleColor() color.RGBA {
	if r.rt.system.operationMode() == opModeBluetooth {
		return cBlue
	}
	if !r.rt.wlan.connected() {
		return cGreen
	}
	if r.rt.player.properties().currentSpeechActive {
		return cYellow
	}
	return cWhite
}

// idle rotates four points round the ring
func (r *renderer) idle() animation {
	return func(yield func(step) bool) {
		c := r.idleColor()
		for i := range r.fr {
			r.fr.clear()
			r.fr.quarters(i, c)
			if !yield(showFor(dIdleRotate)) {
				return
			}
		}
	}
}

func (r *renderer) busy() animation {
	return func(yield func(step) bool) {
		r.busyShown = true
		if r.single() {
			r.singleLedOn = !r.singleLedOn
			r.fr[0] = cBlack
			if r.singleLedOn {
				r.fr[0] = cBlueViolet
			}
			yield(showFor(dBusyBlink))
			return
		}
		for i := range r.fr {
			r.fr.clear()
			r.fr.quarters(i, cBlueViolet)
			if !yield(showFor(dBusyRotate)) {
				return
			}
		}
	}
}

func (r *renderer) pauseColor(pp playProperties) color.RGBA {
	if pp.currentSpeechActive {
		return cYellow
	}
	return cOrange
}

// playing shows the track progress, or a rotating marker for streams that
// have no length
func (r *renderer) playing() animation {
	return func(yield func(step) bool) {
		pp := r.rt.player.properties()
		if pp.playlistFinished {
			yield(idleFor(dPlaylistFinished))
			return
		}
		locked := r.rt.system.controlsLocked()

		voltagePending := r.rt.battery != nil && (r.ind.isSet(indVoltageWarning) || r.ind.isSet(indVoltage))
		if pp.pausePlay != r.lastPlayState || locked != r.lastLockState || r.notificationShown ||
			r.busyShown || r.volumeChangeShown || voltagePending || r.shutdownPressed() ||
			r.rt.system.sleepRequested() {
			r.lastPlayState = pp.pausePlay
			r.lastLockState = locked
			r.notificationShown = false
			r.volumeChangeShown = false
			if r.busyShown {
				r.busyShown = false
				r.fr.clear()
				r.flush()
			}
			r.redrawProgress = true
		}

		if pp.isWebstream {
			r.webstream(pp, locked)
		} else {
			r.progress(pp, locked)
		}
		yield(showFor(dPlayingRefresh))
	}
}

func (r *renderer) progress(pp playProperties, locked bool) {
	if pp.currentRelPos == r.lastPos && !r.redrawProgress {
		return
	}
	r.redrawProgress = false
	r.lastPos = pp.currentRelPos

	n := len(r.fr)
	r.fr.clear()
	if r.single() {
		r.fr[0] = hue(gaugeHue(int(pp.currentRelPos), 100))
	} else {
		lit := min(mapRange(int(pp.currentRelPos), 0, 98, 0, n), n)
		for i := 0; i < lit; i++ {
			if locked {
				r.fr[i] = cRed
			} else if !pp.pausePlay {
				r.fr[i] = hue(gaugeHue(i, n))
			}
		}
	}
	if pp.pausePlay {
		c := r.pauseColor(pp)
		r.fr[0] = c
		if n > 1 {
			r.fr[n/4] = c
			r.fr[n/2] = c
			r.fr[n/4*3] = c
		}
	}
}

func (r *renderer) webstream(pp playProperties, locked bool) {
	now := r.rt.clock.Now()
	if !r.lastSwitch.IsZero() && now.Sub(r.lastSwitch) < dWebstreamSwitch && !r.redrawProgress {
		return
	}
	r.redrawProgress = false
	r.lastSwitch = now

	n := len(r.fr)
	r.webstreamPos = (r.webstreamPos + 1) % n
	pos, opposite := r.webstreamPos, (r.webstreamPos+n/2)%n

	var c color.RGBA
	switch {
	case locked:
		c = cRed
	case !pp.pausePlay:
		c = hue(r.webstreamHue)
		r.webstreamHue++
	default:
		c = r.pauseColor(pp)
	}
	r.fr.clear()
	r.fr[pos] = c
	r.fr[opposite] = c
}
