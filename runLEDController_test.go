package main

import (
	"image/color"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gotest.tools/assert"
)

// startLEDs runs the renderer after boot and waits for the first frame
func startLEDs(t *testing.T, tweaks ...func(s configSettings)) (runtimeConfig, *logLed, func(time.Duration)) {
	rt, clock, _ := testRuntime(tweaks...)
	rt.leds.indicate(indBootComplete)

	go runLEDController(rt)
	clock.BlockUntil(1)

	advance := func(d time.Duration) {
		testBlockDuration(clock, dRenderTick, d)
	}
	return rt, testLeds(rt), advance
}

var idleGreen = []color.RGBA{cGreen, cBlack, cGreen, cBlack, cGreen, cBlack, cGreen, cBlack}

func TestLEDIdleRotates(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	assertFrame(t, leds.lastFrame(), idleGreen...)
	advance(dIdleRotate)
	assertFrame(t, leds.lastFrame(), cBlack, cGreen, cBlack, cGreen, cBlack, cGreen, cBlack, cGreen)

	testQuit(rt)
}

func TestLEDIdleColors(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	// the color is picked when a rotation starts
	rt.wlan.(*simWlan).setConnected(true)
	advance(8 * dIdleRotate)
	assert.Equal(t, countColor(leds.lastFrame(), cWhite), 4)

	testSystem(rt).setOperationMode(opModeBluetooth)
	advance(8 * dIdleRotate)
	assert.Equal(t, countColor(leds.lastFrame(), cBlue), 4)

	testQuit(rt)
}

func TestLEDBootBlink(t *testing.T) {
	rt, clock, _ := testRuntime()
	leds := testLeds(rt)

	go runLEDController(rt)
	clock.BlockUntil(1)

	o, k := cOrange, cBlack
	assertFrame(t, leds.lastFrame(), k, o, k, o, k, o, k, o)
	testBlockDuration(clock, dRenderTick, dBootBlink)
	assertFrame(t, leds.lastFrame(), o, k, o, k, o, k, o, k)

	// no boot after 10s is an alarm
	testBlockDuration(clock, dRenderTick, dBootAlarm)
	assert.Equal(t, countColor(leds.lastFrame(), cRed), 8)

	rt.leds.indicate(indBootComplete)
	testBlockDuration(clock, dRenderTick, dBootBlink)
	assertFrame(t, leds.lastFrame(), idleGreen...)

	testQuit(rt)
}

func TestLEDErrorFlash(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	rt.leds.indicate(indError)
	// the idle rotation gives way within one tick
	advance(dRenderTick)
	assert.Equal(t, countColor(leds.lastFrame(), cRed), 8)
	assert.Assert(t, !rt.indicators.isSet(indError))

	advance(dErrorFlash)
	assertFrame(t, leds.lastFrame(), idleGreen...)

	testQuit(rt)
}

func TestLEDSingleLedFlash(t *testing.T) {
	rt, leds, advance := startLEDs(t, func(s configSettings) {
		s.settings[sNumLeds] = 1
	})

	rt.leds.indicate(indOk)
	advance(dRenderTick)
	// off, on, off, on, off
	seen := 0
	for i := 0; i < 5; i++ {
		if leds.lastFrame()[0] == cGreen {
			seen++
		}
		advance(dSingleLedToggle)
	}
	assert.Equal(t, seen, 2)

	testQuit(rt)
}

func TestLEDFlagsCoalesce(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	for i := 0; i < 3; i++ {
		rt.leds.indicate(indOk)
	}
	advance(2 * time.Second)

	flashes := 0
	for _, f := range leds.allFrames() {
		if countColor(f, cGreen) == 8 {
			flashes++
		}
	}
	assert.Equal(t, flashes, 1)

	testQuit(rt)
}

func TestLEDModeChange(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	testPlayer(rt).update(func(pp *playProperties) { pp.playMode = busy })
	advance(dRenderTick)
	f := leds.lastFrame()
	assert.Equal(t, countColor(f, cBlueViolet), 4)
	assert.Equal(t, f[0], cBlueViolet)

	testPlayer(rt).update(func(pp *playProperties) { pp.playMode = noPlaylist })
	advance(dRenderTick)
	assertFrame(t, leds.lastFrame(), idleGreen...)

	testQuit(rt)
}

func TestLEDBrightness(t *testing.T) {
	rt, leds, advance := startLEDs(t)
	frames := leds.frameCount()

	assert.Equal(t, rt.leds.getBrightness(), uint8(16))
	assert.Equal(t, leds.getBrightness(), uint8(16))

	rt.leds.setBrightness(77)
	assert.Equal(t, rt.leds.getBrightness(), uint8(77))

	advance(dRenderTick)
	assert.Equal(t, leds.getBrightness(), uint8(77))
	// same frame, the rotation was not restarted
	assert.Equal(t, leds.frameCount(), frames)
	assertFrame(t, leds.lastFrame(), idleGreen...)

	rt.leds.resetToNightBrightness()
	assert.Equal(t, rt.leds.getBrightness(), uint8(2))
	rt.leds.resetToInitialBrightness()
	assert.Equal(t, rt.leds.getBrightness(), uint8(16))

	testQuit(rt)
}

func TestLEDVolumeGauge(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	testPlayer(rt).setVolume(10)
	advance(dRenderTick)
	f := leds.lastFrame()
	// 10 of 21 is 3 of 8
	assert.Equal(t, f[0], hue(gaugeHue(0, 8)))
	assert.Equal(t, f[2], hue(gaugeHue(2, 8)))
	assert.Equal(t, countColor(f, cBlack), 5)

	// a new volume restarts the gauge at once
	testPlayer(rt).setVolume(21)
	advance(dRenderTick)
	assert.Equal(t, countColor(leds.lastFrame(), cBlack), 0)

	advance(dVolumeHold)
	assertFrame(t, leds.lastFrame(), idleGreen...)

	testQuit(rt)
}

func TestLEDReversed(t *testing.T) {
	rt, leds, advance := startLEDs(t, func(s configSettings) {
		s.settings[sReverseRotation] = true
	})

	testPlayer(rt).setVolume(10)
	advance(dRenderTick)
	f := leds.lastFrame()
	assert.Equal(t, f[7], hue(gaugeHue(0, 8)))
	assert.Equal(t, f[5], hue(gaugeHue(2, 8)))
	assert.Equal(t, countColor(f[:5], cBlack), 5)

	testQuit(rt)
}

func TestLEDBatteryOutOfRange(t *testing.T) {
	rt, leds, advance := startLEDs(t, func(s configSettings) {
		s.settings[sMeasureBattery] = true
	})

	rt.battery.(*simBattery).setVoltage(3.0)
	rt.leds.indicate(indVoltage)
	advance(dRenderTick)
	// no gauge, the next pass shows an error instead
	testBlockDuration(rt.clock.(clockwork.FakeClock), dRenderIdle, dRenderIdle)
	assert.Equal(t, countColor(leds.lastFrame(), cRed), 8)
	assert.Assert(t, !rt.indicators.isSet(indError))

	testQuit(rt)
}

func TestLEDBatteryGauge(t *testing.T) {
	rt, leds, advance := startLEDs(t, func(s configSettings) {
		s.settings[sMeasureBattery] = true
	})

	// 0.35V into a 0.8V range is 3 of 8 LEDs, orange
	rt.battery.(*simBattery).setVoltage(3.75)
	rt.leds.indicate(indVoltage)
	advance(dRenderTick + 3*dVoltageStep)
	f := leds.lastFrame()
	assertFrame(t, f, cOrange, cOrange, cOrange, cBlack, cBlack, cBlack, cBlack, cBlack)

	advance(time.Second)
	assertFrame(t, leds.lastFrame(), f...)

	testQuit(rt)
}

func TestLEDVoltageWarning(t *testing.T) {
	rt, leds, advance := startLEDs(t, func(s configSettings) {
		s.settings[sMeasureBattery] = true
	})

	rt.leds.indicate(indVoltageWarning)
	advance(dRenderTick + 6*dVoltageWarning)

	flashes := 0
	for _, f := range leds.allFrames() {
		if countColor(f, cRed) == 8 {
			flashes++
		}
	}
	assert.Equal(t, flashes, 3)

	testQuit(rt)
}

func TestLEDWithoutBatteryIgnoresVoltage(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	rt.leds.indicate(indVoltage)
	advance(dIdleRotate)
	// nobody consumes it and nothing is interrupted
	assert.Assert(t, rt.indicators.isSet(indVoltage))
	assertFrame(t, leds.lastFrame(), cBlack, cGreen, cBlack, cGreen, cBlack, cGreen, cBlack, cGreen)

	testQuit(rt)
}

func TestLEDSleep(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	testSystem(rt).setSleep(true)
	advance(dRenderTick)
	assert.Equal(t, countColor(leds.lastFrame(), cBlack), 8)

	frames := leds.frameCount()
	rt.leds.indicate(indError)
	advance(time.Second)
	assert.Equal(t, leds.frameCount(), frames)

	testQuit(rt)
}

func TestLEDPause(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	rt.leds.setPause(true)
	advance(dRenderTick)
	frames := leds.frameCount()
	advance(2 * time.Second)
	assert.Equal(t, leds.frameCount(), frames)

	rt.leds.setPause(false)
	advance(2 * time.Second)
	assert.Assert(t, leds.frameCount() > frames)

	testQuit(rt)
}

func TestLEDShutdownHold(t *testing.T) {
	rt, leds, advance := startLEDs(t)
	btn := rt.pad.shutdownButton()
	rt.pad.initialized.Store(true)

	btn.released.Store(false)
	btn.firstPressed.Store(rt.clock.Now().Add(-500 * time.Millisecond).UnixNano())
	advance(dRenderTick)
	// 510ms of 1s on 8 LEDs
	assertFrame(t, leds.lastFrame(), cRed, cRed, cRed, cRed, cRed, cBlack, cBlack, cBlack)

	advance(300 * time.Millisecond)
	assert.Equal(t, countColor(leds.lastFrame(), cRed), 7)

	btn.released.Store(true)
	btn.firstPressed.Store(0)
	advance(dRenderTick)
	assertFrame(t, leds.lastFrame(), idleGreen...)

	testQuit(rt)
}

func TestLEDShutdownTapIgnored(t *testing.T) {
	rt, clock, _ := testRuntime()
	rt.leds.indicate(indBootComplete)
	btn := rt.pad.shutdownButton()

	// press for one pass, release inside the debounce interval
	testPort(rt).set(22, true)
	stepButtons(rt, clock, 10*time.Millisecond)
	testPort(rt).set(22, false)
	stepButtons(rt, clock, 10*time.Millisecond)
	_, held := btn.heldSince()
	assert.Assert(t, held)
	assert.Assert(t, btn.released.Load())

	go runLEDController(rt)
	clock.BlockUntil(1)
	testBlockDuration(clock, dRenderTick, 2*time.Second)

	f := testLeds(rt).lastFrame()
	assert.Equal(t, countColor(f, cRed), 0)
	assert.Equal(t, countColor(f, cGreen), 4)

	testQuit(rt)
}

func TestLEDPlaylistProgress(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	testPlayer(rt).update(func(pp *playProperties) {
		pp.numberOfTracks = 5
		pp.currentTrackNumber = 2
	})
	rt.leds.indicate(indPlaylistProgress)
	// track 2 of 0..4 is half the ring
	advance(dRenderTick + 4*dRingStep)
	assertFrame(t, leds.lastFrame(), cBlue, cBlue, cBlue, cBlue, cBlack, cBlack, cBlack, cBlack)

	advance(dProgressHold + 4*dRingStep)
	assert.Equal(t, countColor(leds.lastFrame(), cBlue), 0)

	testQuit(rt)
}

func TestLEDRewind(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	rt.leds.indicate(indRewind)
	advance(dRenderTick)
	assert.Equal(t, countColor(leds.lastFrame(), cBlue), 8)
	advance(7 * dRingStep)
	assertFrame(t, leds.lastFrame(), cBlue, cBlack, cBlack, cBlack, cBlack, cBlack, cBlack, cBlack)

	testQuit(rt)
}

func TestLEDPlaying(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	testPlayer(rt).update(func(pp *playProperties) {
		pp.playMode = 2
		pp.currentRelPos = 49
	})
	advance(dRenderTick)
	f := leds.lastFrame()
	assert.Equal(t, f[0], hue(gaugeHue(0, 8)))
	assert.Equal(t, countColor(f, cBlack), 4)

	testPlayer(rt).update(func(pp *playProperties) { pp.pausePlay = true })
	advance(dRenderTick)
	assertFrame(t, leds.lastFrame(), cOrange, cBlack, cOrange, cBlack, cOrange, cBlack, cOrange, cBlack)

	testSystem(rt).setLocked(true)
	testPlayer(rt).update(func(pp *playProperties) { pp.pausePlay = false })
	advance(dRenderTick)
	assert.Equal(t, countColor(leds.lastFrame(), cRed), 4)

	testQuit(rt)
}

func TestLEDWebstream(t *testing.T) {
	rt, leds, advance := startLEDs(t)

	testPlayer(rt).update(func(pp *playProperties) {
		pp.playMode = 2
		pp.isWebstream = true
	})
	advance(dRenderTick)
	f := leds.lastFrame()
	assert.Assert(t, f[1] != cBlack)
	assert.Equal(t, f[1], f[5])
	assert.Equal(t, countColor(f, cBlack), 6)

	advance(dWebstreamSwitch)
	f = leds.lastFrame()
	assert.Assert(t, f[2] != cBlack)
	assert.Equal(t, f[2], f[6])

	testQuit(rt)
}

func TestLEDExit(t *testing.T) {
	rt, leds, _ := startLEDs(t)
	testQuit(rt)

	rt.leds.exit()
	assert.Equal(t, countColor(leds.lastFrame(), cBlack), 8)
}
