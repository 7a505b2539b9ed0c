package main

import (
	"image/color"
	"log"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gotest.tools/assert"
)

func logCaller(pc uintptr, file string, line int, ok bool) {
	if !ok {
		file = "?"
		line = 0
	}

	fn := runtime.FuncForPC(pc)
	var fnName string
	if fn == nil {
		fnName = "?()"
	} else {
		dotName := filepath.Ext(fn.Name())
		fnName = strings.TrimLeft(dotName, ".") + "()"
	}

	log.Printf("Starting %s (%s:%d)", fnName, filepath.Base(file), line)
}

// testSettings is the default box with every button wired, a 1s long press
// and an 8 LED ring
func testSettings() configSettings {
	s := defaultSettings()
	s.settings[sLedBackend] = ledLog
	s.settings[sPortBackend] = portNone
	s.settings[sButtonPins] = []int{25, 24, 23, 22, 26, 27}
	s.settings[sLongPress] = time.Second
	s.settings[sDebounce] = 50 * time.Millisecond
	s.settings[sNumLeds] = 8
	return s
}

type recordCommander struct {
	mu      sync.Mutex
	actions []actionCode
}

func (rc *recordCommander) action(code actionCode) {
	rc.mu.Lock()
	rc.actions = append(rc.actions, code)
	rc.mu.Unlock()
}

func (rc *recordCommander) got() []actionCode {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]actionCode{}, rc.actions...)
}

// testRuntime builds a runtime on a fake clock with no hardware. tweaks
// edit the settings before anything is built.
func testRuntime(tweaks ...func(s configSettings)) (runtimeConfig, clockwork.FakeClock, commChannels) {
	// make rt for test, log the start of the test
	logCaller(runtime.Caller(1))

	settings := testSettings()
	for _, tweak := range tweaks {
		tweak(settings)
	}
	clock := clockwork.NewFakeClock()
	comms := initCommChannels()
	rt, err := newRuntime(settings, clock, comms, newButtonPad(settings), newNoPort(), &logLed{disableLog: true})
	if err != nil {
		panic(err)
	}
	rt.cmd = &recordCommander{}
	return rt, clock, comms
}

func testPort(rt runtimeConfig) *noPort {
	return rt.port.(*noPort)
}

func testLeds(rt runtimeConfig) *logLed {
	return rt.led.(*logLed)
}

func testPlayer(rt runtimeConfig) *simPlayer {
	return rt.player.(*simPlayer)
}

func testSystem(rt runtimeConfig) *simSystem {
	return rt.system.(*simSystem)
}

func testActions(rt runtimeConfig) []actionCode {
	return rt.cmd.(*recordCommander).got()
}

// testBlockDurationN advances the clock in steps once n workers are asleep,
// and returns with them asleep again
func testBlockDurationN(clock clockwork.FakeClock, n int, step, total time.Duration) {
	for total > 0 {
		clock.BlockUntil(n)
		d := min(step, total)
		clock.Advance(d)
		total -= d
	}
	clock.BlockUntil(n)
}

func testBlockDuration(clock clockwork.FakeClock, step, total time.Duration) {
	testBlockDurationN(clock, 1, step, total)
}

// testQuit stops the workers and wakes whoever is asleep
func testQuit(rt runtimeConfig) {
	rt.comms.stop()
	if fc, ok := rt.clock.(clockwork.FakeClock); ok {
		fc.Advance(time.Second)
	}
}

// stepButtons runs the button task by hand, one sampled pass every 10ms
func stepButtons(rt runtimeConfig, clock clockwork.FakeClock, d time.Duration) {
	for ; d > 0; d -= 10 * time.Millisecond {
		clock.Advance(10 * time.Millisecond)
		select {
		case rt.comms.tick <- struct{}{}:
		default:
		}
		rt.pad.cycle(rt)
	}
}

func countColor(pixels []color.RGBA, c color.RGBA) int {
	n := 0
	for _, p := range pixels {
		if p == c {
			n++
		}
	}
	return n
}

func assertFrame(t *testing.T, got []color.RGBA, want ...color.RGBA) {
	t.Helper()
	assert.DeepEqual(t, got, want)
}
